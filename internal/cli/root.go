package cli

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/evyataryagoni/iptracker/internal/app"
	"github.com/evyataryagoni/iptracker/internal/controller"
	"github.com/evyataryagoni/iptracker/internal/presenter"
	"github.com/spf13/cobra"
)

// ErrLookupFailed is returned when a lookup ends in a failure outcome
// The reason has already been printed by the console presenter.
var ErrLookupFailed = errors.New("lookup failed")

// ErrEmptyQuery is returned for a blank argument; nothing is looked up
var ErrEmptyQuery = errors.New("query is empty; omit it to look up your own IP")

// AppFactory builds the lookup core for one command run
type AppFactory func() (*app.App, error)

type session struct {
	core *app.App
	ctrl *controller.Controller
}

// NewIPTrackerCLI returns the root command with every subcommand attached
func NewIPTrackerCLI(build AppFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "iptracker",
		Short: "Look up where an IP address or domain is",
		Long: `iptracker asks a geolocation API about an IP address or domain and prints
the result card. Successful lookups are cached and kept in a short search history.`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		SilenceErrors:         true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.AddCommand(newLookupCmd(build))
	rootCmd.AddCommand(newHistoryCmd(build))
	rootCmd.AddCommand(newCacheCmd(build))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// open builds the core and a controller printing to the command's stdout
func open(cmd *cobra.Command, build AppFactory, withHistory bool) (*session, error) {
	core, err := build()
	if err != nil {
		return nil, err
	}

	var p presenter.Presenter = presenter.NewConsolePresenter(cmd.OutOrStdout())
	if !withHistory {
		p = noHistory{p}
	}
	return &session{core: core, ctrl: core.Controller(p)}, nil
}

// noHistory drops history redraws
type noHistory struct {
	presenter.Presenter
}

func (noHistory) RenderHistory([]string, bool) {}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		Short:                 "Print the version of iptracker",
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		Run: func(cmd *cobra.Command, _ []string) {
			version := "(devel)"
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
				version = info.Main.Version
			}
			fmt.Fprintf(cmd.OutOrStdout(), "iptracker version: %s\n", version)
		},
	}
}
