package cli

import (
	"fmt"

	"github.com/evyataryagoni/iptracker/internal/service"
	"github.com/spf13/cobra"
)

func newLookupCmd(build AppFactory) *cobra.Command {
	var showHistory bool

	cmd := &cobra.Command{
		Use:   "lookup [ip or domain]",
		Short: "Look up an IP address or domain; without an argument, your own IP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, build, showHistory)
			if err != nil {
				return err
			}
			defer s.core.Close()

			var out service.Outcome
			if len(args) == 0 {
				out = s.ctrl.PageLoad(cmd.Context()).Outcome
			} else {
				out = s.ctrl.Submit(cmd.Context(), args[0]).Outcome
			}

			switch out.Kind {
			case service.Failure:
				return ErrLookupFailed
			case service.Ignored:
				return ErrEmptyQuery
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showHistory, "history", false, "also print the search history")
	return cmd
}

func newHistoryCmd(build AppFactory) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open(cmd, build, true)
			if err != nil {
				return err
			}
			defer s.core.Close()

			if all {
				s.ctrl.ToggleHistory()
			} else {
				s.ctrl.ShowHistory()
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "show every stored search instead of the latest few")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the search history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open(cmd, build, false)
			if err != nil {
				return err
			}
			defer s.core.Close()

			s.ctrl.ClearHistory()
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	})

	return cmd
}

func newCacheCmd(build AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset cached lookup results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open(cmd, build, false)
			if err != nil {
				return err
			}
			defer s.core.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%d cached results\n", s.core.Cache.Len())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open(cmd, build, false)
			if err != nil {
				return err
			}
			defer s.core.Close()

			s.ctrl.ClearCache()
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	})

	return cmd
}
