package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evyataryagoni/iptracker/internal/cache"
	"github.com/evyataryagoni/iptracker/internal/geoapi"
	"github.com/evyataryagoni/iptracker/internal/history"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/evyataryagoni/iptracker/internal/presenter"
	"github.com/go-playground/validator/v10"
)

// User-facing failure messages, one per error class
const (
	MsgClientInput = "Invalid IP address or domain. Please check your input."
	MsgRateLimited = "API rate limit exceeded. Please wait and try again later."
	MsgServer      = "Server error. Please try again later."
	MsgUnknownHTTP = "Unknown error occurred."
	MsgNoData      = "No data found for this IP or domain. Try another input."
	MsgNetwork     = "Network error. Please check your internet connection."
	MsgUnexpected  = "Unexpected error. Please try again."
)

// OutcomeKind says how a lookup ended
type OutcomeKind string

const (
	CacheHit OutcomeKind = "cache_hit"
	Success  OutcomeKind = "success"
	Failure  OutcomeKind = "failure"

	// Ignored is a blank submission: nothing was fetched or drawn
	Ignored OutcomeKind = "ignored"
)

// Outcome is the result of one Lookup call
// Result is set for CacheHit and Success, Error for Failure.
type Outcome struct {
	Kind   OutcomeKind
	Query  string
	Result *models.LookupResult
	Error  *models.ErrorDescriptor
}

// LookupService runs a single lookup end to end
//
// Flow:
//  1. Trim the query and clear any error on screen
//  2. Serve a non-empty query from the cache when possible
//  3. Otherwise ask the upstream API and classify the answer
//  4. Render the result or the failure through the presenter
//  5. Record what was drawn in the cache and history
//
// Only successful, non-empty queries touch the cache and history.
// Failures are never retried.
type LookupService struct {
	fetcher   geoapi.Fetcher
	cache     *cache.Cache
	history   *history.Manager
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewLookupService wires the orchestrator; m and log may be nil
func NewLookupService(fetcher geoapi.Fetcher, c *cache.Cache, h *history.Manager, m *metrics.Metrics, log *logger.Logger) *LookupService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &LookupService{
		fetcher:   fetcher,
		cache:     c,
		history:   h,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("LookupService"),
	}
}

// Lookup resolves query and draws the outcome through p
// The empty query asks about the caller's own address.
func (s *LookupService) Lookup(ctx context.Context, query string, p presenter.Presenter) Outcome {
	query = strings.TrimSpace(query)
	log := s.logger
	if reqLog, ok := logger.FromContext(ctx); ok {
		log = reqLog.WithComponent("LookupService")
	}
	log = log.WithQuery(query)
	p.ClearError()

	out := s.resolve(ctx, log, query, p)
	if out.Kind != Failure {
		s.record(log, out)
	}
	return out
}

// resolve fetches and draws; a panic here is an unexpected failure with no writes
func (s *LookupService) resolve(ctx context.Context, log *logger.Logger, query string, p presenter.Presenter) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Lookup panicked")
			out = s.fail(p, query, Classify(models.UnexpectedError))
		}
	}()

	if query != "" {
		if result, ok := s.cache.Get(query); ok {
			log.Debug().Msg("Serving lookup from cache")
			s.show(p, result)
			s.countOutcome(CacheHit)
			return Outcome{Kind: CacheHit, Query: query, Result: &result}
		}
	}

	log.Debug().Str("kind", s.queryKind(query)).Msg("Fetching from geolocation API")
	result, desc := s.fetch(ctx, log, query)
	if desc != nil {
		log.Warn().
			Str("class", string(desc.Class)).
			Bool("retriable", desc.Retriable).
			Msg("Lookup failed")
		return s.fail(p, query, *desc)
	}

	s.show(p, result)
	log.Info().Str("ip", result.IP).Msg("Lookup successful")
	s.countOutcome(Success)
	return Outcome{Kind: Success, Query: query, Result: &result}
}

// record writes a drawn result to the cache and history
// The result is already on screen, so a panic here is logged and the
// outcome stands.
func (s *LookupService) record(log *logger.Logger, out Outcome) {
	if out.Query == "" {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recording lookup panicked")
		}
	}()

	if out.Kind == Success {
		s.cache.Add(out.Query, *out.Result)
	}
	s.history.Add(out.Query)
}

// fetch asks the upstream API and interprets the answer
func (s *LookupService) fetch(ctx context.Context, log *logger.Logger, query string) (models.LookupResult, *models.ErrorDescriptor) {
	start := time.Now()
	resp, err := s.fetcher.Fetch(ctx, query)

	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	if s.metrics != nil {
		s.metrics.UpstreamDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		log.Debug().Err(err).Msg("Upstream request failed")
		if errors.Is(err, geoapi.ErrNetwork) {
			return models.LookupResult{}, descriptor(models.NetworkError)
		}
		return models.LookupResult{}, descriptor(models.UnexpectedError)
	}

	if class, ok := classifyStatus(resp.StatusCode); !ok {
		return models.LookupResult{}, descriptor(class)
	}

	result, err := decodeResult(resp.Body)
	if err != nil {
		log.Debug().Err(err).Int("status", resp.StatusCode).Msg("Upstream response could not be decoded")
		return models.LookupResult{}, descriptor(models.UnexpectedError)
	}
	if !result.HasLocation() {
		return models.LookupResult{}, descriptor(models.NoDataError)
	}
	return result, nil
}

// classifyStatus maps a status code onto an error class; ok is true for 2xx
func classifyStatus(code int) (models.ErrorClass, bool) {
	switch {
	case code >= 200 && code < 300:
		return "", true
	case code == http.StatusBadRequest:
		return models.ClientInputError, false
	case code == http.StatusTooManyRequests:
		return models.RateLimited, false
	case code >= 500:
		return models.ServerError, false
	default:
		return models.UnknownHTTPError, false
	}
}

func decodeResult(body []byte) (models.LookupResult, error) {
	var result models.LookupResult
	if err := json.Unmarshal(body, &result); err != nil {
		return models.LookupResult{}, fmt.Errorf("invalid response body: %w", err)
	}
	return result, nil
}

// Classify returns the descriptor shown for an error class
// Unknown classes are treated as unexpected.
func Classify(class models.ErrorClass) models.ErrorDescriptor {
	d := models.ErrorDescriptor{Class: class}
	switch class {
	case models.ClientInputError:
		d.Message = MsgClientInput
	case models.RateLimited:
		d.Message, d.Retriable = MsgRateLimited, true
	case models.ServerError:
		d.Message, d.Retriable = MsgServer, true
	case models.UnknownHTTPError:
		d.Message = MsgUnknownHTTP
	case models.NoDataError:
		d.Message = MsgNoData
	case models.NetworkError:
		d.Message, d.Retriable = MsgNetwork, true
	default:
		d.Class = models.UnexpectedError
		d.Message, d.Retriable = MsgUnexpected, true
	}
	return d
}

func descriptor(class models.ErrorClass) *models.ErrorDescriptor {
	d := Classify(class)
	return &d
}

func (s *LookupService) show(p presenter.Presenter, result models.LookupResult) {
	p.Render(result)
	if loc := result.Location; loc != nil {
		p.RenderMap(loc.Lat, loc.Lng)
	}
}

func (s *LookupService) fail(p presenter.Presenter, query string, d models.ErrorDescriptor) Outcome {
	p.Render(models.NotFoundResult())
	p.RenderError(d.Message)

	if s.metrics != nil {
		s.metrics.LookupErrors.WithLabelValues(string(d.Class)).Inc()
	}
	s.countOutcome(Failure)
	return Outcome{Kind: Failure, Query: query, Error: &d}
}

func (s *LookupService) countOutcome(kind OutcomeKind) {
	if s.metrics != nil {
		s.metrics.LookupsTotal.WithLabelValues(string(kind)).Inc()
	}
}

// queryKind labels the query for logs only; the API accepts anything
func (s *LookupService) queryKind(query string) string {
	switch {
	case query == "":
		return "self"
	case s.validator.Var(query, "ipv4") == nil:
		return "ipv4"
	case s.validator.Var(query, "ipv6") == nil:
		return "ipv6"
	case s.validator.Var(query, "fqdn") == nil:
		return "domain"
	default:
		return "other"
	}
}
