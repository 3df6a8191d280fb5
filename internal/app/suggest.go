package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"ean_hotel/internal/adapters/observability"
	"ean_hotel/internal/async"
	"ean_hotel/internal/domain"
)

// DefaultSuggestionLimit is the number of cities shown when no limit is given.
const DefaultSuggestionLimit = 6

type suggestRequest struct {
	query string
	limit int
}

type suggestResult struct {
	destinations []domain.Destination
	limit        int
}

// SuggestionService keeps a suggestion list in sync with the latest query.
// Results of superseded queries never reach the sink.
type SuggestionService struct {
	coord *async.Coordinator[suggestRequest, suggestResult]
	sink  domain.SuggestionSink
	log   zerolog.Logger
}

// NewSuggestionService wires lookup to sink. Sink updates run on exec.
func NewSuggestionService(lookup domain.DestinationLookup, sink domain.SuggestionSink, exec async.Executor, l zerolog.Logger) *SuggestionService {
	s := &SuggestionService{sink: sink, log: l}
	work := func(ctx context.Context, r suggestRequest) (suggestResult, error) {
		ds, err := lookup.Lookup(ctx, r.query)
		return suggestResult{destinations: ds, limit: r.limit}, err
	}
	s.coord = async.New[suggestRequest, suggestResult]("suggest", work, exec, async.Handlers[suggestResult]{
		OnResult: s.publish,
		OnError:  s.suppress,
	}, l)
	return s
}

// Suggest looks up query in the background and replaces the sink's list with
// at most limit cities. A blank query only cancels the running lookup.
func (s *SuggestionService) Suggest(ctx context.Context, query string, limit int) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.coord.KillCurrent()
		return
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	s.coord.Start(ctx, suggestRequest{query: query, limit: limit})
}

// Kill aborts the running lookup, e.g. when the consuming surface goes away.
func (s *SuggestionService) Kill() { s.coord.KillCurrent() }

func (s *SuggestionService) publish(r suggestResult) {
	s.sink.Replace(FilterCities(r.destinations, r.limit))
	observability.ObservePublication("published")
}

// suppress leaves the sink unchanged.
func (s *SuggestionService) suppress(err error) {
	observability.ObservePublication("suppressed")
	ev := s.log.Warn()
	if domain.IsLookupError(err) {
		ev = s.log.Debug()
	}
	ev.Err(err).Str("error_type", observability.LabelErr(err)).Msg("destination lookup failed")
}

// FilterCities keeps CITY destinations in order, at most limit of them.
func FilterCities(ds []domain.Destination, limit int) []domain.Destination {
	out := make([]domain.Destination, 0, min(len(ds), max(limit, 0)))
	for _, d := range ds {
		if len(out) >= limit {
			break
		}
		if d.Category == domain.CategoryCity {
			out = append(out, d)
		}
	}
	return out
}
