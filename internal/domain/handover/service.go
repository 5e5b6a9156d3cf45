package handover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/epd/epd/internal/domain/overview"
	"github.com/epd/epd/internal/platform/cache"
	"github.com/epd/epd/internal/platform/db"
	"github.com/epd/epd/internal/platform/llm"
)

// ErrGeneration wraps failures of the text-generation service.
var ErrGeneration = errors.New("summary generation failed")

// TallyCounter counts alerts for a set of patients; *overview.Counter
// satisfies it.
type TallyCounter interface {
	Count(ctx context.Context, ids []uuid.UUID, w overview.Window) overview.Tallies
}

type Service struct {
	notes   NoteStore
	counter TallyCounter
	llm     llm.Client
	cache   cache.KVStore
	ttl     time.Duration
	loc     *time.Location
	now     func() time.Time
	logger  zerolog.Logger
}

func NewService(notes NoteStore, counter TallyCounter, client llm.Client, kv cache.KVStore, ttl time.Duration, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		notes:   notes,
		counter: counter,
		llm:     client,
		cache:   kv,
		ttl:     ttl,
		loc:     loc,
		now:     time.Now,
		logger:  logger.With().Str("component", "handover").Logger(),
	}
}

func cacheKey(tenant string, patientID uuid.UUID, w overview.Window) string {
	return fmt.Sprintf("handover:summary:%s:%s:%s:%d", tenant, patientID, w.Date(), w.Period.Days())
}

// Summarize returns the handover summary for a patient over period. A cached
// text is reused unless refresh is set. Cache failures only get logged.
func (s *Service) Summarize(ctx context.Context, patientID uuid.UUID, period overview.Period, refresh bool) (*Summary, error) {
	w := overview.NewWindow(period, s.now(), s.loc)
	key := cacheKey(db.TenantFromContext(ctx), patientID, w)

	patient, err := s.notes.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if !refresh {
		if hit, ok := s.cached(ctx, key); ok {
			return &Summary{
				PatientID:   patientID,
				Period:      period.Days(),
				Date:        w.Date(),
				Summary:     hit.Summary,
				Cached:      true,
				GeneratedAt: hit.GeneratedAt,
			}, nil
		}
	}

	notes, err := s.notes.RecentNotes(ctx, patientID, w.Since(), MaxNotes)
	if err != nil {
		return nil, err
	}

	var tally overview.AlertTally
	if t, ok := s.counter.Count(ctx, []uuid.UUID{patientID}, w)[patientID]; ok {
		tally = *t
	}

	text, err := s.llm.Summarize(ctx, systemPrompt, buildPrompt(*patient, w, tally, notes))
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	generated := s.now().UTC()
	s.store(ctx, key, cachedSummary{Summary: text, GeneratedAt: generated})

	s.logger.Info().
		Str("patient_id", patientID.String()).
		Int("period", period.Days()).
		Int("notes", len(notes)).
		Msg("handover summary generated")

	return &Summary{
		PatientID:   patientID,
		Period:      period.Days(),
		Date:        w.Date(),
		Summary:     text,
		GeneratedAt: generated,
	}, nil
}

func (s *Service) cached(ctx context.Context, key string) (cachedSummary, bool) {
	var hit cachedSummary
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("summary cache read failed")
		}
		return hit, false
	}
	if err := json.Unmarshal([]byte(raw), &hit); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("summary cache entry unreadable")
		return hit, false
	}
	return hit, true
}

func (s *Service) store(ctx context.Context, key string, v cachedSummary) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("summary cache write failed")
	}
}
