package metrics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"callfloor/core"
	"callfloor/db"
	"callfloor/models"
)

// MetricsService maintains the rolling per-agent-per-day record. Every
// mutation targets today's row; callers that need multi-row atomicity wrap
// calls in a transaction and the repository picks it up from the context.
type MetricsService struct {
	metricsRepo *db.PostgresLiveMetricsRepository
}

func NewMetricsService(repo *db.PostgresLiveMetricsRepository) *MetricsService {
	return &MetricsService{metricsRepo: repo}
}

// today truncates now to the calendar day used as the metric_date key.
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *MetricsService) EnsureToday(ctx context.Context, agentID string) (*models.LiveMetrics, error) {
	log.Printf("📋 Starting to ensure today's metrics row for agent: %s", agentID)
	if agentID == "" {
		return nil, fmt.Errorf("agent_id cannot be empty")
	}

	day := today()

	// Earlier days are dead weight once the agent is back - purge lazily
	purged, err := s.metricsRepo.PurgeBefore(ctx, agentID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to purge stale metrics: %w", err)
	}
	if purged > 0 {
		log.Printf("🧹 Purged %d stale metrics rows for agent: %s", purged, agentID)
	}

	metrics := &models.LiveMetrics{
		ID:         core.NewID("lm"),
		AgentID:    agentID,
		MetricDate: day,
		Status:     models.PresenceStatusReady,
	}
	if err := s.metricsRepo.UpsertDay(ctx, metrics); err != nil {
		return nil, fmt.Errorf("failed to upsert metrics day: %w", err)
	}

	log.Printf("📋 Completed successfully - metrics row %s ready for agent: %s", metrics.ID, agentID)
	return metrics, nil
}

func (s *MetricsService) GetToday(ctx context.Context, agentID string) (mo.Option[*models.LiveMetrics], error) {
	if agentID == "" {
		return mo.None[*models.LiveMetrics](), fmt.Errorf("agent_id cannot be empty")
	}
	return s.metricsRepo.GetByAgentAndDate(ctx, agentID, today())
}

// AddLoginDuration folds an elapsed session duration into login_hour,
// capped to two decimal places.
func (s *MetricsService) AddLoginDuration(ctx context.Context, agentID string, elapsed time.Duration) error {
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}
	if elapsed < 0 {
		return fmt.Errorf("elapsed duration cannot be negative")
	}

	hours := decimal.NewFromFloat(elapsed.Hours()).Round(2)
	if err := s.metricsRepo.AddLoginHours(ctx, agentID, today(), hours); err != nil {
		return fmt.Errorf("failed to fold login duration: %w", err)
	}

	log.Printf("📋 Folded %s of login time into metrics for agent: %s", elapsed.Round(time.Second), agentID)
	return nil
}

func (s *MetricsService) RecordBreak(ctx context.Context, agentID, breakName string, durationSeconds int64) error {
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}
	if breakName == "" {
		return fmt.Errorf("break name cannot be empty")
	}
	if durationSeconds < 0 {
		return fmt.Errorf("break duration cannot be negative")
	}

	if err := s.metricsRepo.AppendBreak(ctx, agentID, today(), breakName, durationSeconds); err != nil {
		return fmt.Errorf("failed to record break: %w", err)
	}

	return nil
}

func (s *MetricsService) SetInstantStatus(ctx context.Context, agentID string, status int) error {
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}
	if status != models.PresenceStatusReady && status != models.PresenceStatusBreak {
		return fmt.Errorf("invalid instant status: %d", status)
	}

	if err := s.metricsRepo.UpdateInstantStatus(ctx, agentID, today(), status); err != nil {
		return fmt.Errorf("failed to set instant status: %w", err)
	}

	return nil
}

func (s *MetricsService) SetWrapup(ctx context.Context, agentID string, wrapup bool, waitUntil *time.Time) error {
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}

	if err := s.metricsRepo.SetWrapup(ctx, agentID, today(), wrapup, waitUntil); err != nil {
		return fmt.Errorf("failed to set wrapup flag: %w", err)
	}

	log.Printf("📋 Wrapup flag for agent %s set to %t", agentID, wrapup)
	return nil
}

func (s *MetricsService) RecordDial(ctx context.Context, agentID string) error {
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}

	if err := s.metricsRepo.IncrementCallCounter(ctx, agentID, today(), "calls_dialed"); err != nil {
		return fmt.Errorf("failed to record dial: %w", err)
	}

	return nil
}

// DeleteAll wipes every metrics row. Only the emergency reset calls this.
func (s *MetricsService) DeleteAll(ctx context.Context) error {
	log.Printf("🛑 Deleting ALL live metrics rows")
	if err := s.metricsRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete all metrics: %w", err)
	}
	return nil
}
