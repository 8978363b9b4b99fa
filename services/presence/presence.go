package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"callfloor/core"
	"callfloor/db"
	"callfloor/models"
	"callfloor/services"
)

// PresenceService runs the ready/break state machine. Each agent has a
// single current-state row; every transition closes it into the append-only
// history and overwrites it with the new state in one transaction, so a
// reader can never observe zero or two open states.
type PresenceService struct {
	presenceRepo   *db.PostgresPresenceRepository
	metricsService services.MetricsService
	txManager      services.TransactionManager
}

func NewPresenceService(
	presenceRepo *db.PostgresPresenceRepository,
	metricsService services.MetricsService,
	txManager services.TransactionManager,
) *PresenceService {
	return &PresenceService{
		presenceRepo:   presenceRepo,
		metricsService: metricsService,
		txManager:      txManager,
	}
}

// SeedReady opens the agent's first state of the session. A leftover state
// row from a crashed session is closed into history first.
func (s *PresenceService) SeedReady(ctx context.Context, agentID string) error {
	log.Printf("📋 Starting to seed Ready state for agent: %s", agentID)
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()

		maybeState, err := s.presenceRepo.GetCurrentState(txCtx, agentID, true)
		if err != nil {
			return err
		}
		if maybeState.IsPresent() {
			leftover := maybeState.MustGet()
			if err := s.closeIntoHistory(txCtx, leftover, now); err != nil {
				return err
			}
			// A crashed session can leave a break open; fold it so the
			// day's break bookkeeping stays complete.
			if leftover.IsBreak() {
				duration := int64(now.Sub(leftover.StartedAt).Seconds())
				if err := s.metricsService.RecordBreak(txCtx, agentID, leftover.StateName, duration); err != nil {
					return err
				}
			}
		}

		state := &models.AgentState{
			AgentID:   agentID,
			StateName: models.StateReady,
			StartedAt: now,
			Status:    models.PresenceStatusReady,
		}
		if err := s.presenceRepo.UpsertCurrentState(txCtx, state); err != nil {
			return err
		}

		log.Printf("✅ Agent %s seeded as Ready", agentID)
		return nil
	})
}

func (s *PresenceService) SetState(ctx context.Context, agentID, stateName string) error {
	log.Printf("📋 Starting presence transition for agent %s to state: %s", agentID, stateName)
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}
	if stateName == "" {
		return fmt.Errorf("state name cannot be empty")
	}

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()

		maybeState, err := s.presenceRepo.GetCurrentState(txCtx, agentID, true)
		if err != nil {
			return err
		}
		if !maybeState.IsPresent() {
			// No open state means the agent is not logged in - a
			// consistency conflict, not something to repair silently.
			return fmt.Errorf("no open presence state for agent %s: %w", agentID, core.ErrNotFound)
		}
		current := maybeState.MustGet()

		if err := s.closeIntoHistory(txCtx, current, now); err != nil {
			return err
		}

		// Break bookkeeping folds the interval being closed, not the one
		// being opened: leaving a break is what completes it.
		if current.IsBreak() {
			duration := int64(now.Sub(current.StartedAt).Seconds())
			if err := s.metricsService.RecordBreak(txCtx, agentID, current.StateName, duration); err != nil {
				return err
			}
		}

		newStatus := models.PresenceStatusFor(stateName)
		if err := s.metricsService.SetInstantStatus(txCtx, agentID, newStatus); err != nil {
			return err
		}

		next := &models.AgentState{
			AgentID:   agentID,
			StateName: stateName,
			StartedAt: now,
			Status:    newStatus,
		}
		if err := s.presenceRepo.UpsertCurrentState(txCtx, next); err != nil {
			return err
		}

		log.Printf("✅ Agent %s transitioned %s -> %s", agentID, current.StateName, stateName)
		return nil
	})
}

func (s *PresenceService) GetState(ctx context.Context, agentID string) (mo.Option[*models.AgentState], error) {
	if agentID == "" {
		return mo.None[*models.AgentState](), fmt.Errorf("agent_id cannot be empty")
	}
	return s.presenceRepo.GetCurrentState(ctx, agentID, false)
}

// CloseCurrent folds the open state into history and removes the
// current-state row. Called on logout; no open state is a no-op so logout
// stays idempotent.
func (s *PresenceService) CloseCurrent(ctx context.Context, agentID string) error {
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()

		maybeState, err := s.presenceRepo.GetCurrentState(txCtx, agentID, true)
		if err != nil {
			return err
		}
		if !maybeState.IsPresent() {
			return nil
		}
		current := maybeState.MustGet()

		if err := s.closeIntoHistory(txCtx, current, now); err != nil {
			return err
		}
		if current.IsBreak() {
			duration := int64(now.Sub(current.StartedAt).Seconds())
			if err := s.metricsService.RecordBreak(txCtx, agentID, current.StateName, duration); err != nil {
				return err
			}
		}

		if _, err := s.presenceRepo.DeleteCurrentState(txCtx, agentID); err != nil {
			return err
		}

		log.Printf("📋 Closed open presence state %s for agent: %s", current.StateName, agentID)
		return nil
	})
}

func (s *PresenceService) closeIntoHistory(ctx context.Context, state *models.AgentState, endedAt time.Time) error {
	interval := &models.PresenceInterval{
		ID:              core.NewID("ps"),
		AgentID:         state.AgentID,
		StateName:       state.StateName,
		StartedAt:       state.StartedAt,
		EndedAt:         endedAt,
		DurationSeconds: int64(endedAt.Sub(state.StartedAt).Seconds()),
	}
	if err := s.presenceRepo.InsertInterval(ctx, interval); err != nil {
		return fmt.Errorf("failed to close state into history: %w", err)
	}
	return nil
}
