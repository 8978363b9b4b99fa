package emergency

import (
	"context"
	"fmt"
	"log"

	"callfloor/core"
	"callfloor/db"
	"callfloor/models"
	"callfloor/services"
)

// EmergencyService carries the administrative overrides: targeted force
// logout, fleet-wide logout of everyone under an admin, and the full floor
// reset. Authorization is role-based and checked here, not in handlers.
type EmergencyService struct {
	agentsRepo      *db.PostgresAgentsRepository
	sessionsRepo    *db.PostgresSessionsRepository
	presenceRepo    *db.PostgresPresenceRepository
	sessionsService services.SessionsService
	metricsService  services.MetricsService
	txManager       services.TransactionManager
}

func NewEmergencyService(
	agentsRepo *db.PostgresAgentsRepository,
	sessionsRepo *db.PostgresSessionsRepository,
	presenceRepo *db.PostgresPresenceRepository,
	sessionsService services.SessionsService,
	metricsService services.MetricsService,
	txManager services.TransactionManager,
) *EmergencyService {
	return &EmergencyService{
		agentsRepo:      agentsRepo,
		sessionsRepo:    sessionsRepo,
		presenceRepo:    presenceRepo,
		sessionsService: sessionsService,
		metricsService:  metricsService,
		txManager:       txManager,
	}
}

// ForceLogout closes the target agent's session on the initiator's behalf,
// stamping the emergency flag so the audit row records a forced closure.
// Superadmins can target anyone; other admin-capable roles only agents in
// their own fleet.
func (s *EmergencyService) ForceLogout(ctx context.Context, initiatorID, targetID string) error {
	log.Printf("🔐 Starting force logout of agent %s by %s", targetID, initiatorID)
	if initiatorID == "" || targetID == "" {
		return fmt.Errorf("initiator_id and target_id cannot be empty")
	}

	maybeInitiator, err := s.agentsRepo.GetAgentByID(ctx, initiatorID)
	if err != nil {
		return fmt.Errorf("failed to get initiator: %w", err)
	}
	if !maybeInitiator.IsPresent() {
		return fmt.Errorf("initiator agent %s: %w", initiatorID, core.ErrNotFound)
	}
	initiator := maybeInitiator.MustGet()

	maybeTarget, err := s.agentsRepo.GetAgentByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to get target: %w", err)
	}
	if !maybeTarget.IsPresent() {
		return fmt.Errorf("target agent %s: %w", targetID, core.ErrNotFound)
	}
	target := maybeTarget.MustGet()

	if !initiator.CanControl(target) {
		return fmt.Errorf("agent %s is %w to log out agent %s", initiatorID, core.ErrNotAuthorized, targetID)
	}

	closed, err := s.sessionsService.ForceClose(ctx, targetID, true)
	if err != nil {
		return err
	}
	if !closed {
		log.Printf("📋 Agent %s had no open session - nothing to force close", targetID)
		return nil
	}

	log.Printf("✅ Force logged out agent %s by %s", targetID, initiatorID)
	return nil
}

// ForceLogoutAll closes every open session of agents under the given admin,
// excluding the admin's own, each with the emergency flag set. Returns how
// many sessions were closed.
func (s *EmergencyService) ForceLogoutAll(ctx context.Context, adminID string) (int, error) {
	log.Printf("🔐 Starting force logout of all agents under admin: %s", adminID)
	if adminID == "" {
		return 0, fmt.Errorf("admin_id cannot be empty")
	}

	maybeAdmin, err := s.agentsRepo.GetAgentByID(ctx, adminID)
	if err != nil {
		return 0, fmt.Errorf("failed to get admin: %w", err)
	}
	if !maybeAdmin.IsPresent() {
		return 0, fmt.Errorf("admin agent %s: %w", adminID, core.ErrNotFound)
	}
	admin := maybeAdmin.MustGet()
	if !admin.IsAdminCapable() {
		return 0, fmt.Errorf("agent %s is %w to log out a fleet", adminID, core.ErrNotAuthorized)
	}

	sessions, err := s.sessionsRepo.GetOpenSessionsByAdminID(ctx, adminID)
	if err != nil {
		return 0, fmt.Errorf("failed to list open sessions: %w", err)
	}

	closed := 0
	for _, session := range sessions {
		ok, err := s.sessionsService.ForceClose(ctx, session.AgentID, true)
		if err != nil {
			return closed, fmt.Errorf("failed to force close session for agent %s: %w", session.AgentID, err)
		}
		if ok {
			closed++
		}
	}

	log.Printf("✅ Force logged out %d agents under admin: %s", closed, adminID)
	return closed, nil
}

// EmergencyReset is the superadmin-only floor wipe: every open session is
// closed with the emergency flag set, orphaned current-state rows left by
// agents without an open session are swept, and the live metrics table is
// emptied. One transaction so a half-reset floor is never observable.
func (s *EmergencyService) EmergencyReset(ctx context.Context, initiatorID string) error {
	log.Printf("🛑 Starting emergency floor reset by: %s", initiatorID)
	if initiatorID == "" {
		return fmt.Errorf("initiator_id cannot be empty")
	}

	maybeInitiator, err := s.agentsRepo.GetAgentByID(ctx, initiatorID)
	if err != nil {
		return fmt.Errorf("failed to get initiator: %w", err)
	}
	if !maybeInitiator.IsPresent() {
		return fmt.Errorf("initiator agent %s: %w", initiatorID, core.ErrNotFound)
	}
	if maybeInitiator.MustGet().Role != models.AgentRoleSuperadmin {
		return fmt.Errorf("agent %s is %w to reset the floor", initiatorID, core.ErrNotAuthorized)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		sessions, err := s.sessionsRepo.GetAllOpenSessions(txCtx)
		if err != nil {
			return fmt.Errorf("failed to list open sessions: %w", err)
		}
		for _, session := range sessions {
			if _, err := s.sessionsService.ForceClose(txCtx, session.AgentID, true); err != nil {
				return fmt.Errorf("failed to close session for agent %s: %w", session.AgentID, err)
			}
		}

		if err := s.presenceRepo.DeleteAllCurrentStates(txCtx); err != nil {
			return fmt.Errorf("failed to clear presence states: %w", err)
		}
		if err := s.metricsService.DeleteAll(txCtx); err != nil {
			return fmt.Errorf("failed to clear live metrics: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Emergency floor reset completed by: %s", initiatorID)
	return nil
}
