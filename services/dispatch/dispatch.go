package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"callfloor/clients/livecalls"
	"callfloor/db"
	"callfloor/models"
	"callfloor/services"
)

// DispatchService atomically claims the next eligible lead for a requesting
// agent. The locked two-phase select inside one transaction is the system's
// only cross-agent mutual-exclusion boundary: two concurrent dispatchers on
// the same campaign can never claim the same lead.
type DispatchService struct {
	leadsRepo      *db.PostgresLeadsRepository
	metricsService services.MetricsService
	liveRegistry   livecalls.Registry
	txManager      services.TransactionManager
	wrapupCooldown time.Duration
}

func NewDispatchService(
	leadsRepo *db.PostgresLeadsRepository,
	metricsService services.MetricsService,
	liveRegistry livecalls.Registry,
	txManager services.TransactionManager,
	wrapupCooldown time.Duration,
) *DispatchService {
	return &DispatchService{
		leadsRepo:      leadsRepo,
		metricsService: metricsService,
		liveRegistry:   liveRegistry,
		txManager:      txManager,
		wrapupCooldown: wrapupCooldown,
	}
}

func (s *DispatchService) NextLead(ctx context.Context, agent *models.Agent) (*models.DispatchResult, error) {
	log.Printf("📋 Starting lead dispatch for agent: %s (campaign: %s)", agent.ID, agent.CampaignID)
	if agent.ID == "" {
		return nil, fmt.Errorf("agent_id cannot be empty")
	}
	if agent.CampaignID == "" {
		return nil, fmt.Errorf("agent %s has no campaign assigned", agent.ID)
	}

	// Never double-dial an agent with a call up.
	live, err := s.liveRegistry.HasLiveCall(ctx, agent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check live call registry: %w", err)
	}
	if live {
		log.Printf("📋 Agent %s has a live call - no dispatch", agent.ID)
		return &models.DispatchResult{Outcome: models.DispatchOutcomeLive}, nil
	}

	gated, err := s.checkWrapupGate(ctx, agent.ID)
	if err != nil {
		return nil, err
	}
	if gated {
		return &models.DispatchResult{Outcome: models.DispatchOutcomeWrapup}, nil
	}

	var result *models.DispatchResult
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claimed, err := s.claimNextLead(txCtx, agent)
		if err != nil {
			return err
		}
		result = claimed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == models.DispatchOutcomeLead {
		log.Printf("✅ Dispatched lead %d to agent: %s", result.Lead.ID, agent.ID)
	} else {
		log.Printf("📋 No eligible lead for agent: %s", agent.ID)
	}
	return result, nil
}

// checkWrapupGate reads the wrap-up flag lazily. An elapsed gate is
// auto-cleared here, which self-heals a missed explicit reset - no
// background timer is involved.
func (s *DispatchService) checkWrapupGate(ctx context.Context, agentID string) (bool, error) {
	maybeMetrics, err := s.metricsService.GetToday(ctx, agentID)
	if err != nil {
		return false, fmt.Errorf("failed to read wrapup gate: %w", err)
	}
	if !maybeMetrics.IsPresent() {
		return false, nil
	}
	metrics := maybeMetrics.MustGet()
	if !metrics.Wrapup {
		return false, nil
	}

	if metrics.WrapupElapsed(time.Now()) {
		log.Printf("📋 Wrapup cooldown elapsed for agent %s - auto-clearing", agentID)
		if err := s.metricsService.SetWrapup(ctx, agentID, false, nil); err != nil {
			return false, err
		}
		return false, nil
	}

	log.Printf("📋 Agent %s is in wrapup - no dispatch", agentID)
	return true, nil
}

// claimNextLead implements the two-phase preference inside the caller's
// transaction: drain the unassigned pool first, fall back to the agent's
// own leads only when it is empty.
func (s *DispatchService) claimNextLead(ctx context.Context, agent *models.Agent) (*models.DispatchResult, error) {
	maybeLead, err := s.leadsRepo.LockNextUnassignedLead(ctx, agent.CampaignID)
	if err != nil {
		return nil, err
	}
	if !maybeLead.IsPresent() {
		maybeLead, err = s.leadsRepo.LockNextOwnLead(ctx, agent.CampaignID, agent.ID)
		if err != nil {
			return nil, err
		}
	}
	if !maybeLead.IsPresent() {
		return &models.DispatchResult{Outcome: models.DispatchOutcomeEmpty}, nil
	}
	lead := maybeLead.MustGet()

	marked, err := s.leadsRepo.MarkDialing(ctx, lead.ID, agent.ID)
	if err != nil {
		return nil, err
	}
	if !marked {
		// The row slipped to another state between lock and update. Treat
		// as empty; the caller retries on its next poll.
		return &models.DispatchResult{Outcome: models.DispatchOutcomeEmpty}, nil
	}

	lead.DialStatus = models.DialStatusDialing
	lead.Username = &agent.ID

	if err := s.metricsService.RecordDial(ctx, agent.ID); err != nil {
		return nil, err
	}

	return &models.DispatchResult{Outcome: models.DispatchOutcomeLead, Lead: lead}, nil
}

// SetWrapup flips the wrap-up flag. Turning it on stamps the wait-until
// gate; everything else about eligibility is evaluated lazily at claim time.
func (s *DispatchService) SetWrapup(ctx context.Context, agentID string, wrapup bool) error {
	log.Printf("📋 Starting to set wrapup=%t for agent: %s", wrapup, agentID)
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}

	var waitUntil *time.Time
	if wrapup {
		until := time.Now().Add(s.wrapupCooldown)
		waitUntil = &until
	}

	return s.metricsService.SetWrapup(ctx, agentID, wrapup, waitUntil)
}

func (s *DispatchService) WrapupStatus(ctx context.Context, agentID string) (*services.WrapupStatus, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent_id cannot be empty")
	}

	live, err := s.liveRegistry.HasLiveCall(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check live call registry: %w", err)
	}
	if live {
		return &services.WrapupStatus{Status: "live"}, nil
	}

	maybeMetrics, err := s.metricsService.GetToday(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if maybeMetrics.IsPresent() {
		metrics := maybeMetrics.MustGet()
		if metrics.Wrapup && !metrics.WrapupElapsed(time.Now()) {
			return &services.WrapupStatus{Status: "wrapup", WaitUntil: metrics.WaitUntil}, nil
		}
	}

	return &services.WrapupStatus{Status: "idle"}, nil
}
