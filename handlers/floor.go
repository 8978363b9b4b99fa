package handlers

import (
	"context"
	"fmt"
	"log"

	"callfloor/core"
	"callfloor/models"
	"callfloor/services"
)

type FloorAPIHandler struct {
	authService      services.AuthService
	sessionsService  services.SessionsService
	presenceService  services.PresenceService
	dispatchService  services.DispatchService
	emergencyService services.EmergencyService
}

func NewFloorAPIHandler(
	authService services.AuthService,
	sessionsService services.SessionsService,
	presenceService services.PresenceService,
	dispatchService services.DispatchService,
	emergencyService services.EmergencyService,
) *FloorAPIHandler {
	return &FloorAPIHandler{
		authService:      authService,
		sessionsService:  sessionsService,
		presenceService:  presenceService,
		dispatchService:  dispatchService,
		emergencyService: emergencyService,
	}
}

// Login authenticates credentials and opens a session. Privileged roles get
// an OTP challenge instead of a token on the first step.
func (h *FloorAPIHandler) Login(ctx context.Context, agentID, secret string) (string, bool, error) {
	log.Printf("🔐 Login attempt for agent: %s", agentID)
	agent, otpRequired, err := h.authService.Authenticate(ctx, agentID, secret)
	if err != nil {
		log.Printf("❌ Authentication failed for agent %s: %v", agentID, err)
		return "", false, err
	}
	if otpRequired {
		log.Printf("📋 OTP challenge issued for privileged agent: %s", agentID)
		return "", true, nil
	}

	token, err := h.sessionsService.Login(ctx, agent)
	if err != nil {
		log.Printf("❌ Failed to open session for agent %s: %v", agentID, err)
		return "", false, err
	}

	log.Printf("✅ Agent logged in: %s", agentID)
	return token, false, nil
}

// VerifyOTP completes the privileged login: a correct code opens the
// session exactly like a plain login does.
func (h *FloorAPIHandler) VerifyOTP(ctx context.Context, agentID, code string) (string, error) {
	log.Printf("🔐 OTP verification for agent: %s", agentID)
	agent, err := h.authService.VerifyOTP(ctx, agentID, code)
	if err != nil {
		log.Printf("❌ OTP verification failed for agent %s: %v", agentID, err)
		return "", err
	}

	token, err := h.sessionsService.Login(ctx, agent)
	if err != nil {
		log.Printf("❌ Failed to open session for agent %s: %v", agentID, err)
		return "", err
	}

	log.Printf("✅ Agent logged in via OTP: %s", agentID)
	return token, nil
}

func (h *FloorAPIHandler) Logout(ctx context.Context, agent *models.Agent) error {
	log.Printf("🔐 Logout for agent: %s", agent.ID)
	if err := h.sessionsService.Logout(ctx, agent.ID); err != nil {
		log.Printf("❌ Logout failed for agent %s: %v", agent.ID, err)
		return err
	}

	log.Printf("✅ Agent logged out: %s", agent.ID)
	return nil
}

// SetBreak moves the agent into the named state. "Ready" ends a break.
func (h *FloorAPIHandler) SetBreak(ctx context.Context, agent *models.Agent, stateName string) error {
	log.Printf("📋 Break state change for agent %s: %s", agent.ID, stateName)
	if err := h.presenceService.SetState(ctx, agent.ID, stateName); err != nil {
		log.Printf("❌ Failed to set state for agent %s: %v", agent.ID, err)
		return err
	}

	log.Printf("✅ Agent %s is now in state: %s", agent.ID, stateName)
	return nil
}

// GetAgentState returns the agent's current presence state. No open state
// means the agent is not on the floor.
func (h *FloorAPIHandler) GetAgentState(ctx context.Context, agent *models.Agent) (*models.AgentState, error) {
	maybeState, err := h.presenceService.GetState(ctx, agent.ID)
	if err != nil {
		log.Printf("❌ Failed to get state for agent %s: %v", agent.ID, err)
		return nil, err
	}
	if !maybeState.IsPresent() {
		return nil, fmt.Errorf("agent %s has no open presence state: %w", agent.ID, core.ErrNotFound)
	}
	return maybeState.MustGet(), nil
}

func (h *FloorAPIHandler) SetWrapup(ctx context.Context, agent *models.Agent, wrapup bool) error {
	if err := h.dispatchService.SetWrapup(ctx, agent.ID, wrapup); err != nil {
		log.Printf("❌ Failed to set wrapup for agent %s: %v", agent.ID, err)
		return err
	}

	log.Printf("✅ Wrapup set to %t for agent: %s", wrapup, agent.ID)
	return nil
}

func (h *FloorAPIHandler) WrapupStatus(ctx context.Context, agent *models.Agent) (*services.WrapupStatus, error) {
	status, err := h.dispatchService.WrapupStatus(ctx, agent.ID)
	if err != nil {
		log.Printf("❌ Failed to get wrapup status for agent %s: %v", agent.ID, err)
		return nil, err
	}
	return status, nil
}

// Autodial claims the agent's next lead, or reports why none was claimed.
func (h *FloorAPIHandler) Autodial(ctx context.Context, agent *models.Agent) (*models.DispatchResult, error) {
	result, err := h.dispatchService.NextLead(ctx, agent)
	if err != nil {
		log.Printf("❌ Autodial failed for agent %s: %v", agent.ID, err)
		return nil, err
	}
	return result, nil
}

func (h *FloorAPIHandler) AdminLogoutAgent(ctx context.Context, initiator *models.Agent, targetID string) error {
	log.Printf("🔐 Admin logout of agent %s requested by: %s", targetID, initiator.ID)
	if err := h.emergencyService.ForceLogout(ctx, initiator.ID, targetID); err != nil {
		log.Printf("❌ Admin logout failed: %v", err)
		return err
	}

	log.Printf("✅ Admin logout completed for agent: %s", targetID)
	return nil
}

func (h *FloorAPIHandler) LogoutAllAgents(ctx context.Context, initiator *models.Agent) (int, error) {
	log.Printf("🔐 Fleet logout requested by: %s", initiator.ID)
	closed, err := h.emergencyService.ForceLogoutAll(ctx, initiator.ID)
	if err != nil {
		log.Printf("❌ Fleet logout failed: %v", err)
		return 0, err
	}

	log.Printf("✅ Fleet logout closed %d sessions for admin: %s", closed, initiator.ID)
	return closed, nil
}

func (h *FloorAPIHandler) EmergencyReset(ctx context.Context, initiator *models.Agent) error {
	log.Printf("🛑 Emergency reset requested by: %s", initiator.ID)
	if err := h.emergencyService.EmergencyReset(ctx, initiator.ID); err != nil {
		log.Printf("❌ Emergency reset failed: %v", err)
		return err
	}

	log.Printf("✅ Emergency reset completed")
	return nil
}
