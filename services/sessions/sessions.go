package sessions

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/mo"

	"callfloor/core"
	"callfloor/db"
	"callfloor/models"
	"callfloor/services"
)

// SessionsService owns the session token lifecycle. A login upserts the one
// session row per agent, so the freshly stored token is the only one
// CheckToken will accept - logging in elsewhere invalidates the old token
// with no explicit revoke step.
type SessionsService struct {
	agentsRepo      *db.PostgresAgentsRepository
	sessionsRepo    *db.PostgresSessionsRepository
	presenceService services.PresenceService
	metricsService  services.MetricsService
	txManager       services.TransactionManager
	jwtSecret       []byte
}

func NewSessionsService(
	agentsRepo *db.PostgresAgentsRepository,
	sessionsRepo *db.PostgresSessionsRepository,
	presenceService services.PresenceService,
	metricsService services.MetricsService,
	txManager services.TransactionManager,
	jwtSecret string,
) *SessionsService {
	return &SessionsService{
		agentsRepo:      agentsRepo,
		sessionsRepo:    sessionsRepo,
		presenceService: presenceService,
		metricsService:  metricsService,
		txManager:       txManager,
		jwtSecret:       []byte(jwtSecret),
	}
}

type sessionClaims struct {
	Role    string `json:"role"`
	AdminID string `json:"admin_id"`
	jwt.RegisteredClaims
}

func (s *SessionsService) Login(ctx context.Context, agent *models.Agent) (string, error) {
	log.Printf("🔐 Starting login for agent: %s", agent.ID)
	if agent.ID == "" {
		return "", fmt.Errorf("agent_id cannot be empty")
	}

	sessionID := core.NewID("ses")
	token, err := s.mintToken(agent, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to mint session token: %w", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		session := &models.Session{
			ID:           sessionID,
			AgentID:      agent.ID,
			LoginAt:      time.Now(),
			Status:       models.SessionStatusActive,
			CampaignID:   agent.CampaignID,
			SessionToken: token,
		}
		if err := s.sessionsRepo.UpsertActiveSession(txCtx, session); err != nil {
			return err
		}

		if err := s.agentsRepo.UpdateSessionToken(txCtx, agent.ID, &token); err != nil {
			return err
		}

		if _, err := s.metricsService.EnsureToday(txCtx, agent.ID); err != nil {
			return err
		}

		return s.presenceService.SeedReady(txCtx, agent.ID)
	})
	if err != nil {
		return "", err
	}

	log.Printf("✅ Agent %s logged in with session: %s", agent.ID, sessionID)
	return token, nil
}

func (s *SessionsService) mintToken(agent *models.Agent, sessionID string) (string, error) {
	claims := sessionClaims{
		Role:    string(agent.Role),
		AdminID: agent.AdminID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  agent.ID,
			ID:       sessionID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// CheckToken accepts a token only when it both verifies and equals the
// token currently stored for the agent. Storage is the source of truth: a
// structurally valid token from a superseded session is rejected.
func (s *SessionsService) CheckToken(ctx context.Context, token string) (mo.Option[*models.Agent], error) {
	if token == "" {
		return mo.None[*models.Agent](), fmt.Errorf("token cannot be empty")
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		log.Printf("❌ Token verification failed: %v", err)
		return mo.None[*models.Agent](), nil
	}

	agentID := claims.Subject

	maybeAgent, err := s.agentsRepo.GetAgentByID(ctx, agentID)
	if err != nil {
		return mo.None[*models.Agent](), fmt.Errorf("failed to load agent for token check: %w", err)
	}
	if !maybeAgent.IsPresent() {
		return mo.None[*models.Agent](), nil
	}
	agent := maybeAgent.MustGet()

	if agent.SessionToken == nil ||
		subtle.ConstantTimeCompare([]byte(*agent.SessionToken), []byte(token)) != 1 {
		log.Printf("❌ Presented token does not match stored token for agent: %s", agentID)
		return mo.None[*models.Agent](), nil
	}

	maybeSession, err := s.sessionsRepo.GetSessionByAgentID(ctx, agentID)
	if err != nil {
		return mo.None[*models.Agent](), fmt.Errorf("failed to load session for token check: %w", err)
	}
	if !maybeSession.IsPresent() || !maybeSession.MustGet().IsOpen() {
		return mo.None[*models.Agent](), nil
	}

	return mo.Some(agent), nil
}

// Logout closes the agent's own session. No open session is a no-op
// success so duplicate logout clicks stay harmless.
func (s *SessionsService) Logout(ctx context.Context, agentID string) error {
	log.Printf("🔐 Starting logout for agent: %s", agentID)
	if agentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}

	closed, err := s.ForceClose(ctx, agentID, false)
	if err != nil {
		return err
	}
	if !closed {
		log.Printf("📋 Agent %s had no open session - logout is a no-op", agentID)
	}
	return nil
}

// ForceClose closes an open session, folds the elapsed login duration into
// today's metrics and force-closes any open presence state. It backs both
// self-logout and the emergency paths; emergency=true stamps the emergency
// flag on the session row.
func (s *SessionsService) ForceClose(ctx context.Context, agentID string, emergency bool) (bool, error) {
	if agentID == "" {
		return false, fmt.Errorf("agent_id cannot be empty")
	}

	var closed bool
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		maybeSession, err := s.sessionsRepo.GetSessionByAgentID(txCtx, agentID)
		if err != nil {
			return err
		}
		if !maybeSession.IsPresent() || !maybeSession.MustGet().IsOpen() {
			closed = false
			return nil
		}
		session := maybeSession.MustGet()

		now := time.Now()
		didClose, err := s.sessionsRepo.CloseSession(txCtx, agentID, now, emergency)
		if err != nil {
			return err
		}
		if !didClose {
			closed = false
			return nil
		}

		if err := s.agentsRepo.UpdateSessionToken(txCtx, agentID, nil); err != nil {
			return err
		}

		if err := s.presenceService.CloseCurrent(txCtx, agentID); err != nil {
			return err
		}

		if err := s.metricsService.AddLoginDuration(txCtx, agentID, now.Sub(session.LoginAt)); err != nil {
			return err
		}

		closed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if closed {
		log.Printf("✅ Session closed for agent: %s (emergency=%t)", agentID, emergency)
	}
	return closed, nil
}
