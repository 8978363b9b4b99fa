package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"callfloor/clients/notify"
	"callfloor/core"
	"callfloor/db"
	"callfloor/models"
)

// AuthService validates credentials and runs the OTP handshake for
// privileged roles. It never creates sessions; callers hand verified agents
// to the sessions service.
type AuthService struct {
	agentsRepo  *db.PostgresAgentsRepository
	journalRepo *db.PostgresOTPJournalRepository
	senders     []notify.Sender
	otpTTL      time.Duration
}

func NewAuthService(
	agentsRepo *db.PostgresAgentsRepository,
	journalRepo *db.PostgresOTPJournalRepository,
	senders []notify.Sender,
	otpTTL time.Duration,
) *AuthService {
	return &AuthService{
		agentsRepo:  agentsRepo,
		journalRepo: journalRepo,
		senders:     senders,
		otpTTL:      otpTTL,
	}
}

func (s *AuthService) Authenticate(
	ctx context.Context,
	agentID, secret string,
) (*models.Agent, bool, error) {
	log.Printf("🔐 Starting to authenticate agent: %s", agentID)
	if agentID == "" {
		return nil, false, fmt.Errorf("agent_id cannot be empty")
	}
	if secret == "" {
		return nil, false, fmt.Errorf("secret cannot be empty")
	}

	maybeAgent, err := s.agentsRepo.GetAgentByID(ctx, agentID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load agent: %w", err)
	}
	if !maybeAgent.IsPresent() {
		return nil, false, fmt.Errorf("invalid credentials")
	}
	agent := maybeAgent.MustGet()

	if agent.Status != models.AgentStatusActive {
		log.Printf("❌ Agent %s is inactive", agentID)
		return nil, false, fmt.Errorf("account is inactive")
	}

	if !verifySecret(agent.Password, secret) {
		log.Printf("❌ Credential mismatch for agent: %s", agentID)
		return nil, false, fmt.Errorf("invalid credentials")
	}

	if !agent.IsPrivileged() {
		log.Printf("✅ Agent %s authenticated (no OTP required)", agentID)
		return agent, false, nil
	}

	if err := s.issueOTP(ctx, agent); err != nil {
		return nil, false, fmt.Errorf("failed to issue otp: %w", err)
	}

	log.Printf("✅ Agent %s authenticated, OTP verification pending", agentID)
	return agent, true, nil
}

// verifySecret supports both stored forms transparently: bcrypt hashes
// (recognized by their $2 prefix) and legacy plain-text credentials.
func verifySecret(stored, submitted string) bool {
	if strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// issueOTP reuses a still-valid outstanding code rather than regenerating,
// then dispatches it over both side channels fire-and-forget.
func (s *AuthService) issueOTP(ctx context.Context, agent *models.Agent) error {
	now := time.Now()

	code := ""
	event := models.OTPEventSent
	if agent.OTPCode != nil && agent.OTPExpiresAt != nil && now.Before(*agent.OTPExpiresAt) {
		code = *agent.OTPCode
		event = models.OTPEventResent
	} else {
		generated, err := generateOTPCode()
		if err != nil {
			return err
		}
		code = generated
		expiresAt := now.Add(s.otpTTL)
		if err := s.agentsRepo.SetOTP(ctx, agent.ID, code, expiresAt); err != nil {
			return err
		}
	}

	if err := s.journal(ctx, agent.ID, event); err != nil {
		return err
	}

	// Delivery must never block or fail the login. Detached context: the
	// request may complete before the providers answer.
	for _, sender := range s.senders {
		recipient := agent.Email
		if sender.Channel() == "sms" {
			recipient = agent.Phone
		}
		go func(sender notify.Sender, recipient string) {
			sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := sender.SendOTP(sendCtx, recipient, code); err != nil {
				log.Printf("⚠️ OTP delivery over %s failed for agent %s: %v", sender.Channel(), agent.ID, err)
			}
		}(sender, recipient)
	}

	log.Printf("📋 OTP %s for agent: %s (expires in %s)", strings.ToLower(string(event)), agent.ID, s.otpTTL)
	return nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, agentID, code string) (*models.Agent, error) {
	log.Printf("🔐 Starting to verify OTP for agent: %s", agentID)
	if agentID == "" {
		return nil, fmt.Errorf("agent_id cannot be empty")
	}
	if code == "" {
		return nil, fmt.Errorf("code cannot be empty")
	}

	maybeAgent, err := s.agentsRepo.GetAgentByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}
	if !maybeAgent.IsPresent() {
		return nil, fmt.Errorf("invalid verification attempt")
	}
	agent := maybeAgent.MustGet()

	if agent.OTPCode == nil || agent.OTPExpiresAt == nil {
		if err := s.journal(ctx, agentID, models.OTPEventFailed); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no verification code outstanding")
	}

	// Expiry is evaluated lazily here - there is no background sweeper.
	if time.Now().After(*agent.OTPExpiresAt) {
		if err := s.agentsRepo.ClearOTP(ctx, agentID); err != nil {
			return nil, fmt.Errorf("failed to clear expired otp: %w", err)
		}
		if err := s.journal(ctx, agentID, models.OTPEventExpired); err != nil {
			return nil, err
		}
		log.Printf("❌ OTP expired for agent: %s", agentID)
		return nil, fmt.Errorf("verification code expired")
	}

	if subtle.ConstantTimeCompare([]byte(*agent.OTPCode), []byte(code)) != 1 {
		if err := s.journal(ctx, agentID, models.OTPEventFailed); err != nil {
			return nil, err
		}
		log.Printf("❌ OTP mismatch for agent: %s", agentID)
		return nil, fmt.Errorf("verification code mismatch")
	}

	if err := s.agentsRepo.ClearOTP(ctx, agentID); err != nil {
		return nil, fmt.Errorf("failed to clear otp: %w", err)
	}
	if err := s.journal(ctx, agentID, models.OTPEventVerified); err != nil {
		return nil, err
	}

	log.Printf("✅ OTP verified for agent: %s", agentID)
	return agent, nil
}

func (s *AuthService) journal(ctx context.Context, agentID string, event models.OTPEvent) error {
	entry := &models.OTPJournalEntry{
		ID:      core.NewID("otp"),
		AgentID: agentID,
		Event:   event,
	}
	if err := s.journalRepo.InsertEvent(ctx, entry); err != nil {
		return fmt.Errorf("failed to journal otp event: %w", err)
	}
	return nil
}

// generateOTPCode returns a 6-digit numeric code from crypto/rand.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
