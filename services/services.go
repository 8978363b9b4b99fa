package services

import (
	"context"
	"time"

	"github.com/samber/mo"

	"callfloor/models"
)

// TransactionManager defines the interface for managing database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}

// AuthService defines the interface for credential and OTP verification
type AuthService interface {
	// Authenticate validates credentials. For privileged roles it issues (or
	// re-uses) an OTP and returns otpRequired=true without creating a session.
	Authenticate(ctx context.Context, agentID, secret string) (*models.Agent, bool, error)
	// VerifyOTP checks a submitted code against the stored one and clears it
	// on success.
	VerifyOTP(ctx context.Context, agentID, code string) (*models.Agent, error)
}

// SessionsService defines the interface for session lifecycle operations
type SessionsService interface {
	Login(ctx context.Context, agent *models.Agent) (string, error)
	CheckToken(ctx context.Context, token string) (mo.Option[*models.Agent], error)
	Logout(ctx context.Context, agentID string) error
	// ForceClose closes an open session on behalf of someone other than the
	// agent, folding durations the same way Logout does. Returns false when
	// the agent had no open session.
	ForceClose(ctx context.Context, agentID string, emergency bool) (bool, error)
}

// PresenceService defines the interface for the break/ready state machine
type PresenceService interface {
	SeedReady(ctx context.Context, agentID string) error
	SetState(ctx context.Context, agentID, stateName string) error
	GetState(ctx context.Context, agentID string) (mo.Option[*models.AgentState], error)
	// CloseCurrent folds the open state into history and removes the
	// current-state row. No open state is a no-op.
	CloseCurrent(ctx context.Context, agentID string) error
}

// MetricsService defines the interface for the per-agent-per-day rollup
type MetricsService interface {
	// EnsureToday creates or refreshes today's row and lazily purges rows
	// from earlier days.
	EnsureToday(ctx context.Context, agentID string) (*models.LiveMetrics, error)
	GetToday(ctx context.Context, agentID string) (mo.Option[*models.LiveMetrics], error)
	AddLoginDuration(ctx context.Context, agentID string, elapsed time.Duration) error
	RecordBreak(ctx context.Context, agentID, breakName string, durationSeconds int64) error
	SetInstantStatus(ctx context.Context, agentID string, status int) error
	SetWrapup(ctx context.Context, agentID string, wrapup bool, waitUntil *time.Time) error
	RecordDial(ctx context.Context, agentID string) error
	DeleteAll(ctx context.Context) error
}

// DispatchService defines the interface for the auto-dial lead dispatcher
type DispatchService interface {
	NextLead(ctx context.Context, agent *models.Agent) (*models.DispatchResult, error)
	SetWrapup(ctx context.Context, agentID string, wrapup bool) error
	WrapupStatus(ctx context.Context, agentID string) (*WrapupStatus, error)
}

// WrapupStatus is the dispatcher-side view of an agent's availability.
type WrapupStatus struct {
	Status    string // "live", "wrapup" or "idle"
	WaitUntil *time.Time
}

// EmergencyService defines the interface for administrative overrides
type EmergencyService interface {
	ForceLogout(ctx context.Context, initiatorID, targetID string) error
	ForceLogoutAll(ctx context.Context, adminID string) (int, error)
	EmergencyReset(ctx context.Context, initiatorID string) error
}
