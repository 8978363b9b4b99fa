package models

import (
	"time"
)

type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// Session holds one row per agent, keyed by agent id. A new login upserts
// the row in place, which is what invalidates the previous token: the stored
// token is the only one CheckToken accepts.
type Session struct {
	ID            string        `db:"id"             json:"id"`
	AgentID       string        `db:"agent_id"       json:"agent_id"`
	LoginAt       time.Time     `db:"login_at"       json:"login_at"`
	LogoutAt      *time.Time    `db:"logout_at"      json:"logout_at"`
	Status        SessionStatus `db:"status"         json:"status"`
	CampaignID    string        `db:"campaign_id"    json:"campaign_id"`
	SessionToken  string        `db:"session_token"  json:"-"`
	EmergencyFlag bool          `db:"emergency_flag" json:"emergency_flag"`
	EmergencyAt   *time.Time    `db:"emergency_at"   json:"emergency_at"`
}

// IsOpen reports whether the session is currently active.
func (s *Session) IsOpen() bool {
	return s.Status == SessionStatusActive
}
