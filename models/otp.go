package models

import (
	"time"
)

type OTPEvent string

const (
	OTPEventSent     OTPEvent = "SENT"
	OTPEventResent   OTPEvent = "RESENT"
	OTPEventFailed   OTPEvent = "FAILED"
	OTPEventExpired  OTPEvent = "EXPIRED"
	OTPEventVerified OTPEvent = "VERIFIED"
)

// OTPJournalEntry is one audit record of an OTP lifecycle event. Attempt is
// a per-agent running counter so rate-limiting policy can be layered on top
// without schema changes.
type OTPJournalEntry struct {
	ID        string    `db:"id"         json:"id"`
	AgentID   string    `db:"agent_id"   json:"agent_id"`
	Event     OTPEvent  `db:"event"      json:"event"`
	Attempt   int       `db:"attempt"    json:"attempt"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
