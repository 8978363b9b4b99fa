package models

import (
	"time"
)

type DialStatus string

const (
	DialStatusNew      DialStatus = "NEW"
	DialStatusDialing  DialStatus = "DIALING"
	DialStatusAnswered DialStatus = "ANSWERED"
	DialStatusNoAnswer DialStatus = "NO_ANSWER"
	DialStatusFailed   DialStatus = "FAILED"
	DialStatusComplete DialStatus = "COMPLETED"
)

// Lead is one contact in a campaign queue. A lead in DIALING is claimed and
// must not be handed to another agent until dispositioned back to NEW or a
// terminal state.
type Lead struct {
	ID         int64      `db:"id"          json:"id"`
	AdminID    string     `db:"admin_id"    json:"admin_id"`
	CampaignID string     `db:"campaign_id" json:"campaign_id"`
	Username   *string    `db:"username"    json:"username"`
	FirstName  string     `db:"first_name"  json:"first_name"`
	LastName   string     `db:"last_name"   json:"last_name"`
	Phone      string     `db:"phone"       json:"phone"`
	Email      string     `db:"email"       json:"email"`
	DialStatus DialStatus `db:"dial_status" json:"dial_status"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
}

type DispatchOutcome string

const (
	DispatchOutcomeLead   DispatchOutcome = "lead"
	DispatchOutcomeLive   DispatchOutcome = "live"
	DispatchOutcomeWrapup DispatchOutcome = "wrapup"
	DispatchOutcomeEmpty  DispatchOutcome = "empty"
)

// DispatchResult is the outcome of one auto-dial claim attempt. Lead is
// populated only when Outcome is DispatchOutcomeLead.
type DispatchResult struct {
	Outcome DispatchOutcome `json:"outcome"`
	Lead    *Lead           `json:"lead,omitempty"`
}
