package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiveMetrics is the rolling per-agent-per-day record. Exactly one row per
// (agent_id, metric_date); the first login of a day creates it and every
// state change or dispatch outcome updates it in place. Rows from earlier
// days are purged lazily on the agent's next login.
type LiveMetrics struct {
	ID             string          `db:"id"              json:"id"`
	AgentID        string          `db:"agent_id"        json:"agent_id"`
	MetricDate     time.Time       `db:"metric_date"     json:"metric_date"`
	LoginHour      decimal.Decimal `db:"login_hour"      json:"login_hour"`
	LoginCount     int             `db:"login_count"     json:"login_count"`
	BreakCount     int             `db:"break_count"     json:"break_count"`
	BreakNames     string          `db:"break_names"     json:"break_names"`
	BreakDurations string          `db:"break_durations" json:"break_durations"`
	CallsDialed    int             `db:"calls_dialed"    json:"calls_dialed"`
	CallsAnswered  int             `db:"calls_answered"  json:"calls_answered"`
	CallsFailed    int             `db:"calls_failed"    json:"calls_failed"`
	Status         int             `db:"status"          json:"status"`
	Wrapup         bool            `db:"wrapup"          json:"wrapup"`
	WaitUntil      *time.Time      `db:"wait_until"      json:"wait_until"`
}

// WrapupElapsed reports whether the wrap-up gate has expired as of now.
// A nil WaitUntil never elapses; it stays gated until an explicit reset.
func (m *LiveMetrics) WrapupElapsed(now time.Time) bool {
	return m.Wrapup && m.WaitUntil != nil && !now.Before(*m.WaitUntil)
}
