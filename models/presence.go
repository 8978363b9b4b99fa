package models

import (
	"time"
)

// StateReady is the only non-break presence state. Anything else is treated
// as a named break ("Lunch", "Tea", ...).
const StateReady = "Ready"

const (
	// PresenceStatusReady / PresenceStatusBreak are the instantaneous status
	// values mirrored onto the live metrics row on each transition.
	PresenceStatusReady = 1
	PresenceStatusBreak = 2
)

// AgentState is the single current-state row per agent. It exists only while
// the agent is logged in; every transition overwrites it and appends the
// closed interval to the history table in the same transaction.
type AgentState struct {
	AgentID   string    `db:"agent_id"   json:"agent_id"`
	StateName string    `db:"state_name" json:"state_name"`
	StartedAt time.Time `db:"started_at" json:"started_at"`
	Status    int       `db:"status"     json:"status"`
}

// IsBreak reports whether the current state is a named break.
func (s *AgentState) IsBreak() bool {
	return s.StateName != StateReady
}

// PresenceInterval is one completed interval in the append-only history.
type PresenceInterval struct {
	ID              string    `db:"id"               json:"id"`
	AgentID         string    `db:"agent_id"         json:"agent_id"`
	StateName       string    `db:"state_name"       json:"state_name"`
	StartedAt       time.Time `db:"started_at"       json:"started_at"`
	EndedAt         time.Time `db:"ended_at"         json:"ended_at"`
	DurationSeconds int64     `db:"duration_seconds" json:"duration_seconds"`
}

// PresenceStatusFor maps a state name to its instantaneous status value.
func PresenceStatusFor(stateName string) int {
	if stateName == StateReady {
		return PresenceStatusReady
	}
	return PresenceStatusBreak
}
