package models

import (
	"time"
)

type AgentRole string

const (
	AgentRoleAgent      AgentRole = "agent"
	AgentRoleTeamLead   AgentRole = "team_lead"
	AgentRoleManager    AgentRole = "manager"
	AgentRoleAdmin      AgentRole = "admin"
	AgentRoleSuperadmin AgentRole = "superadmin"
)

type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
)

// Agent is the provisioning record for one floor login. Provisioning CRUD
// lives outside this service; the core only touches session token and OTP
// fields on this row.
type Agent struct {
	ID           string      `db:"id"             json:"id"`
	AdminID      string      `db:"admin_id"       json:"admin_id"`
	Role         AgentRole   `db:"role"           json:"role"`
	Status       AgentStatus `db:"status"         json:"status"`
	CampaignID   string      `db:"campaign_id"    json:"campaign_id"`
	DialPriority int         `db:"dial_priority"  json:"dial_priority"`
	Password     string      `db:"password"       json:"-"`
	Email        string      `db:"email"          json:"email"`
	Phone        string      `db:"phone"          json:"phone"`
	SessionToken *string     `db:"session_token"  json:"-"`
	OTPCode      *string     `db:"otp_code"       json:"-"`
	OTPExpiresAt *time.Time  `db:"otp_expires_at" json:"-"`
	CreatedAt    time.Time   `db:"created_at"     json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"     json:"updated_at"`
}

// IsPrivileged reports whether this role requires OTP verification on login.
func (a *Agent) IsPrivileged() bool {
	switch a.Role {
	case AgentRoleAdmin, AgentRoleSuperadmin, AgentRoleManager:
		return true
	}
	return false
}

// IsAdminCapable reports whether this role may force-logout agents it owns.
func (a *Agent) IsAdminCapable() bool {
	switch a.Role {
	case AgentRoleAdmin, AgentRoleSuperadmin, AgentRoleManager, AgentRoleTeamLead:
		return true
	}
	return false
}

// CanControl reports whether the agent may perform emergency operations on
// target. A superadmin controls everyone; otherwise the initiator must be
// the target's direct admin and hold an admin-capable role.
func (a *Agent) CanControl(target *Agent) bool {
	if a.Role == AgentRoleSuperadmin {
		return true
	}
	return a.IsAdminCapable() && target.AdminID == a.ID
}
