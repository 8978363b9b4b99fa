package api

// API models mirror the domain models with only the fields clients are
// allowed to see. Credentials, stored tokens and OTP state never leave the
// server.

type LoginRequest struct {
	AgentID string `json:"agentId"`
	Secret  string `json:"secret"`
}

type LoginResponse struct {
	Token       string `json:"token,omitempty"`
	OTPRequired bool   `json:"otpRequired,omitempty"`
	Message     string `json:"message"`
}

type VerifyOTPRequest struct {
	AgentID string `json:"agentId"`
	Code    string `json:"code"`
}

type VerifyOTPResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

type BreakTimeRequest struct {
	BreakType string `json:"breakType"`
}

type AgentStatusResponse struct {
	BreakType string `json:"breakType"`
}

type WrapupRequest struct {
	Wrapup bool `json:"wrapup"`
}

type WrapupStatusResponse struct {
	Status    string `json:"status"`
	WaitUntil string `json:"waitUntil,omitempty"`
}

type AdminLogoutRequest struct {
	AgentID string `json:"agentId"`
}

type APILead struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Campaign  string `json:"campaign_id"`
}

type AutodialResponse struct {
	Status string   `json:"status"`
	Lead   *APILead `json:"lead,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
