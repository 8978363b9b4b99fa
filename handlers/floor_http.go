package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"callfloor/appctx"
	"callfloor/core"
	"callfloor/middleware"
	"callfloor/models/api"
)

type FloorHTTPHandler struct {
	handler *FloorAPIHandler
}

func NewFloorHTTPHandler(handler *FloorAPIHandler) *FloorHTTPHandler {
	return &FloorHTTPHandler{
		handler: handler,
	}
}

func (h *FloorHTTPHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 Login request received from %s", r.RemoteAddr)

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.AgentID == "" || req.Secret == "" {
		log.Printf("❌ Missing agentId or secret in request")
		http.Error(w, "agentId and secret are required", http.StatusBadRequest)
		return
	}

	token, otpRequired, err := h.handler.Login(r.Context(), req.AgentID, req.Secret)
	if err != nil {
		log.Printf("❌ Login failed: %v", err)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if otpRequired {
		h.writeJSONResponse(w, http.StatusOK, api.LoginResponse{
			OTPRequired: true,
			Message:     "otp required",
		})
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.LoginResponse{
		Token:   token,
		Message: "login successful",
	})
}

func (h *FloorHTTPHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 OTP verification request received from %s", r.RemoteAddr)

	var req api.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.AgentID == "" || req.Code == "" {
		log.Printf("❌ Missing agentId or code in request")
		http.Error(w, "agentId and code are required", http.StatusBadRequest)
		return
	}

	token, err := h.handler.VerifyOTP(r.Context(), req.AgentID, req.Code)
	if err != nil {
		log.Printf("❌ OTP verification failed: %v", err)
		http.Error(w, "invalid or expired code", http.StatusUnauthorized)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.VerifyOTPResponse{
		Token:   token,
		Message: "login successful",
	})
}

func (h *FloorHTTPHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 Logout request received from %s", r.RemoteAddr)

	agent, ok := appctx.GetAgent(r.Context())
	if !ok {
		log.Printf("❌ Agent not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.handler.Logout(r.Context(), agent); err != nil {
		log.Printf("❌ Logout failed: %v", err)
		http.Error(w, "failed to log out", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.MessageResponse{Message: "logged out"})
}

func (h *FloorHTTPHandler) HandleBreakTime(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Break time request received from %s", r.RemoteAddr)

	agent, ok := appctx.GetAgent(r.Context())
	if !ok {
		log.Printf("❌ Agent not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.BreakTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.BreakType == "" {
		log.Printf("❌ Missing breakType in request")
		http.Error(w, "breakType is required", http.StatusBadRequest)
		return
	}

	if err := h.handler.SetBreak(r.Context(), agent, req.BreakType); err != nil {
		log.Printf("❌ Failed to set break state: %v", err)
		if core.IsNotFoundError(err) {
			http.Error(w, "no open presence state", http.StatusConflict)
		} else {
			http.Error(w, "failed to set break state", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.MessageResponse{Message: "state updated"})
}

func (h *FloorHTTPHandler) HandleGetAgentStatus(w http.ResponseWriter, r *http.Request) {
	agent, ok := appctx.GetAgent(r.Context())
	if !ok {
		log.Printf("❌ Agent not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	state, err := h.handler.GetAgentState(r.Context(), agent)
	if err != nil {
		if core.IsNotFoundError(err) {
			http.Error(w, "agent is not on the floor", http.StatusNotFound)
		} else {
			log.Printf("❌ Failed to get agent status: %v", err)
			http.Error(w, "failed to get agent status", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.AgentStatusResponse{BreakType: state.StateName})
}

func (h *FloorHTTPHandler) HandleAgentWrapup(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Wrapup request received from %s", r.RemoteAddr)

	agent, ok := appctx.GetAgent(r.Context())
	if !ok {
		log.Printf("❌ Agent not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.WrapupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.handler.SetWrapup(r.Context(), agent, req.Wrapup); err != nil {
		log.Printf("❌ Failed to set wrapup: %v", err)
		http.Error(w, "failed to set wrapup", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.MessageResponse{Message: "wrapup updated"})
}

func (h *FloorHTTPHandler) HandleAgentWrapupStatus(w http.ResponseWriter, r *http.Request) {
	agent, ok := appctx.GetAgent(r.Context())
	if !ok {
		log.Printf("❌ Agent not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	status, err := h.handler.WrapupStatus(r.Context(), agent)
	if err != nil {
		log.Printf("❌ Failed to get wrapup status: %v", err)
		http.Error(w, "failed to get wrapup status", http.StatusInternalServerError)
		return
	}

	resp := api.WrapupStatusResponse{Status: status.Status}
	if status.WaitUntil != nil {
		resp.WaitUntil = status.WaitUntil.Format(time.RFC3339)
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *FloorHTTPHandler) HandleAutodial(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Autodial request received from %s", r.RemoteAddr)

	agent, ok := appctx.GetAgent(r.Context())
	if !ok {
		log.Printf("❌ Agent not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	result, err := h.handler.Autodial(r.Context(), agent)
	if err != nil {
		log.Printf("❌ Autodial failed: %v", err)
		http.Error(w, "failed to dispatch lead", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.DomainDispatchResultToAPIResponse(result))
}

func (h *FloorHTTPHandler) HandleAdminLogoutUser(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 Admin logout request received from %s", r.RemoteAddr)

	initiator, ok := appctx.GetAgent(r.Context())
	if !ok {
		log.Printf("❌ Agent not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.AdminLogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.AgentID == "" {
		log.Printf("❌ Missing agentId in request")
		http.Error(w, "agentId is required", http.StatusBadRequest)
		return
	}

	if err := h.handler.AdminLogoutAgent(r.Context(), initiator, req.AgentID); err != nil {
		h.writeAuthzAwareError(w, err, "failed to log out agent")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.MessageResponse{Message: "agent logged out"})
}

func (h *FloorHTTPHandler) HandleLogoutAllAgents(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 Fleet logout request received from %s", r.RemoteAddr)

	initiator, ok := appctx.GetAgent(r.Context())
	if !ok {
		log.Printf("❌ Agent not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	closed, err := h.handler.LogoutAllAgents(r.Context(), initiator)
	if err != nil {
		h.writeAuthzAwareError(w, err, "failed to log out agents")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]any{
		"message":         "agents logged out",
		"sessions_closed": closed,
	})
}

func (h *FloorHTTPHandler) HandleEmergencyReset(w http.ResponseWriter, r *http.Request) {
	log.Printf("🛑 Emergency reset request received from %s", r.RemoteAddr)

	initiator, ok := appctx.GetAgent(r.Context())
	if !ok {
		log.Printf("❌ Agent not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.handler.EmergencyReset(r.Context(), initiator); err != nil {
		h.writeAuthzAwareError(w, err, "failed to reset floor")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, api.MessageResponse{Message: "floor reset"})
}

func (h *FloorHTTPHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, api.MessageResponse{Message: "ok"})
}

// SetupEndpoints registers all floor API endpoints with their middleware
func (h *FloorHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.SessionAuthMiddleware) {
	router.HandleFunc("/login", h.HandleLogin).Methods("POST")
	log.Printf("✅ POST /login endpoint registered")

	router.HandleFunc("/verify_otp", h.HandleVerifyOTP).Methods("POST")
	log.Printf("✅ POST /verify_otp endpoint registered")

	router.HandleFunc("/logout", authMiddleware.WithAuth(h.HandleLogout)).Methods("POST")
	log.Printf("✅ POST /logout endpoint registered")

	router.HandleFunc("/break_time", authMiddleware.WithAuth(h.HandleBreakTime)).Methods("POST")
	log.Printf("✅ POST /break_time endpoint registered")

	router.HandleFunc("/get_agent_status", authMiddleware.WithAuth(h.HandleGetAgentStatus)).Methods("GET")
	log.Printf("✅ GET /get_agent_status endpoint registered")

	router.HandleFunc("/agent-wrapup", authMiddleware.WithAuth(h.HandleAgentWrapup)).Methods("POST")
	log.Printf("✅ POST /agent-wrapup endpoint registered")

	router.HandleFunc("/agent-wrapup-status", authMiddleware.WithAuth(h.HandleAgentWrapupStatus)).Methods("GET")
	log.Printf("✅ GET /agent-wrapup-status endpoint registered")

	router.HandleFunc("/ap/autodial", authMiddleware.WithAuth(h.HandleAutodial)).Methods("POST")
	log.Printf("✅ POST /ap/autodial endpoint registered")

	router.HandleFunc("/adminLogoutUser", authMiddleware.WithAuth(h.HandleAdminLogoutUser)).Methods("POST")
	log.Printf("✅ POST /adminLogoutUser endpoint registered")

	router.HandleFunc("/logoutAllAgents", authMiddleware.WithAuth(h.HandleLogoutAllAgents)).Methods("POST")
	log.Printf("✅ POST /logoutAllAgents endpoint registered")

	router.HandleFunc("/emergencyReset", authMiddleware.WithAuth(h.HandleEmergencyReset)).Methods("POST")
	log.Printf("✅ POST /emergencyReset endpoint registered")

	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
	log.Printf("✅ GET /health endpoint registered")

	log.Printf("✅ All floor API endpoints registered successfully")
}

// writeAuthzAwareError distinguishes authorization failures and missing
// targets from plain server errors without leaking detail to the caller.
func (h *FloorHTTPHandler) writeAuthzAwareError(w http.ResponseWriter, err error, fallback string) {
	log.Printf("❌ %s: %v", fallback, err)
	switch {
	case core.IsNotAuthorizedError(err):
		http.Error(w, "not authorized", http.StatusForbidden)
	case core.IsNotFoundError(err):
		http.Error(w, "agent not found", http.StatusNotFound)
	default:
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func (h *FloorHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
