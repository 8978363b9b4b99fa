package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"callfloor/appctx"
	"callfloor/core"
	"callfloor/models"
	"callfloor/models/api"
	"callfloor/services"
	"callfloor/services/auth"
	"callfloor/services/dispatch"
	"callfloor/services/emergency"
	"callfloor/services/presence"
	"callfloor/services/sessions"
)

type handlerMocks struct {
	auth      *auth.MockAuthService
	sessions  *sessions.MockSessionsService
	presence  *presence.MockPresenceService
	dispatch  *dispatch.MockDispatchService
	emergency *emergency.MockEmergencyService
}

func newTestHandler() (*FloorHTTPHandler, *handlerMocks) {
	mocks := &handlerMocks{
		auth:      &auth.MockAuthService{},
		sessions:  &sessions.MockSessionsService{},
		presence:  &presence.MockPresenceService{},
		dispatch:  &dispatch.MockDispatchService{},
		emergency: &emergency.MockEmergencyService{},
	}
	apiHandler := NewFloorAPIHandler(mocks.auth, mocks.sessions, mocks.presence, mocks.dispatch, mocks.emergency)
	return NewFloorHTTPHandler(apiHandler), mocks
}

func newFloorAgent() *models.Agent {
	return &models.Agent{
		ID:         "agent-1",
		AdminID:    "admin-1",
		Role:       models.AgentRoleAgent,
		Status:     models.AgentStatusActive,
		CampaignID: "campaign-1",
	}
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return httptest.NewRequest(method, path, &buf)
}

func withAgent(r *http.Request, agent *models.Agent) *http.Request {
	return r.WithContext(appctx.SetAgent(r.Context(), agent))
}

func TestHandleLogin(t *testing.T) {
	agent := newFloorAgent()

	t.Run("plain agent gets token", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.auth.On("Authenticate", mock.Anything, "agent-1", "secret").
			Return(agent, false, nil)
		mocks.sessions.On("Login", mock.Anything, agent).Return("tok-123", nil)

		rec := httptest.NewRecorder()
		handler.HandleLogin(rec, jsonRequest(t, http.MethodPost, "/login", api.LoginRequest{
			AgentID: "agent-1",
			Secret:  "secret",
		}))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp api.LoginResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "tok-123", resp.Token)
		assert.False(t, resp.OTPRequired)
		mocks.auth.AssertExpectations(t)
		mocks.sessions.AssertExpectations(t)
	})

	t.Run("privileged agent gets otp challenge", func(t *testing.T) {
		handler, mocks := newTestHandler()
		admin := &models.Agent{ID: "admin-1", Role: models.AgentRoleAdmin}
		mocks.auth.On("Authenticate", mock.Anything, "admin-1", "secret").
			Return(admin, true, nil)

		rec := httptest.NewRecorder()
		handler.HandleLogin(rec, jsonRequest(t, http.MethodPost, "/login", api.LoginRequest{
			AgentID: "admin-1",
			Secret:  "secret",
		}))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp api.LoginResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.OTPRequired)
		assert.Empty(t, resp.Token)
		// No session until the code is verified
		mocks.sessions.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("bad credentials", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.auth.On("Authenticate", mock.Anything, "agent-1", "wrong").
			Return(nil, false, fmt.Errorf("invalid credentials"))

		rec := httptest.NewRecorder()
		handler.HandleLogin(rec, jsonRequest(t, http.MethodPost, "/login", api.LoginRequest{
			AgentID: "agent-1",
			Secret:  "wrong",
		}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		handler, _ := newTestHandler()

		rec := httptest.NewRecorder()
		handler.HandleLogin(rec, jsonRequest(t, http.MethodPost, "/login", api.LoginRequest{
			AgentID: "agent-1",
		}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleVerifyOTP(t *testing.T) {
	admin := &models.Agent{ID: "admin-1", Role: models.AgentRoleAdmin}

	t.Run("correct code opens session", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.auth.On("VerifyOTP", mock.Anything, "admin-1", "123456").Return(admin, nil)
		mocks.sessions.On("Login", mock.Anything, admin).Return("tok-456", nil)

		rec := httptest.NewRecorder()
		handler.HandleVerifyOTP(rec, jsonRequest(t, http.MethodPost, "/verify_otp", api.VerifyOTPRequest{
			AgentID: "admin-1",
			Code:    "123456",
		}))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp api.VerifyOTPResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "tok-456", resp.Token)
	})

	t.Run("wrong code", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.auth.On("VerifyOTP", mock.Anything, "admin-1", "000000").
			Return(nil, fmt.Errorf("verification code mismatch"))

		rec := httptest.NewRecorder()
		handler.HandleVerifyOTP(rec, jsonRequest(t, http.MethodPost, "/verify_otp", api.VerifyOTPRequest{
			AgentID: "admin-1",
			Code:    "000000",
		}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mocks.sessions.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestHandleLogout(t *testing.T) {
	agent := newFloorAgent()

	t.Run("success", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.sessions.On("Logout", mock.Anything, "agent-1").Return(nil)

		rec := httptest.NewRecorder()
		handler.HandleLogout(rec, withAgent(jsonRequest(t, http.MethodPost, "/logout", nil), agent))

		assert.Equal(t, http.StatusOK, rec.Code)
		mocks.sessions.AssertExpectations(t)
	})

	t.Run("no agent in context", func(t *testing.T) {
		handler, _ := newTestHandler()

		rec := httptest.NewRecorder()
		handler.HandleLogout(rec, jsonRequest(t, http.MethodPost, "/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleBreakTime(t *testing.T) {
	agent := newFloorAgent()

	t.Run("break state updated", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.presence.On("SetState", mock.Anything, "agent-1", "Lunch").Return(nil)

		rec := httptest.NewRecorder()
		handler.HandleBreakTime(rec, withAgent(jsonRequest(t, http.MethodPost, "/break_time", api.BreakTimeRequest{
			BreakType: "Lunch",
		}), agent))

		assert.Equal(t, http.StatusOK, rec.Code)
		mocks.presence.AssertExpectations(t)
	})

	t.Run("missing breakType", func(t *testing.T) {
		handler, _ := newTestHandler()

		rec := httptest.NewRecorder()
		handler.HandleBreakTime(rec, withAgent(jsonRequest(t, http.MethodPost, "/break_time", api.BreakTimeRequest{}), agent))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleGetAgentStatus(t *testing.T) {
	agent := newFloorAgent()

	t.Run("current state reported", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.presence.On("GetState", mock.Anything, "agent-1").
			Return(mo.Some(&models.AgentState{
				AgentID:   "agent-1",
				StateName: "Tea",
				StartedAt: time.Now(),
				Status:    models.PresenceStatusBreak,
			}), nil)

		rec := httptest.NewRecorder()
		handler.HandleGetAgentStatus(rec, withAgent(jsonRequest(t, http.MethodGet, "/get_agent_status", nil), agent))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp api.AgentStatusResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Tea", resp.BreakType)
	})

	t.Run("not on the floor", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.presence.On("GetState", mock.Anything, "agent-1").
			Return(mo.None[*models.AgentState](), nil)

		rec := httptest.NewRecorder()
		handler.HandleGetAgentStatus(rec, withAgent(jsonRequest(t, http.MethodGet, "/get_agent_status", nil), agent))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleAgentWrapup(t *testing.T) {
	agent := newFloorAgent()

	handler, mocks := newTestHandler()
	mocks.dispatch.On("SetWrapup", mock.Anything, "agent-1", true).Return(nil)

	rec := httptest.NewRecorder()
	handler.HandleAgentWrapup(rec, withAgent(jsonRequest(t, http.MethodPost, "/agent-wrapup", api.WrapupRequest{
		Wrapup: true,
	}), agent))

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.dispatch.AssertExpectations(t)
}

func TestHandleAgentWrapupStatus(t *testing.T) {
	agent := newFloorAgent()
	until := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	handler, mocks := newTestHandler()
	mocks.dispatch.On("WrapupStatus", mock.Anything, "agent-1").
		Return(&services.WrapupStatus{Status: "wrapup", WaitUntil: &until}, nil)

	rec := httptest.NewRecorder()
	handler.HandleAgentWrapupStatus(rec, withAgent(jsonRequest(t, http.MethodGet, "/agent-wrapup-status", nil), agent))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp api.WrapupStatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "wrapup", resp.Status)
	assert.Equal(t, "2026-08-30T12:00:00Z", resp.WaitUntil)
}

func TestHandleAutodial(t *testing.T) {
	agent := newFloorAgent()

	t.Run("lead claimed", func(t *testing.T) {
		handler, mocks := newTestHandler()
		username := agent.ID
		mocks.dispatch.On("NextLead", mock.Anything, agent).
			Return(&models.DispatchResult{
				Outcome: models.DispatchOutcomeLead,
				Lead: &models.Lead{
					ID:         42,
					AdminID:    "admin-1",
					CampaignID: "campaign-1",
					Username:   &username,
					FirstName:  "Ada",
					LastName:   "Lovelace",
					Phone:      "+15550142",
					Email:      "ada@example.com",
					DialStatus: models.DialStatusDialing,
				},
			}, nil)

		rec := httptest.NewRecorder()
		handler.HandleAutodial(rec, withAgent(jsonRequest(t, http.MethodPost, "/ap/autodial", nil), agent))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp api.AutodialResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "lead", resp.Status)
		require.NotNil(t, resp.Lead)
		assert.Equal(t, int64(42), resp.Lead.ID)
		assert.Equal(t, "Ada", resp.Lead.FirstName)
		assert.Equal(t, "+15550142", resp.Lead.Phone)
	})

	t.Run("wrapup outcome has no lead", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.dispatch.On("NextLead", mock.Anything, agent).
			Return(&models.DispatchResult{Outcome: models.DispatchOutcomeWrapup}, nil)

		rec := httptest.NewRecorder()
		handler.HandleAutodial(rec, withAgent(jsonRequest(t, http.MethodPost, "/ap/autodial", nil), agent))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp api.AutodialResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "wrapup", resp.Status)
		assert.Nil(t, resp.Lead)
	})

	t.Run("dispatch failure", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.dispatch.On("NextLead", mock.Anything, agent).
			Return(nil, fmt.Errorf("db down"))

		rec := httptest.NewRecorder()
		handler.HandleAutodial(rec, withAgent(jsonRequest(t, http.MethodPost, "/ap/autodial", nil), agent))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleAdminLogoutUser(t *testing.T) {
	admin := &models.Agent{ID: "admin-1", Role: models.AgentRoleAdmin}

	t.Run("success", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.emergency.On("ForceLogout", mock.Anything, "admin-1", "agent-1").Return(nil)

		rec := httptest.NewRecorder()
		handler.HandleAdminLogoutUser(rec, withAgent(jsonRequest(t, http.MethodPost, "/adminLogoutUser", api.AdminLogoutRequest{
			AgentID: "agent-1",
		}), admin))

		assert.Equal(t, http.StatusOK, rec.Code)
		mocks.emergency.AssertExpectations(t)
	})

	t.Run("unauthorized initiator", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.emergency.On("ForceLogout", mock.Anything, "admin-1", "agent-2").
			Return(fmt.Errorf("agent admin-1 is %w to log out agent agent-2", core.ErrNotAuthorized))

		rec := httptest.NewRecorder()
		handler.HandleAdminLogoutUser(rec, withAgent(jsonRequest(t, http.MethodPost, "/adminLogoutUser", api.AdminLogoutRequest{
			AgentID: "agent-2",
		}), admin))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown target", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.emergency.On("ForceLogout", mock.Anything, "admin-1", "ghost").
			Return(fmt.Errorf("target agent ghost: %w", core.ErrNotFound))

		rec := httptest.NewRecorder()
		handler.HandleAdminLogoutUser(rec, withAgent(jsonRequest(t, http.MethodPost, "/adminLogoutUser", api.AdminLogoutRequest{
			AgentID: "ghost",
		}), admin))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleLogoutAllAgents(t *testing.T) {
	admin := &models.Agent{ID: "admin-1", Role: models.AgentRoleAdmin}

	handler, mocks := newTestHandler()
	mocks.emergency.On("ForceLogoutAll", mock.Anything, "admin-1").Return(3, nil)

	rec := httptest.NewRecorder()
	handler.HandleLogoutAllAgents(rec, withAgent(jsonRequest(t, http.MethodPost, "/logoutAllAgents", nil), admin))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(3), resp["sessions_closed"])
}

func TestHandleEmergencyReset(t *testing.T) {
	superadmin := &models.Agent{ID: "root", Role: models.AgentRoleSuperadmin}

	t.Run("success", func(t *testing.T) {
		handler, mocks := newTestHandler()
		mocks.emergency.On("EmergencyReset", mock.Anything, "root").Return(nil)

		rec := httptest.NewRecorder()
		handler.HandleEmergencyReset(rec, withAgent(jsonRequest(t, http.MethodPost, "/emergencyReset", nil), superadmin))

		assert.Equal(t, http.StatusOK, rec.Code)
		mocks.emergency.AssertExpectations(t)
	})

	t.Run("non-superadmin rejected", func(t *testing.T) {
		admin := &models.Agent{ID: "admin-1", Role: models.AgentRoleAdmin}
		handler, mocks := newTestHandler()
		mocks.emergency.On("EmergencyReset", mock.Anything, "admin-1").
			Return(fmt.Errorf("agent admin-1 is %w to reset the floor", core.ErrNotAuthorized))

		rec := httptest.NewRecorder()
		handler.HandleEmergencyReset(rec, withAgent(jsonRequest(t, http.MethodPost, "/emergencyReset", nil), admin))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
