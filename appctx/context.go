package appctx

import (
	"context"

	"callfloor/models"
)

// Context key for storing the authenticated agent
type contextKey string

const AgentContextKey contextKey = "agent"

// SetAgent adds the authenticated agent to the request context
func SetAgent(ctx context.Context, agent *models.Agent) context.Context {
	return context.WithValue(ctx, AgentContextKey, agent)
}

// GetAgent extracts the authenticated agent from the request context
func GetAgent(ctx context.Context) (*models.Agent, bool) {
	agent, ok := ctx.Value(AgentContextKey).(*models.Agent)
	return agent, ok
}
