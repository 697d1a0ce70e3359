package domain

import "time"

// Session tracks per-(tenant,user,session) state across requests. The
// orchestrator creates a Session on first turn and persists it to the
// indexed memory service for cross-session search.
type Session struct {
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Soul is the persona/policy document upserted via PUT /agent/souls/{tenant_id}.
type Soul struct {
	TenantID  string         `json:"tenant_id"`
	Persona   string         `json:"persona,omitempty"`
	Policies  map[string]any `json:"policies,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}
