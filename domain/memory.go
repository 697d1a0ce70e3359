package domain

import (
	"strings"
	"time"
)

// MemoryScope enumerates the two memory lifetimes.
type MemoryScope string

const (
	ScopeSession MemoryScope = "session"
	ScopeUser    MemoryScope = "user"
)

// Type labels accepted in a ReturnSpec.Shape or MemoryRecord.ReturnSpecShape.
const (
	TypeLabelString  = "string"
	TypeLabelInt     = "int"
	TypeLabelInteger = "integer"
	TypeLabelFloat   = "float"
	TypeLabelNumber  = "number"
	TypeLabelBool    = "bool"
	TypeLabelBoolean = "boolean"
	TypeLabelArray   = "array" // "array*" matches any string with this prefix
	TypeLabelObject  = "object"
	TypeLabelDict    = "dict"
	TypeLabelMap     = "map"
)

// MemoryRecord is a single stored memory entry. NamespacedKey is
// always derived by the store, never supplied directly by callers.
type MemoryRecord struct {
	NamespacedKey   string         `json:"namespaced_key"`
	TenantID        string         `json:"tenant_id"`
	SessionID       string         `json:"session_id"`
	TaskID          string         `json:"task_id"`
	Scope           MemoryScope    `json:"scope"`
	Label           string         `json:"key"`
	Value           map[string]any `json:"value"`
	ReturnSpecShape map[string]string `json:"return_spec_shape,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Embedding       []float64      `json:"embedding,omitempty"`
}

// NamespacedKey builds the canonical "{tenant}:{session}:{task}:{label}"
// address. The caller-supplied label must not contain ':'
// — ValidateLabel enforces this before NamespacedKey is ever called.
func NamespacedKey(tenantID, sessionID, taskID, label string) string {
	return strings.Join([]string{tenantID, sessionID, taskID, label}, ":")
}

// ValidateLabel rejects labels containing ':'.
func ValidateLabel(label string) error {
	if strings.Contains(label, ":") {
		return NewFailure(KindContractViolation, "label_contains_colon",
			"memory label must not contain ':'")
	}
	return nil
}

// Lock describes a held per-key write lock. ExpiresAt is
// the TTL deadline; OwnerTaskID identifies the task allowed to re-acquire
// without waiting.
type Lock struct {
	NamespacedKey string
	OwnerTaskID   string
	ExpiresAt     time.Time
}

// Expired reports whether the lock's TTL has elapsed as of now.
func (l Lock) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && now.After(l.ExpiresAt)
}
