package domain

// TraceContext is the request-scoped state the policy engine consults and
// updates across a single coordinator turn: which guard conditions have
// already been satisfied, and the planner's skill-discovery progress. It
// is carried explicitly through context.Context (via reqctx), never a
// package-level or goroutine-local global, the Go-idiomatic replacement
// for the original's dynamically-scoped context variable.
type TraceContext struct {
	PlanID    string
	TenantID  string
	UserID    string
	SessionID string

	AllowMemory           bool
	RequireMemoryPrecheck bool
	RequirePlannerFirst   bool

	MemoryPrecheckSeen   bool
	PlannerTransferSeen  bool
	PlannerFindCalled    bool
	PlannerLoadCalled    bool
	PlannerNoSkillsFound bool
}
