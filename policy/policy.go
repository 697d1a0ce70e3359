// Package policy is the delegation policy engine: it enforces the
// ordering invariants between sub-agents (planner-before-executor,
// discover-before-load-before-execute, memory-first precheck,
// communicator gating) by vetoing tool calls and transfers in place of
// letting them execute. State-key naming and the context-carried-not-global
// shape follow the ADK callback checks this replaces.
package policy

import (
	"strings"

	"github.com/Shubhamnegi/agent-core/domain"
)

// Agent names the veto table reasons about.
const (
	Coordinator  = "coordinator"
	Memory       = "memory"
	Planner      = "planner"
	Executor     = "executor"
	Communicator = "communicator"
)

var memoryToolNames = map[string]bool{
	"write_memory":           true,
	"read_memory":            true,
	"save_user_memory":       true,
	"save_action_memory":     true,
	"search_relevant_memory": true,
}

// blocked builds a {status:"blocked", reason, ...} failure in place of
// execution, never raised as a hard error — callers return it as the
// tool/transfer result so the model can react.
func blocked(reason string, details map[string]any) *domain.Failure {
	f := domain.NewFailure(domain.KindPolicyBlocked, reason, reason)
	if details != nil {
		f = f.WithDetails(details)
	}
	return f
}

// CheckToolCall evaluates the memory-tool gating rules: memory tools are
// reserved for the memory sub-agent, and write_memory always needs a
// return_spec.
func CheckToolCall(agent, toolName string, args map[string]any) *domain.Failure {
	if memoryToolNames[toolName] && agent != Memory {
		return blocked("memory_tools_reserved_for_memory_subagent", map[string]any{"required_agent": Memory})
	}
	if toolName == "write_memory" {
		if _, ok := args["return_spec"]; !ok {
			return blocked("contract_violation: missing return_spec", nil)
		}
	}
	return nil
}

// CheckTransfer evaluates the transfer veto rules, in order, for a
// transfer_to_agent(dest) call originating in agent src.
func CheckTransfer(src, dest string, trace *domain.TraceContext) *domain.Failure {
	if dest == Memory && src != Coordinator {
		return blocked("memory_transfer_allowed_only_from_orchestrator", map[string]any{"required_agent": Coordinator})
	}
	if src == Memory && dest != Coordinator {
		return blocked("memory_subagent_must_return_to_orchestrator", map[string]any{"required_agent": Coordinator})
	}
	if dest == Communicator && src != Coordinator {
		return blocked("communicator_transfer_allowed_only_from_orchestrator", map[string]any{"required_agent": Coordinator})
	}
	if dest == Memory && !trace.AllowMemory {
		return blocked("memory_usage_disabled_by_user", nil)
	}
	if (dest == Planner || dest == Executor) && trace.RequireMemoryPrecheck && !trace.MemoryPrecheckSeen {
		return blocked("memory_precheck_required_before_execution", map[string]any{"required_agent": Memory})
	}
	if dest == Executor && trace.RequirePlannerFirst && !trace.PlannerTransferSeen {
		return blocked("planner_required_before_executor_first_turn", map[string]any{"required_agent": Planner})
	}
	if dest == Executor && trace.PlannerTransferSeen && !trace.PlannerFindCalled {
		return blocked("planner_must_discover_skills_before_executor", map[string]any{"required_tool": "find_relevant_skill"})
	}
	if dest == Executor && trace.PlannerFindCalled && !trace.PlannerLoadCalled && !trace.PlannerNoSkillsFound {
		return blocked("planner_must_load_skills_before_executor", map[string]any{"required_tool": "load_instructions"})
	}
	return nil
}

// OnTransferSucceeded applies the state updates a successful (un-vetoed)
// transfer triggers: a transfer to memory marks the precheck seen, and a
// transfer to planner marks the planner-first gate satisfied and resets
// the planner's own discovery flags for this new planning pass.
func OnTransferSucceeded(trace *domain.TraceContext, dest string) {
	if dest == Memory {
		trace.MemoryPrecheckSeen = true
	}
	if dest == Planner {
		trace.PlannerTransferSeen = true
		trace.PlannerFindCalled = false
		trace.PlannerLoadCalled = false
		trace.PlannerNoSkillsFound = false
	}
}

// OnPlannerToolCall marks the planner's discovery flags when it calls
// find_relevant_skill or load_instruction(s).
func OnPlannerToolCall(trace *domain.TraceContext, toolName string) {
	switch toolName {
	case "find_relevant_skill":
		trace.PlannerFindCalled = true
	case "load_instruction", "load_instructions":
		trace.PlannerLoadCalled = true
	}
}

var noSkillsFoundMarkers = []string{
	`"skills": []`,
	`"skill_ids": []`,
	`"matched_skills": []`,
	`"results": []`,
	"no relevant skill",
	"no skills found",
}

// OnFindRelevantSkillResponse inspects a find_relevant_skill tool
// response body for an empty-result marker and, if found, sets
// PlannerNoSkillsFound so the executor gate can be satisfied without a
// load_instructions call.
func OnFindRelevantSkillResponse(trace *domain.TraceContext, responseBody string) {
	lower := strings.ToLower(responseBody)
	for _, marker := range noSkillsFoundMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			trace.PlannerNoSkillsFound = true
			return
		}
	}
}
