package onboarding

import (
	"strings"

	"github.com/shiftstory/shiftstory/internal/catalog"
)

// FlowDecision is the outcome of choosing a flow for a role-entry attempt.
// SkipTo is set only for the abbreviated flow and names the step the engine
// should jump to once prefill has run.
type FlowDecision struct {
	Kind   FlowKind
	SkipTo Step
}

// DecideFlow picks the flow for a new role given the previously completed
// role. The abbreviated flow applies only when both roles resolve to the
// same family; any unresolvable role falls back to the full flow. The
// decision is made once per role-entry attempt, never per step.
func DecideFlow(registry *catalog.Registry, previousRoleID, nextRoleID string) FlowDecision {
	previousRoleID = strings.TrimSpace(previousRoleID)
	nextRoleID = strings.TrimSpace(nextRoleID)
	if previousRoleID == "" || nextRoleID == "" {
		return FlowDecision{Kind: FlowFull}
	}
	previousFamily, ok := registry.Family(previousRoleID)
	if !ok {
		return FlowDecision{Kind: FlowFull}
	}
	nextFamily, ok := registry.Family(nextRoleID)
	if !ok {
		return FlowDecision{Kind: FlowFull}
	}
	if previousFamily != nextFamily {
		return FlowDecision{Kind: FlowFull}
	}
	return FlowDecision{Kind: FlowShort, SkipTo: StepOrg}
}
