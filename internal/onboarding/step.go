package onboarding

import (
	"fmt"
	"strings"
)

// Step identifies one screen of the onboarding wizard.
type Step int

// FlowKind selects which step sequence governs navigation.
type FlowKind int

const (
	// StepUnspecified represents an invalid step value.
	StepUnspecified Step = iota
	// StepRoleSelect is the role picker and the initial step.
	StepRoleSelect
	// StepShine collects up to three trait choices.
	StepShine
	// StepScenario collects up to two scenario choices.
	StepScenario
	// StepVibe collects the single vibe choice.
	StepVibe
	// StepOrg collects the organization name.
	StepOrg
	// StepDates collects the start and end dates.
	StepDates
	// StepHighlight collects the free-text highlight.
	StepHighlight
	// StepResponsibilities collects responsibility selections.
	StepResponsibilities
	// StepPreview is the terminal review step.
	StepPreview
)

const (
	// FlowUnspecified represents an invalid flow value.
	FlowUnspecified FlowKind = iota
	// FlowFull walks every step.
	FlowFull
	// FlowShort walks the abbreviated same-family sequence.
	FlowShort
)

var fullSequence = []Step{
	StepRoleSelect,
	StepShine,
	StepScenario,
	StepVibe,
	StepOrg,
	StepDates,
	StepHighlight,
	StepResponsibilities,
	StepPreview,
}

// shortSequence is a subsequence of fullSequence: same-family reuse skips
// the scenario, org, and highlight screens. The org screen is still
// reachable through the same-family skip jump, as a detour outside this
// sequence.
var shortSequence = []Step{
	StepRoleSelect,
	StepShine,
	StepVibe,
	StepDates,
	StepResponsibilities,
	StepPreview,
}

// Label returns the stable wire label for a step.
func (s Step) Label() string {
	switch s {
	case StepRoleSelect:
		return "ROLE_SELECT"
	case StepShine:
		return "SHINE"
	case StepScenario:
		return "SCENARIO"
	case StepVibe:
		return "VIBE"
	case StepOrg:
		return "ORG"
	case StepDates:
		return "DATES"
	case StepHighlight:
		return "HIGHLIGHT"
	case StepResponsibilities:
		return "RESPONSIBILITIES"
	case StepPreview:
		return "PREVIEW"
	default:
		return "UNSPECIFIED"
	}
}

// StepFromLabel parses a string label into a Step.
// It trims whitespace and matches case-insensitively.
func StepFromLabel(value string) (Step, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StepUnspecified, fmt.Errorf("step is required")
	}
	switch strings.ToUpper(trimmed) {
	case "ROLE_SELECT":
		return StepRoleSelect, nil
	case "SHINE":
		return StepShine, nil
	case "SCENARIO":
		return StepScenario, nil
	case "VIBE":
		return StepVibe, nil
	case "ORG":
		return StepOrg, nil
	case "DATES":
		return StepDates, nil
	case "HIGHLIGHT":
		return StepHighlight, nil
	case "RESPONSIBILITIES":
		return StepResponsibilities, nil
	case "PREVIEW":
		return StepPreview, nil
	default:
		return StepUnspecified, fmt.Errorf("unknown step: %s", trimmed)
	}
}

// Label returns the stable wire label for a flow kind.
func (k FlowKind) Label() string {
	switch k {
	case FlowFull:
		return "FULL"
	case FlowShort:
		return "SHORT"
	default:
		return "UNSPECIFIED"
	}
}

// FlowKindFromLabel parses a string label into a FlowKind.
func FlowKindFromLabel(value string) (FlowKind, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return FlowUnspecified, fmt.Errorf("flow kind is required")
	}
	switch strings.ToUpper(trimmed) {
	case "FULL":
		return FlowFull, nil
	case "SHORT":
		return FlowShort, nil
	default:
		return FlowUnspecified, fmt.Errorf("unknown flow kind: %s", trimmed)
	}
}

// Sequence returns the ordered step list for a flow kind.
func Sequence(kind FlowKind) []Step {
	var steps []Step
	switch kind {
	case FlowShort:
		steps = shortSequence
	default:
		steps = fullSequence
	}
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}
