package onboarding

import (
	"testing"

	"github.com/shiftstory/shiftstory/internal/catalog"
)

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	registry, err := catalog.Load()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return registry
}

func TestDecideFlow(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t)
	cases := []struct {
		name       string
		previous   string
		next       string
		wantKind   FlowKind
		wantSkipTo Step
	}{
		{"no previous role", "", "bartender-craft", FlowFull, StepUnspecified},
		{"no next role", "bartender-craft", "", FlowFull, StepUnspecified},
		{"same family", "bartender-craft", "bartender-sports-bar", FlowShort, StepOrg},
		{"same role", "bartender-craft", "bartender-craft", FlowShort, StepOrg},
		{"different family", "bartender-craft", "server-fine-dining", FlowFull, StepUnspecified},
		{"unknown previous", "mystery-role", "bartender-craft", FlowFull, StepUnspecified},
		{"unknown next", "bartender-craft", "mystery-role", FlowFull, StepUnspecified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			decision := DecideFlow(registry, tc.previous, tc.next)
			if decision.Kind != tc.wantKind {
				t.Fatalf("kind = %s, want %s", decision.Kind.Label(), tc.wantKind.Label())
			}
			if decision.SkipTo != tc.wantSkipTo {
				t.Fatalf("skip to = %s, want %s", decision.SkipTo.Label(), tc.wantSkipTo.Label())
			}
		})
	}
}

func TestDecideFlowTrimsInput(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t)
	decision := DecideFlow(registry, "  bartender-craft ", " bartender-sports-bar ")
	if decision.Kind != FlowShort {
		t.Fatalf("kind = %s, want SHORT", decision.Kind.Label())
	}
}
