package onboarding

import "testing"

func TestSequenceLengths(t *testing.T) {
	t.Parallel()

	if got := len(Sequence(FlowFull)); got != 9 {
		t.Fatalf("full sequence length = %d, want 9", got)
	}
	if got := len(Sequence(FlowShort)); got != 6 {
		t.Fatalf("short sequence length = %d, want 6", got)
	}
}

func TestSequenceStartsAndEnds(t *testing.T) {
	t.Parallel()

	for _, kind := range []FlowKind{FlowFull, FlowShort} {
		sequence := Sequence(kind)
		if sequence[0] != StepRoleSelect {
			t.Fatalf("%s flow starts at %s, want ROLE_SELECT", kind.Label(), sequence[0].Label())
		}
		if sequence[len(sequence)-1] != StepPreview {
			t.Fatalf("%s flow ends at %s, want PREVIEW", kind.Label(), sequence[len(sequence)-1].Label())
		}
	}
}

func TestShortFlowIsSubsequenceOfFull(t *testing.T) {
	t.Parallel()

	full := Sequence(FlowFull)
	short := Sequence(FlowShort)

	fullIdx := 0
	for _, step := range short {
		found := false
		for fullIdx < len(full) {
			if full[fullIdx] == step {
				found = true
				fullIdx++
				break
			}
			fullIdx++
		}
		if !found {
			t.Fatalf("step %s breaks the subsequence property", step.Label())
		}
	}
}

func TestSequenceReturnsCopy(t *testing.T) {
	t.Parallel()

	first := Sequence(FlowFull)
	first[0] = StepPreview
	second := Sequence(FlowFull)
	if second[0] != StepRoleSelect {
		t.Fatal("mutating a returned sequence leaked into shared state")
	}
}

func TestStepLabelRoundTrip(t *testing.T) {
	t.Parallel()

	for _, step := range Sequence(FlowFull) {
		parsed, err := StepFromLabel(step.Label())
		if err != nil {
			t.Fatalf("parse %s: %v", step.Label(), err)
		}
		if parsed != step {
			t.Fatalf("round trip %s = %s", step.Label(), parsed.Label())
		}
	}
}

func TestStepFromLabelRejectsUnknown(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"", "  ", "INTRO"} {
		if _, err := StepFromLabel(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestStepFromLabelNormalizes(t *testing.T) {
	t.Parallel()

	step, err := StepFromLabel("  role_select ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if step != StepRoleSelect {
		t.Fatalf("step = %s, want ROLE_SELECT", step.Label())
	}
}

func TestFlowKindFromLabel(t *testing.T) {
	t.Parallel()

	kind, err := FlowKindFromLabel("short")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if kind != FlowShort {
		t.Fatalf("kind = %s, want SHORT", kind.Label())
	}
	if _, err := FlowKindFromLabel("half"); err == nil {
		t.Fatal("expected error for unknown flow kind")
	}
}
