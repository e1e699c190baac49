package onboarding

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shiftstory/shiftstory/internal/catalog"
	"github.com/shiftstory/shiftstory/internal/platform/timeouts"
)

// Engine drives the onboarding wizard for one session.
//
// One Engine exists per active onboarding session and is destroyed on
// completion; there is no ambient shared state. The Engine is not
// goroutine-safe: callers serialize operations so mutations and
// transitions apply in the order they were issued.
type Engine struct {
	registry *catalog.Registry
	drafts   DraftStore
	gateway  Gateway
	userID   string
	logf     func(format string, args ...any)
	now      func() time.Time

	step           Step
	kind           FlowKind
	signals        Signals
	previousRoleID string
}

// Options configures a new Engine.
type Options struct {
	// Registry resolves roles and content packs. Required.
	Registry *catalog.Registry
	// Drafts persists progress snapshots. Optional; without it progress
	// operations are no-ops.
	Drafts DraftStore
	// Gateway receives draft saves and the terminal finalize. Optional
	// for draft saves; Finalize fails with ErrBackendUnavailable when nil.
	Gateway Gateway
	// UserID identifies the signed-in user for best-effort draft saves.
	UserID string
	// Logf receives diagnostics such as guard rejections. Defaults to
	// log.Printf.
	Logf func(format string, args ...any)
	// Now overrides the clock for tests.
	Now func() time.Time
}

// InitRequest seeds engine state when a session starts or resumes.
type InitRequest struct {
	// Step is the requested entry step, typically from a deep link.
	Step Step
	// RoleID seeds the role directly, bypassing guard re-evaluation for
	// that one assignment.
	RoleID string
	// PreviousRoleID is the most recently completed role, used for the
	// same-family flow decision.
	PreviousRoleID string
	// Fresh discards any persisted draft before loading.
	Fresh bool
}

// New returns an Engine positioned at the role picker with empty signals.
func New(opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		registry: opts.Registry,
		drafts:   opts.Drafts,
		gateway:  opts.Gateway,
		userID:   strings.TrimSpace(opts.UserID),
		logf:     logf,
		now:      now,
		step:     StepRoleSelect,
		kind:     FlowFull,
		signals:  NewSignals(),
	}, nil
}

// Initialize applies a start request: fresh handling, draft restore, role
// seeding, the flow decision, same-family prefill, and the self-healing
// invariant, in that order.
func (e *Engine) Initialize(ctx context.Context, req InitRequest) {
	if req.Fresh && e.drafts != nil {
		e.drafts.Clear(ctx)
	}

	e.step = StepRoleSelect
	e.signals = NewSignals()
	if !req.Fresh && e.drafts != nil {
		if draft, ok := e.drafts.Load(ctx); ok {
			e.step = draft.Step
			e.signals = draft.Signals.Clone()
		}
	}

	// Read the signals cache before mutating signals for the new role so
	// prefill data cannot be lost to a read-after-write hazard.
	var lastSignals Signals
	hasLast := false
	if e.drafts != nil {
		lastSignals, hasLast = e.drafts.LastSignals(ctx)
	}

	roleID := strings.TrimSpace(req.RoleID)
	if roleID != "" {
		e.signals.RoleID = roleID
		if family, ok := e.registry.Family(roleID); ok {
			e.signals.RoleFamily = family.Label()
		}
	}

	e.previousRoleID = strings.TrimSpace(req.PreviousRoleID)
	decision := DecideFlow(e.registry, e.previousRoleID, e.signals.RoleID)
	e.kind = decision.Kind

	if requested := req.Step; requested != StepUnspecified {
		if e.Guard(requested, e.signals) {
			e.step = requested
		} else {
			e.logf("onboarding: guard rejected initial step %s", requested.Label())
		}
	}

	if decision.Kind == FlowShort && decision.SkipTo != StepUnspecified {
		if len(e.signals.ShineKeys) == 0 && hasLast {
			e.signals.ShineKeys = cloneKeys(lastSignals.ShineKeys)
			e.signals.BusyKeys = cloneKeys(lastSignals.BusyKeys)
			e.signals.VibeKey = lastSignals.VibeKey
		}
		if e.Guard(decision.SkipTo, e.signals) {
			e.step = decision.SkipTo
		}
	}

	// Self-heal against corrupted or partial state: no role means the
	// role picker, whatever the restored step said.
	if e.step != StepRoleSelect && e.signals.RoleID == "" {
		e.step = StepRoleSelect
	}
}

// Guard reports whether a step may be entered with the given signals.
// The role picker is always enterable; every later step requires a chosen
// role and at least one trait. The check is deliberately uniform rather
// than per-step.
func (e *Engine) Guard(step Step, signals Signals) bool {
	if step == StepRoleSelect {
		return true
	}
	return signals.RoleID != "" && len(signals.ShineKeys) > 0
}

// NextStep returns the step after current in the flow's sequence, if the
// guard admits it. The same-family skip can land on a step outside the
// short sequence, so an off-sequence step rejoins at the next step the
// flow contains, following the full ordering.
func (e *Engine) NextStep(kind FlowKind, current Step, signals Signals) (Step, bool) {
	sequence := Sequence(kind)
	if i := stepIndex(sequence, current); i >= 0 {
		if i == len(sequence)-1 {
			return StepUnspecified, false
		}
		next := sequence[i+1]
		if !e.Guard(next, signals) {
			return StepUnspecified, false
		}
		return next, true
	}

	full := Sequence(FlowFull)
	fi := stepIndex(full, current)
	if fi < 0 {
		return StepUnspecified, false
	}
	for _, step := range full[fi+1:] {
		if stepIndex(sequence, step) < 0 {
			continue
		}
		if !e.Guard(step, signals) {
			return StepUnspecified, false
		}
		return step, true
	}
	return StepUnspecified, false
}

// PrevStep returns the step before current in the flow's sequence.
// Backward navigation is always permitted, so there is no guard check.
// Off-sequence steps rejoin backwards through the full ordering.
func (e *Engine) PrevStep(kind FlowKind, current Step) (Step, bool) {
	sequence := Sequence(kind)
	if i := stepIndex(sequence, current); i >= 0 {
		if i == 0 {
			return StepUnspecified, false
		}
		return sequence[i-1], true
	}

	full := Sequence(FlowFull)
	fi := stepIndex(full, current)
	if fi < 0 {
		return StepUnspecified, false
	}
	for i := fi - 1; i >= 0; i-- {
		if stepIndex(sequence, full[i]) >= 0 {
			return full[i], true
		}
	}
	return StepUnspecified, false
}

func stepIndex(sequence []Step, step Step) int {
	for i, candidate := range sequence {
		if candidate == step {
			return i
		}
	}
	return -1
}

// GoNext advances one step. Guard rejections keep the engine in place and
// are logged, never surfaced as errors. Leaving the role picker triggers a
// best-effort remote draft save.
func (e *Engine) GoNext(ctx context.Context) {
	if e.step == StepRoleSelect && e.signals.RoleID == "" {
		return
	}
	next, ok := e.NextStep(e.kind, e.step, e.signals)
	if !ok {
		e.logf("onboarding: guard rejected advance from %s", e.step.Label())
		return
	}
	leavingRolePicker := e.step == StepRoleSelect
	e.step = next
	if leavingRolePicker {
		e.saveRemoteDraft()
	}
}

// GoPrev steps backward within the flow's sequence.
func (e *Engine) GoPrev(ctx context.Context) {
	prev, ok := e.PrevStep(e.kind, e.step)
	if !ok {
		return
	}
	e.step = prev
}

// GoTo jumps directly to a step when its guard admits the current signals.
func (e *Engine) GoTo(step Step) {
	if step == StepUnspecified {
		return
	}
	if !e.Guard(step, e.signals) {
		e.logf("onboarding: guard rejected jump to %s", step.Label())
		return
	}
	e.step = step
}

// UpdateSignals shallow-merges a patch into the current signals. A role
// change re-resolves the family from the registry.
func (e *Engine) UpdateSignals(patch SignalsPatch) {
	e.signals = e.signals.Merge(patch)
	if patch.RoleID != nil {
		if family, ok := e.registry.Family(e.signals.RoleID); ok {
			e.signals.RoleFamily = family.Label()
		}
	}
}

// SaveProgress snapshots the current step and signals to the draft store.
// Failures are logged only; progress saves never block navigation.
func (e *Engine) SaveProgress(ctx context.Context) {
	if e.drafts == nil {
		return
	}
	draft := Draft{
		Step:    e.step,
		Signals: e.signals.Clone(),
		SavedAt: e.now().UTC(),
	}
	if err := e.drafts.Save(ctx, draft); err != nil {
		e.logf("onboarding: save progress: %v", err)
	}
}

// LoadProgress restores the persisted draft, if one survives the store's
// version and decode checks, then re-applies the self-healing invariant.
func (e *Engine) LoadProgress(ctx context.Context) {
	if e.drafts == nil {
		return
	}
	draft, ok := e.drafts.Load(ctx)
	if !ok {
		return
	}
	e.step = draft.Step
	e.signals = draft.Signals.Clone()
	if e.step != StepRoleSelect && e.signals.RoleID == "" {
		e.step = StepRoleSelect
	}
}

// ClearProgress removes the persisted draft and its signals cache.
func (e *Engine) ClearProgress(ctx context.Context) {
	if e.drafts == nil {
		return
	}
	e.drafts.Clear(ctx)
}

// Finalize hands the completed signals to the persistence gateway. On
// success the draft is cleared and the engine resets to its initial
// state; on failure the engine stays on the preview step and the draft
// is preserved for retry.
func (e *Engine) Finalize(ctx context.Context, userID string) (string, error) {
	if e.gateway == nil {
		return "", ErrBackendUnavailable
	}
	roleID, err := e.gateway.Finalize(ctx, strings.TrimSpace(userID), e.signals.Clone())
	if err != nil {
		return "", err
	}
	if e.drafts != nil {
		e.drafts.Clear(ctx)
	}
	e.step = StepRoleSelect
	e.kind = FlowFull
	e.signals = NewSignals()
	e.previousRoleID = ""
	return roleID, nil
}

// Step returns the current step.
func (e *Engine) Step() Step { return e.step }

// Kind returns the flow kind decided for this role-entry attempt.
func (e *Engine) Kind() FlowKind { return e.kind }

// Signals returns a copy of the current signals.
func (e *Engine) Signals() Signals { return e.signals.Clone() }

// saveRemoteDraft fires the best-effort gateway draft save after role
// selection. It never blocks the caller; errors are logged only.
func (e *Engine) saveRemoteDraft() {
	if e.gateway == nil || e.userID == "" {
		return
	}
	gateway := e.gateway
	userID := e.userID
	signals := e.signals.Clone()
	logf := e.logf
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.DraftSave)
		defer cancel()
		if err := gateway.SaveDraft(ctx, userID, signals); err != nil {
			logf("onboarding: remote draft save: %v", err)
		}
	}()
}
