package logic

import "time"

// Transition is the outcome of one heater reconciliation step.
type Transition struct {
	// Next is the mode to commit. Equal to the current mode when Idle.
	Next HeaterMode
	// Pattern is applied to the actuators before Next is committed.
	Pattern Pattern
	// Hold starts a guard timer when Next is transitional.
	Hold Hold
	// Idle means nothing to do this step.
	Idle bool
}

type modePair struct {
	current   HeaterMode
	requested HeaterMode
}

func idle(m HeaterMode) Transition {
	return Transition{Next: m, Pattern: PatternFor(m), Idle: true}
}

func direct(m HeaterMode) Transition {
	return Transition{Next: m, Pattern: PatternFor(m)}
}

func guarded(m HeaterMode, h Hold) Transition {
	return Transition{Next: m, Pattern: PatternTransition, Hold: h}
}

// transitions maps (current, requested) to the step taken once no pending
// timer has expired. Every settled request has an entry for every mode.
var transitions = map[modePair]Transition{
	// Converged or converging.
	{ModeOff, ModeOff}:     idle(ModeOff),
	{ModeToOff, ModeOff}:   idle(ModeToOff),
	{ModeLow, ModeLow}:     idle(ModeLow),
	{ModeToLow, ModeLow}:   idle(ModeToLow),
	{ModeHigh, ModeHigh}:   idle(ModeHigh),
	{ModeToHigh, ModeHigh}: idle(ModeToHigh),

	// Fan already running with the stages in a safe state.
	{ModeToLow, ModeOff}:  direct(ModeOff),
	{ModeToHigh, ModeOff}: direct(ModeOff),
	{ModeHigh, ModeLow}:   direct(ModeLow),
	{ModeToOff, ModeLow}:  direct(ModeLow),
	{ModeLow, ModeHigh}:   direct(ModeHigh),
	{ModeToOff, ModeHigh}: direct(ModeHigh),

	// Fresh guard timers.
	{ModeLow, ModeOff}:    guarded(ModeToOff, HoldCooldown),
	{ModeHigh, ModeOff}:   guarded(ModeToOff, HoldCooldown),
	{ModeOff, ModeLow}:    guarded(ModeToLow, HoldPreRoll),
	{ModeToHigh, ModeLow}: guarded(ModeToLow, HoldPreRoll),
	{ModeOff, ModeHigh}:   guarded(ModeToHigh, HoldPreRoll),
	{ModeToLow, ModeHigh}: guarded(ModeToHigh, HoldPreRoll),
}

// Decide returns the heater step for the given state at time now.
// An expired guard timer always wins over the requested mode. ok is false
// when no rule covers the (current, requested) pair.
func Decide(s HeaterState, now time.Time) (t Transition, ok bool) {
	if s.Current.Transitional() && !now.Before(s.Deadline) {
		return direct(s.Current.Target()), true
	}
	t, ok = transitions[modePair{s.Current, s.Requested}]
	return t, ok
}

// Apply commits a non-idle transition to s and reports whether the current
// mode changed.
func (s *HeaterState) Apply(t Transition, now time.Time, timings Timings) bool {
	if t.Idle {
		return false
	}
	changed := s.Current != t.Next
	s.Current = t.Next
	if t.Hold != HoldNone {
		s.Deadline = now.Add(timings.Duration(t.Hold))
	}
	return changed
}
