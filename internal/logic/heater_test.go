package logic

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// step runs Decide+Apply once and returns the transition taken.
func step(t *testing.T, s *HeaterState, now time.Time) Transition {
	t.Helper()
	tr, ok := Decide(*s, now)
	if !ok {
		t.Fatalf("no rule for current=%s requested=%s", s.Current, s.Requested)
	}
	s.Apply(tr, now, DefaultTimings())
	return tr
}

func TestParseHeaterMode(t *testing.T) {
	tests := []struct {
		in      string
		want    HeaterMode
		wantErr bool
	}{
		{"OFF", ModeOff, false},
		{"LOW", ModeLow, false},
		{"HIGH", ModeHigh, false},
		{" HIGH\n", ModeHigh, false},
		{"high", "", true},
		{"TO_LOW", "", true},
		{"TO_OFF", "", true},
		{"", "", true},
		{"MEDIUM", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHeaterMode(tt.in)
			if tt.wantErr {
				if err != ErrUnknownMode {
					t.Errorf("err: got %v, want ErrUnknownMode", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("mode: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestModeClassification(t *testing.T) {
	for _, m := range AllModes {
		if m.Settled() == m.Transitional() {
			t.Errorf("%s: settled=%v transitional=%v", m, m.Settled(), m.Transitional())
		}
		if !m.Target().Settled() {
			t.Errorf("%s: target %s is not settled", m, m.Target())
		}
	}
}

func TestPatternFor(t *testing.T) {
	tests := []struct {
		mode HeaterMode
		want Pattern
	}{
		{ModeOff, Pattern{Fan: false, Low: false, High: false}},
		{ModeToOff, Pattern{Fan: true, Low: false, High: false}},
		{ModeToLow, Pattern{Fan: true, Low: false, High: false}},
		{ModeToHigh, Pattern{Fan: true, Low: false, High: false}},
		{ModeLow, Pattern{Fan: true, Low: false, High: true}},
		{ModeHigh, Pattern{Fan: true, Low: true, High: true}},
	}

	for _, tt := range tests {
		got := PatternFor(tt.mode)
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.mode, got, tt.want)
		}
		if !got.Safe() {
			t.Errorf("%s: pattern energizes a stage without fan", tt.mode)
		}
	}
}

func TestPatternSafe(t *testing.T) {
	if (Pattern{Low: true}).Safe() {
		t.Error("low stage without fan reported safe")
	}
	if (Pattern{High: true}).Safe() {
		t.Error("high stage without fan reported safe")
	}
	if !(Pattern{}).Safe() {
		t.Error("all-off pattern reported unsafe")
	}
}

// TestTransitionTableExhaustive checks every (current, requested) pair where
// requested is a settled mode has a rule.
func TestTransitionTableExhaustive(t *testing.T) {
	for _, cur := range AllModes {
		for _, req := range []HeaterMode{ModeOff, ModeLow, ModeHigh} {
			s := HeaterState{Current: cur, Requested: req, Deadline: t0.Add(time.Hour)}
			if _, ok := Decide(s, t0); !ok {
				t.Errorf("no rule for current=%s requested=%s", cur, req)
			}
		}
	}
}

func TestDecideRules(t *testing.T) {
	future := t0.Add(time.Second)
	past := t0.Add(-time.Second)

	tests := []struct {
		name      string
		current   HeaterMode
		requested HeaterMode
		deadline  time.Time
		wantNext  HeaterMode
		wantIdle  bool
		wantHold  Hold
	}{
		// Expired timers settle regardless of the request.
		{"expired TO_OFF", ModeToOff, ModeHigh, past, ModeOff, false, HoldNone},
		{"expired TO_LOW", ModeToLow, ModeOff, past, ModeLow, false, HoldNone},
		{"expired TO_HIGH", ModeToHigh, ModeLow, past, ModeHigh, false, HoldNone},
		{"deadline exactly now", ModeToHigh, ModeHigh, t0, ModeHigh, false, HoldNone},

		// Converged or converging.
		{"OFF idle", ModeOff, ModeOff, future, ModeOff, true, HoldNone},
		{"TO_OFF idle", ModeToOff, ModeOff, future, ModeToOff, true, HoldNone},
		{"LOW idle", ModeLow, ModeLow, future, ModeLow, true, HoldNone},
		{"TO_LOW idle", ModeToLow, ModeLow, future, ModeToLow, true, HoldNone},
		{"HIGH idle", ModeHigh, ModeHigh, future, ModeHigh, true, HoldNone},
		{"TO_HIGH idle", ModeToHigh, ModeHigh, future, ModeToHigh, true, HoldNone},

		// Direct.
		{"TO_LOW to OFF", ModeToLow, ModeOff, future, ModeOff, false, HoldNone},
		{"TO_HIGH to OFF", ModeToHigh, ModeOff, future, ModeOff, false, HoldNone},
		{"HIGH to LOW", ModeHigh, ModeLow, future, ModeLow, false, HoldNone},
		{"TO_OFF to LOW", ModeToOff, ModeLow, future, ModeLow, false, HoldNone},
		{"LOW to HIGH", ModeLow, ModeHigh, future, ModeHigh, false, HoldNone},
		{"TO_OFF to HIGH", ModeToOff, ModeHigh, future, ModeHigh, false, HoldNone},

		// Guarded.
		{"LOW cooldown", ModeLow, ModeOff, future, ModeToOff, false, HoldCooldown},
		{"HIGH cooldown", ModeHigh, ModeOff, future, ModeToOff, false, HoldCooldown},
		{"OFF pre-roll LOW", ModeOff, ModeLow, future, ModeToLow, false, HoldPreRoll},
		{"OFF pre-roll HIGH", ModeOff, ModeHigh, future, ModeToHigh, false, HoldPreRoll},
		{"TO_HIGH restarts to LOW", ModeToHigh, ModeLow, future, ModeToLow, false, HoldPreRoll},
		{"TO_LOW restarts to HIGH", ModeToLow, ModeHigh, future, ModeToHigh, false, HoldPreRoll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := HeaterState{Current: tt.current, Requested: tt.requested, Deadline: tt.deadline}
			got, ok := Decide(s, t0)
			if !ok {
				t.Fatal("no rule")
			}
			if got.Next != tt.wantNext {
				t.Errorf("Next: got %s, want %s", got.Next, tt.wantNext)
			}
			if got.Idle != tt.wantIdle {
				t.Errorf("Idle: got %v, want %v", got.Idle, tt.wantIdle)
			}
			if got.Hold != tt.wantHold {
				t.Errorf("Hold: got %v, want %v", got.Hold, tt.wantHold)
			}
			if !got.Idle && got.Pattern != PatternFor(got.Next) {
				t.Errorf("Pattern: got %+v, want %+v", got.Pattern, PatternFor(got.Next))
			}
		})
	}
}

func TestDecideUnknownRequest(t *testing.T) {
	s := HeaterState{Current: ModeLow, Requested: HeaterMode("MEDIUM")}
	if _, ok := Decide(s, t0); ok {
		t.Error("expected no rule for unknown requested mode")
	}
}

func TestOffToHighPreRoll(t *testing.T) {
	s := NewHeaterState()
	s.Requested = ModeHigh

	step(t, &s, t0)
	if s.Current != ModeToHigh {
		t.Fatalf("after first step: got %s, want TO_HIGH", s.Current)
	}
	if want := t0.Add(3 * time.Second); !s.Deadline.Equal(want) {
		t.Errorf("deadline: got %v, want %v", s.Deadline, want)
	}

	// Still pre-rolling just before the deadline.
	for _, dt := range []time.Duration{100 * time.Millisecond, time.Second, 2999 * time.Millisecond} {
		tr := step(t, &s, t0.Add(dt))
		if !tr.Idle || s.Current != ModeToHigh {
			t.Fatalf("at +%v: got %s idle=%v, want TO_HIGH idle", dt, s.Current, tr.Idle)
		}
	}

	step(t, &s, t0.Add(3*time.Second))
	if s.Current != ModeHigh {
		t.Errorf("after pre-roll: got %s, want HIGH", s.Current)
	}
}

func TestHighToOffCooldown(t *testing.T) {
	s := HeaterState{Current: ModeHigh, Requested: ModeOff}

	step(t, &s, t0)
	if s.Current != ModeToOff {
		t.Fatalf("got %s, want TO_OFF", s.Current)
	}

	step(t, &s, t0.Add(9999*time.Millisecond))
	if s.Current != ModeToOff {
		t.Fatalf("before cooldown: got %s, want TO_OFF", s.Current)
	}

	step(t, &s, t0.Add(10*time.Second))
	if s.Current != ModeOff {
		t.Errorf("after cooldown: got %s, want OFF", s.Current)
	}
}

func TestCustomTimings(t *testing.T) {
	s := HeaterState{Current: ModeOff, Requested: ModeLow}
	tr, _ := Decide(s, t0)
	s.Apply(tr, t0, Timings{PreRoll: 7 * time.Second, Cooldown: time.Minute})
	if want := t0.Add(7 * time.Second); !s.Deadline.Equal(want) {
		t.Errorf("deadline: got %v, want %v", s.Deadline, want)
	}
}

func TestApplyReportsChange(t *testing.T) {
	s := HeaterState{Current: ModeLow, Requested: ModeLow}
	if s.Apply(idle(ModeLow), t0, DefaultTimings()) {
		t.Error("idle transition reported a change")
	}
	if !s.Apply(direct(ModeHigh), t0, DefaultTimings()) {
		t.Error("LOW->HIGH not reported as a change")
	}
}
