package gpio

import "sync"

// Write is a single recorded actuator write.
type Write struct {
	Channel Channel
	Value   int
	Analog  bool
}

// FakeActuator is a test double that records writes and tracks channel levels.
// It is safe for concurrent use.
type FakeActuator struct {
	mu sync.Mutex

	// writes contains every successful write in order.
	writes []Write

	// levels holds the last value written per channel.
	levels map[Channel]int

	// unsafe counts writes after which a heater stage was on with the fan off.
	unsafe int

	// WriteError, if set, will be returned by every write.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeActuator creates a FakeActuator with every channel at 0.
func NewFakeActuator() *FakeActuator {
	return &FakeActuator{levels: make(map[Channel]int)}
}

// WriteDigital records a digital write.
func (f *FakeActuator) WriteDigital(ch Channel, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteError != nil {
		return f.WriteError
	}
	if _, ok := DefaultPins().Offset(ch); !ok {
		return ErrUnknownChannel
	}
	v := 0
	if on {
		v = 1
	}
	f.record(Write{Channel: ch, Value: v})
	return nil
}

// WriteAnalog records an analog write.
func (f *FakeActuator) WriteAnalog(ch Channel, value uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteError != nil {
		return f.WriteError
	}
	if ch != ChannelLight {
		return ErrUnknownChannel
	}
	f.record(Write{Channel: ch, Value: int(value), Analog: true})
	return nil
}

func (f *FakeActuator) record(w Write) {
	f.writes = append(f.writes, w)
	f.levels[w.Channel] = w.Value
	if f.levels[ChannelFan] == 0 && (f.levels[ChannelHeaterLow] != 0 || f.levels[ChannelHeaterHigh] != 0) {
		f.unsafe++
	}
}

// Close marks the actuator as closed.
func (f *FakeActuator) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Writes returns a copy of the recorded writes.
func (f *FakeActuator) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// Level returns the last value written to ch.
func (f *FakeActuator) Level(ch Channel) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[ch]
}

// UnsafeWrites returns how many writes left a heater stage on without the fan.
func (f *FakeActuator) UnsafeWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsafe
}

// Reset clears recorded writes and levels.
func (f *FakeActuator) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
	f.levels = make(map[Channel]int)
	f.unsafe = 0
	f.WriteError = nil
	f.Closed = false
}
