package mqtt

// bufferedMsg is a publication held back while the broker is unreachable.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds the latest publication per topic while disconnected. Status
// topics carry state, so a newer payload replaces an older one and moves
// the topic to the back of the replay order. Not safe for concurrent use.
type outbox struct {
	capacity int
	order    []string
	latest   map[string]bufferedMsg
	overflow bool
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		capacity: capacity,
		latest:   make(map[string]bufferedMsg, capacity),
	}
}

// push stores msg. When capacity topics are already held, the topic
// updated longest ago is evicted. It returns true for the first eviction
// since the last drain.
func (o *outbox) push(msg bufferedMsg) bool {
	if _, ok := o.latest[msg.topic]; ok {
		o.remove(msg.topic)
	}

	evicted := false
	if len(o.order) == o.capacity {
		delete(o.latest, o.order[0])
		o.order = o.order[1:]
		evicted = !o.overflow
		o.overflow = true
	}

	o.order = append(o.order, msg.topic)
	o.latest[msg.topic] = msg
	return evicted
}

func (o *outbox) remove(topic string) {
	for i, t := range o.order {
		if t == topic {
			o.order = append(o.order[:i], o.order[i+1:]...)
			return
		}
	}
}

// drainAll returns the held publications oldest update first and empties
// the outbox.
func (o *outbox) drainAll() []bufferedMsg {
	if len(o.order) == 0 {
		return nil
	}
	out := make([]bufferedMsg, 0, len(o.order))
	for _, t := range o.order {
		out = append(out, o.latest[t])
	}
	o.order = nil
	clear(o.latest)
	o.overflow = false
	return out
}

func (o *outbox) len() int {
	return len(o.order)
}
