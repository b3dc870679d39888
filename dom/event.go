package dom

// Event is dispatched against an element and bubbles to ancestors until
// stopped.
type Event struct {
	Type   string
	Target *Element
	Data   any

	stopped bool
}

// StopPropagation prevents the event from bubbling further.
func (ev *Event) StopPropagation() { ev.stopped = true }

// EventHandler is the explicit listener type. Only values of this type can be
// attached; there is no "anything callable" convention.
type EventHandler func(*Event)

type registration struct {
	handler EventHandler
}

// AddEventListener attaches h for the given event type and returns a remove
// function that detaches exactly this registration.
func (e *Element) AddEventListener(typ string, h EventHandler) (remove func()) {
	if e.listeners == nil {
		e.listeners = map[string][]*registration{}
	}
	reg := &registration{handler: h}
	e.listeners[typ] = append(e.listeners[typ], reg)
	return func() {
		regs := e.listeners[typ]
		for i, r := range regs {
			if r == reg {
				e.listeners[typ] = append(regs[:i], regs[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount reports how many listeners are attached for typ.
func (e *Element) ListenerCount(typ string) int {
	return len(e.listeners[typ])
}

// Dispatch delivers ev to this element's listeners, then bubbles it up the
// parent chain until stopped.
func (e *Element) Dispatch(ev *Event) {
	if ev.Target == nil {
		ev.Target = e
	}
	for node := e; node != nil; node = node.parent {
		for _, reg := range append([]*registration(nil), node.listeners[ev.Type]...) {
			reg.handler(ev)
			if ev.stopped {
				return
			}
		}
		if ev.stopped {
			return
		}
	}
}
