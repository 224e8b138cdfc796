package engine

// StateMachine is the four-state coordinator: it holds the current
// DictationState and whether the engine is enabled, and gates routing of
// audio frames plus the sequencing of session lifecycle messages. It has
// no synchronization of its own; it is owned exclusively by the engine
// loop goroutine.
type StateMachine struct {
	state   DictationState
	enabled bool
}

// NewStateMachine builds a machine starting Listening if enabled, else Idle.
func NewStateMachine(enabled bool) *StateMachine {
	m := &StateMachine{enabled: enabled}
	if enabled {
		m.state = Listening
	} else {
		m.state = Idle
	}
	return m
}

// State returns the current state.
func (m *StateMachine) State() DictationState {
	return m.state
}

// Enabled reports the current enabled flag.
func (m *StateMachine) Enabled() bool {
	return m.enabled
}

// SetEnabled updates the enabled flag and moves to Listening or Idle.
// Returns true only if the state actually changed.
func (m *StateMachine) SetEnabled(enabled bool) bool {
	m.enabled = enabled
	next := Idle
	if enabled {
		next = Listening
	}
	return m.transitionTo(next)
}

// TryStartDictation moves Listening -> Dictating if the engine is enabled.
func (m *StateMachine) TryStartDictation() bool {
	if !m.enabled {
		return false
	}
	return m.transitionTo(Dictating)
}

// TryBeginStopping moves Dictating -> Stopping.
func (m *StateMachine) TryBeginStopping() bool {
	if m.state != Dictating {
		return false
	}
	return m.transitionTo(Stopping)
}

// FinishStopping moves Stopping or Dictating back to Listening (if enabled)
// or Idle.
func (m *StateMachine) FinishStopping() bool {
	if m.state != Stopping && m.state != Dictating {
		return false
	}
	next := Idle
	if m.enabled {
		next = Listening
	}
	return m.transitionTo(next)
}

// CancelDictation moves Dictating or Stopping back to Listening (if
// enabled) or Idle.
func (m *StateMachine) CancelDictation() bool {
	if m.state != Dictating && m.state != Stopping {
		return false
	}
	next := Idle
	if m.enabled {
		next = Listening
	}
	return m.transitionTo(next)
}

// ShouldRouteToWake reports whether AudioFrames should be routed to the
// wake detector.
func (m *StateMachine) ShouldRouteToWake() bool {
	return m.enabled && m.state == Listening
}

// ShouldRouteToDictation reports whether AudioFrames should be routed to
// the VAD worker and transcriber.
func (m *StateMachine) ShouldRouteToDictation() bool {
	return m.enabled && m.state == Dictating
}

// TrayState derives the tray-facing three-state view of the current state.
func (m *StateMachine) TrayState() TrayState {
	switch m.state {
	case Idle:
		return TrayIdle
	case Listening:
		return TrayListening
	default:
		return TrayDictating
	}
}

func (m *StateMachine) transitionTo(next DictationState) bool {
	if m.state == next {
		return false
	}
	m.state = next
	return true
}
