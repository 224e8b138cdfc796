package engine

import "testing"

func TestStartsListeningWhenEnabled(t *testing.T) {
	m := NewStateMachine(true)
	if m.State() != Listening {
		t.Fatalf("expected Listening, got %v", m.State())
	}
}

func TestStartsIdleWhenDisabled(t *testing.T) {
	m := NewStateMachine(false)
	if m.State() != Idle {
		t.Fatalf("expected Idle, got %v", m.State())
	}
}

func TestDictationFlowTransitionsAreValid(t *testing.T) {
	m := NewStateMachine(true)

	if !m.TryStartDictation() {
		t.Fatal("expected TryStartDictation to succeed")
	}
	if m.State() != Dictating {
		t.Fatalf("expected Dictating, got %v", m.State())
	}

	if !m.TryBeginStopping() {
		t.Fatal("expected TryBeginStopping to succeed")
	}
	if m.State() != Stopping {
		t.Fatalf("expected Stopping, got %v", m.State())
	}

	if !m.FinishStopping() {
		t.Fatal("expected FinishStopping to succeed")
	}
	if m.State() != Listening {
		t.Fatalf("expected Listening, got %v", m.State())
	}
}

func TestCancelReturnsToListening(t *testing.T) {
	m := NewStateMachine(true)
	if !m.TryStartDictation() {
		t.Fatal("expected TryStartDictation to succeed")
	}
	if !m.CancelDictation() {
		t.Fatal("expected CancelDictation to succeed")
	}
	if m.State() != Listening {
		t.Fatalf("expected Listening, got %v", m.State())
	}
}

func TestTenConsecutiveDictationsRearmWithoutInvalidState(t *testing.T) {
	m := NewStateMachine(true)

	for i := 0; i < 10; i++ {
		if m.State() != Listening {
			t.Fatalf("iteration %d: expected Listening, got %v", i, m.State())
		}
		if !m.TryStartDictation() {
			t.Fatalf("iteration %d: expected TryStartDictation to succeed", i)
		}
		if m.State() != Dictating {
			t.Fatalf("iteration %d: expected Dictating, got %v", i, m.State())
		}
		if !m.TryBeginStopping() {
			t.Fatalf("iteration %d: expected TryBeginStopping to succeed", i)
		}
		if m.State() != Stopping {
			t.Fatalf("iteration %d: expected Stopping, got %v", i, m.State())
		}
		if !m.FinishStopping() {
			t.Fatalf("iteration %d: expected FinishStopping to succeed", i)
		}
		if m.State() != Listening {
			t.Fatalf("iteration %d: expected Listening, got %v", i, m.State())
		}
	}
}

func TestStateMachineIdempotence(t *testing.T) {
	m := NewStateMachine(true)
	if m.SetEnabled(true) {
		t.Fatal("re-enabling an already-enabled machine should report no change")
	}
	if !m.TryStartDictation() {
		t.Fatal("expected first TryStartDictation to succeed")
	}
	if m.TryStartDictation() {
		t.Fatal("re-issuing TryStartDictation from Dictating should report no change")
	}
}

func TestDisabledMachineNeverStartsDictation(t *testing.T) {
	m := NewStateMachine(false)
	if m.TryStartDictation() {
		t.Fatal("disabled machine must never start dictation")
	}
	if m.State() != Idle {
		t.Fatalf("expected Idle, got %v", m.State())
	}
}

func TestRoutingPredicates(t *testing.T) {
	m := NewStateMachine(true)
	if !m.ShouldRouteToWake() {
		t.Fatal("expected routing to wake while Listening and enabled")
	}
	if m.ShouldRouteToDictation() {
		t.Fatal("did not expect routing to dictation while Listening")
	}

	m.TryStartDictation()
	if m.ShouldRouteToWake() {
		t.Fatal("did not expect routing to wake while Dictating")
	}
	if !m.ShouldRouteToDictation() {
		t.Fatal("expected routing to dictation while Dictating")
	}
}

func TestTrayStateCollapsesStoppingIntoDictating(t *testing.T) {
	m := NewStateMachine(true)
	m.TryStartDictation()
	m.TryBeginStopping()
	if m.TrayState() != TrayDictating {
		t.Fatalf("expected TrayDictating, got %v", m.TrayState())
	}
}
