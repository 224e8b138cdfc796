package engine

import (
	"errors"
	"testing"
)

var errFakeWriterFailure = errors.New("fake writer failure")

type fakeWriter struct {
	typed      []rune
	backspaces int
	failOnRune rune
}

func (w *fakeWriter) TypeRune(r rune) error {
	if w.failOnRune != 0 && r == w.failOnRune {
		return errFakeWriterFailure
	}
	w.typed = append(w.typed, r)
	return nil
}

func (w *fakeWriter) Backspace() error {
	w.backspaces++
	return nil
}

func newTestInjector(writer *fakeWriter) (*Injector, chan InjectionMessage) {
	rx := make(chan InjectionMessage, 8)
	inj := newInjectorWithWriterFactory(rx, NoOpLogger{}, func() (keyboardWriter, error) {
		return writer, nil
	})
	return inj, rx
}

func TestInjectorTypesDeltaAndTracksSession(t *testing.T) {
	writer := &fakeWriter{}
	inj, _ := newTestInjector(writer)

	inj.handle(InjectionBeginSession{})
	inj.handle(InjectionDelta{Text: "Hi"})

	if string(writer.typed) != "Hi" {
		t.Fatalf("expected %q typed, got %q", "Hi", string(writer.typed))
	}
	if len(inj.activeSession) != 2 {
		t.Fatalf("expected active session length 2, got %d", len(inj.activeSession))
	}
}

func TestInjectorCancelSessionBackspacesCharCount(t *testing.T) {
	writer := &fakeWriter{}
	inj, _ := newTestInjector(writer)

	inj.handle(InjectionBeginSession{})
	inj.handle(InjectionDelta{Text: "Hi"})
	inj.handle(InjectionCancelSession{})

	if writer.backspaces != 2 {
		t.Fatalf("expected 2 backspaces, got %d", writer.backspaces)
	}
	if len(inj.activeSession) != 0 {
		t.Fatal("expected active session cleared after cancel")
	}
}

func TestInjectorUndoLastUsesUnicodeScalarCount(t *testing.T) {
	writer := &fakeWriter{}
	inj, _ := newTestInjector(writer)

	inj.handle(InjectionBeginSession{})
	inj.handle(InjectionDelta{Text: "Hello world."})
	inj.handle(InjectionCommitSession{})
	inj.handle(InjectionUndoLast{})

	if writer.backspaces != 12 {
		t.Fatalf("expected 12 backspaces (Unicode scalar count), got %d", writer.backspaces)
	}
}

func TestInjectorUndoLastCountsRunesNotBytes(t *testing.T) {
	writer := &fakeWriter{}
	inj, _ := newTestInjector(writer)

	// "café" is 4 runes / 5 bytes; backspace count must be rune-based.
	inj.handle(InjectionBeginSession{})
	inj.handle(InjectionDelta{Text: "café"})
	inj.handle(InjectionCommitSession{})
	inj.handle(InjectionUndoLast{})

	if writer.backspaces != 4 {
		t.Fatalf("expected 4 backspaces, got %d", writer.backspaces)
	}
}

func TestInjectorDropsWriterOnTypeFailure(t *testing.T) {
	writer := &fakeWriter{failOnRune: 'i'}
	inj, _ := newTestInjector(writer)

	inj.handle(InjectionBeginSession{})
	inj.handle(InjectionDelta{Text: "Hi"})

	if inj.writer != nil {
		t.Fatal("expected writer to be dropped after a failed type")
	}
	if string(writer.typed) != "H" {
		t.Fatalf("expected only %q typed before failure, got %q", "H", string(writer.typed))
	}
}

func TestInjectorIgnoresEmptyDelta(t *testing.T) {
	writer := &fakeWriter{}
	inj, _ := newTestInjector(writer)

	inj.handle(InjectionBeginSession{})
	inj.handle(InjectionDelta{Text: ""})

	if len(writer.typed) != 0 {
		t.Fatal("expected no typing for an empty delta")
	}
}
