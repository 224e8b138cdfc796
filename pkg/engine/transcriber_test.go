package engine

import (
	"io"
	"testing"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

func TestNormalizeAddsCapitalization(t *testing.T) {
	got := normalizeTranscript("hello there", false)
	if got != "Hello there" {
		t.Fatalf("expected %q, got %q", "Hello there", got)
	}
}

func TestNormalizeAddsTerminalPunctuation(t *testing.T) {
	got := normalizeTranscript("hello world", true)
	if got != "Hello world." {
		t.Fatalf("expected %q, got %q", "Hello world.", got)
	}
}

func TestNormalizeIdempotenceNonFinalize(t *testing.T) {
	once := normalizeTranscript("hello   world", false)
	twice := normalizeTranscript(once, false)
	if once != twice {
		t.Fatalf("expected idempotence, got %q then %q", once, twice)
	}
}

func TestDeltaOnlyEmitsSuffix(t *testing.T) {
	if got := transcriptDelta("", "Hello"); got != "Hello" {
		t.Fatalf("expected full text on empty previous, got %q", got)
	}
	if got := transcriptDelta("Hello", "Hello world"); got != " world" {
		t.Fatalf("expected suffix delta, got %q", got)
	}
	if got := transcriptDelta("Hello world.", ""); got != "" {
		t.Fatalf("expected no delta on empty next, got %q", got)
	}
}

func TestDeltaNonPrefixRevisionUsesCommonPrefix(t *testing.T) {
	got := transcriptDelta("Hello word", "Hello world")
	if got != "ld" {
		t.Fatalf("expected %q, got %q", "ld", got)
	}
}

func TestDeltaUsesUnicodeScalarsNotBytes(t *testing.T) {
	// "café" is a plain prefix of "café!" (4 runes / 5 bytes).
	got := transcriptDelta("café", "café!")
	if got != "!" {
		t.Fatalf("expected %q, got %q", "!", got)
	}

	// "é" and "è" share their first UTF-8 byte (0xC3); a byte-indexed
	// common-prefix scan would stop mid-rune and emit half of "è".
	got = transcriptDelta("café", "cafè")
	if got != "è" {
		t.Fatalf("expected %q, got %q", "è", got)
	}
}

type fakeWhisperModel struct {
	segments []string
}

func (f *fakeWhisperModel) NewContext() (whisperContext, error) {
	return &fakeWhisperContext{segments: f.segments}, nil
}

func (f *fakeWhisperModel) Close() error { return nil }

type fakeWhisperContext struct {
	segments []string
	idx      int
}

func (f *fakeWhisperContext) SetLanguage(lang string) error { return nil }
func (f *fakeWhisperContext) SetTranslate(bool)              {}
func (f *fakeWhisperContext) SetThreads(uint)                {}
func (f *fakeWhisperContext) SetNoContext(bool)              {}
func (f *fakeWhisperContext) Process(samples []float32, p1, p2, p3 interface{}) error {
	return nil
}

func (f *fakeWhisperContext) NextSegment() (whisperlib.Segment, error) {
	if f.idx >= len(f.segments) {
		return whisperlib.Segment{}, io.EOF
	}
	text := f.segments[f.idx]
	f.idx++
	return whisperlib.Segment{Text: text}, nil
}

func TestTranscriberRuntimeTranscribeJoinsSegmentsAndNormalizes(t *testing.T) {
	runtime := &TranscriberRuntime{model: &fakeWhisperModel{segments: []string{"hello", "world"}}}
	text, err := runtime.Transcribe(make([]int16, 1600), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Hello world." {
		t.Fatalf("expected %q, got %q", "Hello world.", text)
	}
}

func TestTranscriberEmitsFinishedExactlyOnceOnEnd(t *testing.T) {
	rx := make(chan TranscriberMessage, 8)
	commandTx := make(chan EngineCommand, 8)
	tr := &Transcriber{rx: rx, commandTx: commandTx, logger: NoOpLogger{}, runtime: &TranscriberRuntime{model: &fakeWhisperModel{segments: []string{"hi"}}}}

	tr.handle(TranscriberBegin{})
	tr.handle(TranscriberEnd{})

	finished := 0
	close(commandTx)
	for cmd := range commandTx {
		if _, ok := cmd.(TranscriptionFinishedCommand); ok {
			finished++
		}
	}
	if finished != 1 {
		t.Fatalf("expected exactly one TranscriptionFinished, got %d", finished)
	}
}

func TestTranscriberCancelSkipsDecodeButEmitsFinished(t *testing.T) {
	rx := make(chan TranscriberMessage, 8)
	commandTx := make(chan EngineCommand, 8)
	// A decode here would emit a TranscriptionDelta ahead of the finish.
	tr := &Transcriber{rx: rx, commandTx: commandTx, logger: NoOpLogger{}, runtime: &TranscriberRuntime{model: &fakeWhisperModel{segments: []string{"hi"}}}}

	tr.handle(TranscriberBegin{})
	tr.handle(TranscriberCancel{})

	select {
	case cmd := <-commandTx:
		if _, ok := cmd.(TranscriptionFinishedCommand); !ok {
			t.Fatalf("expected TranscriptionFinishedCommand, got %T", cmd)
		}
	default:
		t.Fatal("expected TranscriptionFinished on Cancel")
	}
}
