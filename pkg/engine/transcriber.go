package engine

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

const (
	decodeCadence    = 350 * time.Millisecond
	decodeMinSamples = 3200
	whisperThreads   = 4
)

// TranscriberMessage is the tagged union the transcriber worker accepts.
type TranscriberMessage interface{ isTranscriberMessage() }

type TranscriberBegin struct{}
type TranscriberAudio struct{ Frame AudioFrame }
type TranscriberEnd struct{}
type TranscriberCancel struct{}
type TranscriberUpdateModel struct{ Model TranscriptionModel }

func (TranscriberBegin) isTranscriberMessage()       {}
func (TranscriberAudio) isTranscriberMessage()       {}
func (TranscriberEnd) isTranscriberMessage()         {}
func (TranscriberCancel) isTranscriberMessage()      {}
func (TranscriberUpdateModel) isTranscriberMessage() {}

// whisperContext is the narrow surface the transcriber drives; satisfied
// by whisper.cpp's Context and by a fake in tests.
type whisperContext interface {
	SetLanguage(lang string) error
	SetTranslate(bool)
	SetThreads(uint)
	SetNoContext(bool)
	Process(samples []float32, p1, p2, p3 interface{}) error
	NextSegment() (whisperlib.Segment, error)
}

// whisperModel is the narrow surface of a loaded model.
type whisperModel interface {
	NewContext() (whisperContext, error)
	Close() error
}

// TranscriberRuntime owns a single loaded model and produces fresh decode
// contexts on demand, mirroring the one-model-per-process, fresh-context-
// per-decode pattern of the native whisper.cpp bindings.
type TranscriberRuntime struct {
	modelRoot string
	model     whisperModel
}

// LoadTranscriberRuntime loads {model}.bin from modelRoot.
func LoadTranscriberRuntime(modelRoot string, model TranscriptionModel) (*TranscriberRuntime, error) {
	path := filepath.Join(modelRoot, model.FileName())
	loaded, err := loadWhisperModel(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelMissing, path, err)
	}
	return &TranscriberRuntime{modelRoot: modelRoot, model: loaded}, nil
}

// Transcribe runs one greedy, English, no-context, no-timestamp decode over
// samples (already 16kHz mono int16) and returns the normalized text.
func (r *TranscriberRuntime) Transcribe(samples []int16, finalize bool) (string, error) {
	floats := int16ToFloat32(samples)

	ctx, err := r.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("transcriber: create context: %w", err)
	}
	if err := ctx.SetLanguage("en"); err != nil {
		return "", fmt.Errorf("transcriber: set language: %w", err)
	}
	ctx.SetTranslate(false)
	ctx.SetThreads(whisperThreads)
	ctx.SetNoContext(true)

	if err := ctx.Process(floats, nil, nil, nil); err != nil {
		return "", fmt.Errorf("transcriber: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := ctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("transcriber: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	return normalizeTranscript(strings.Join(parts, " "), finalize), nil
}

func int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// normalizeTranscript whitespace-normalizes raw decoded text, uppercases
// the first ASCII letter, and (when finalize) appends a terminal '.' if one
// isn't already present.
func normalizeTranscript(raw string, finalize bool) string {
	fields := strings.Fields(raw)
	text := strings.Join(fields, " ")
	if text == "" {
		return text
	}

	runes := []rune(text)
	if unicode.IsLetter(runes[0]) && runes[0] <= unicode.MaxASCII {
		runes[0] = unicode.ToUpper(runes[0])
	}
	text = string(runes)

	if finalize {
		last := runes[len(runes)-1]
		if last != '.' && last != '!' && last != '?' {
			text += "."
		}
	}
	return text
}

// transcriptDelta computes the suffix of next not already covered by
// previous, per the spec's Unicode-scalar (rune, never byte) prefix rule.
func transcriptDelta(previous, next string) string {
	if next == "" {
		return ""
	}
	if previous == "" {
		return next
	}
	if strings.HasPrefix(next, previous) {
		return next[len(previous):]
	}

	prevRunes := []rune(previous)
	nextRunes := []rune(next)
	k := 0
	for k < len(prevRunes) && k < len(nextRunes) && prevRunes[k] == nextRunes[k] {
		k++
	}
	return string(nextRunes[k:])
}

// Transcriber is the cooperative worker owning the rolling session buffer
// and the decode cadence gate.
type Transcriber struct {
	rx        <-chan TranscriberMessage
	commandTx chan<- EngineCommand
	logger    Logger
	modelRoot string

	runtime *TranscriberRuntime

	sessionAudio  []int16
	lastEmitted   string
	lastDecodeAt  time.Time
	haveDecodedAt bool
}

// NewTranscriber constructs the worker, loading the initial model.
// On load failure the worker is still returned but permanently inert:
// every message after the failed load is a no-op (mirrors "permanent
// self-shutdown with a logged error" for ModelError).
func NewTranscriber(rx <-chan TranscriberMessage, commandTx chan<- EngineCommand, modelRoot string, initialModel TranscriptionModel, logger Logger) *Transcriber {
	if logger == nil {
		logger = NoOpLogger{}
	}
	t := &Transcriber{rx: rx, commandTx: commandTx, logger: logger, modelRoot: modelRoot}
	runtime, err := LoadTranscriberRuntime(modelRoot, initialModel)
	if err != nil {
		logger.Error("transcriber: failed to load model, transcription disabled", "error", err)
		return t
	}
	t.runtime = runtime
	return t
}

// Run drains messages until rx closes. Intended to be launched with `go`.
func (t *Transcriber) Run() {
	for msg := range t.rx {
		t.handle(msg)
	}
}

func (t *Transcriber) handle(msg TranscriberMessage) {
	switch m := msg.(type) {
	case TranscriberBegin:
		t.sessionAudio = nil
		t.lastEmitted = ""
		t.haveDecodedAt = false
	case TranscriberAudio:
		t.handleAudio(m.Frame)
	case TranscriberEnd:
		t.handleEnd()
	case TranscriberCancel:
		t.sessionAudio = nil
		t.lastEmitted = ""
		t.haveDecodedAt = false
		t.commandTx <- TranscriptionFinishedCommand{}
	case TranscriberUpdateModel:
		t.handleUpdateModel(m.Model)
	}
}

func (t *Transcriber) handleAudio(frame AudioFrame) {
	resampled := resampleMonoTo16k(frame.Samples, frame.SampleRate)
	t.sessionAudio = append(t.sessionAudio, resampled...)

	if t.runtime == nil {
		return
	}
	if t.haveDecodedAt && time.Since(t.lastDecodeAt) < decodeCadence {
		return
	}
	if len(t.sessionAudio) < decodeMinSamples {
		return
	}

	t.lastDecodeAt = time.Now()
	t.haveDecodedAt = true

	text, err := t.runtime.Transcribe(t.sessionAudio, false)
	if err != nil {
		t.logger.Warn("transcriber: decode attempt failed", "error", err)
		return
	}
	delta := transcriptDelta(t.lastEmitted, text)
	if delta != "" {
		t.commandTx <- TranscriptionDeltaCommand{Text: delta}
	}
	t.lastEmitted = text
}

func (t *Transcriber) handleEnd() {
	if t.runtime != nil {
		text, err := t.runtime.Transcribe(t.sessionAudio, true)
		if err != nil {
			t.logger.Warn("transcriber: final decode failed", "error", err)
		} else {
			delta := transcriptDelta(t.lastEmitted, text)
			if delta != "" {
				t.commandTx <- TranscriptionDeltaCommand{Text: delta}
			}
			t.lastEmitted = text
		}
	}
	t.sessionAudio = nil
	t.lastEmitted = ""
	t.haveDecodedAt = false
	t.commandTx <- TranscriptionFinishedCommand{}
}

func (t *Transcriber) handleUpdateModel(model TranscriptionModel) {
	runtime, err := LoadTranscriberRuntime(t.modelRoot, model)
	if err != nil {
		t.logger.Error("transcriber: failed to reload model, keeping previous", "error", err)
		return
	}
	t.runtime = runtime
	t.sessionAudio = nil
	t.lastEmitted = ""
	t.haveDecodedAt = false
}
