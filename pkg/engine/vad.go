package engine

import (
	"time"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// VadMessage is the tagged union of messages the VAD worker accepts.
type VadMessage interface{ isVadMessage() }

type VadBegin struct{}
type VadEnd struct{}
type VadSetSensitivity struct{ Value float32 }
type VadAudio struct{ Frame AudioFrame }

func (VadBegin) isVadMessage()           {}
func (VadEnd) isVadMessage()             {}
func (VadSetSensitivity) isVadMessage()  {}
func (VadAudio) isVadMessage()           {}

const (
	vadWindowSamples = 320 // 20ms at 16kHz
	vadSilenceTimeout = time.Second
)

// energyThresholdFromSensitivity derives the energy-fallback threshold from
// the shared sensitivity knob: higher sensitivity needs less energy to be
// classified as speech.
func energyThresholdFromSensitivity(sensitivity float32) float32 {
	clamped := clampFloat32(sensitivity, 0.01, 1.0)
	return 0.12 - clamped*0.10
}

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// resampleMonoTo16k linearly resamples mono PCM to 16kHz. Identity at
// 16kHz source rate.
func resampleMonoTo16k(samples []int16, sourceRate int) []int16 {
	if sourceRate == 16000 {
		out := make([]int16, len(samples))
		copy(out, samples)
		return out
	}
	if len(samples) == 0 || sourceRate == 0 {
		return nil
	}

	ratio := 16000.0 / float64(sourceRate)
	targetLen := int(float64(len(samples)) * ratio)
	if targetLen < 1 {
		targetLen = 1
	}
	out := make([]int16, targetLen)

	for idx := 0; idx < targetLen; idx++ {
		sourcePos := float64(idx) / ratio
		sourceIdx := int(sourcePos)
		nextIdx := sourceIdx + 1
		if nextIdx > len(samples)-1 {
			nextIdx = len(samples) - 1
		}
		frac := sourcePos - float64(sourceIdx)
		current := float64(samples[sourceIdx])
		next := float64(samples[nextIdx])
		interpolated := current + (next-current)*frac
		out[idx] = int16(roundFloat64(interpolated))
	}
	return out
}

func roundFloat64(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}

// vadClassifier is the narrow interface the WebRTC VAD binding satisfies;
// it is its own interface so a fake can stand in for tests.
type vadClassifier interface {
	Reset()
	IsSpeech(sampleRate int, frame []int16) (bool, error)
}

type webrtcClassifier struct {
	vad *webrtcvad.VAD
}

func newWebrtcClassifier() (*webrtcClassifier, error) {
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := vad.SetMode(3); err != nil { // 3 == Aggressive
		return nil, err
	}
	return &webrtcClassifier{vad: vad}, nil
}

func (c *webrtcClassifier) Reset() {
	c.vad.SetMode(3)
}

func (c *webrtcClassifier) IsSpeech(sampleRate int, frame []int16) (bool, error) {
	return c.vad.Process(sampleRate, frame)
}

// VADWorker is a single-threaded cooperative loop holding a voice-activity
// detector plus an energy-threshold fallback. It runs on its own
// goroutine with blocking channel receive, per the concurrency model.
type VADWorker struct {
	rx          <-chan VadMessage
	commandTx   chan<- EngineCommand
	classifier  vadClassifier
	sensitivity float32
	logger      Logger

	silenceStarted time.Time
	hasSilence     bool
}

// NewVADWorker constructs a worker around a real WebRTC VAD classifier.
// If the native classifier cannot be constructed, the worker still runs
// using only the energy fallback (logged).
func NewVADWorker(rx <-chan VadMessage, commandTx chan<- EngineCommand, initialSensitivity float32, logger Logger) *VADWorker {
	if logger == nil {
		logger = NoOpLogger{}
	}
	var classifier vadClassifier
	webrtc, err := newWebrtcClassifier()
	if err != nil {
		logger.Warn("vad: webrtc classifier unavailable, using energy fallback only", "error", err)
	} else {
		classifier = webrtc
	}
	return newVADWorkerWithClassifier(rx, commandTx, classifier, initialSensitivity, logger)
}

func newVADWorkerWithClassifier(rx <-chan VadMessage, commandTx chan<- EngineCommand, classifier vadClassifier, initialSensitivity float32, logger Logger) *VADWorker {
	return &VADWorker{
		rx:          rx,
		commandTx:   commandTx,
		classifier:  classifier,
		sensitivity: clampFloat32(initialSensitivity, 0.01, 1.0),
		logger:      logger,
	}
}

// Run drains messages until rx is closed. Intended to be launched with `go`.
func (w *VADWorker) Run() {
	for msg := range w.rx {
		w.handle(msg)
	}
}

func (w *VADWorker) handle(msg VadMessage) {
	switch m := msg.(type) {
	case VadBegin:
		if w.classifier != nil {
			w.classifier.Reset()
		}
		w.hasSilence = false
	case VadEnd:
		w.hasSilence = false
	case VadSetSensitivity:
		w.sensitivity = clampFloat32(m.Value, 0.01, 1.0)
	case VadAudio:
		w.processAudio(m.Frame)
	}
}

func (w *VADWorker) processAudio(frame AudioFrame) {
	resampled := resampleMonoTo16k(frame.Samples, frame.SampleRate)
	threshold := energyThresholdFromSensitivity(w.sensitivity)

	for start := 0; start+vadWindowSamples <= len(resampled); start += vadWindowSamples {
		window := resampled[start : start+vadWindowSamples]

		vadSpeech := false
		if w.classifier != nil {
			speech, err := w.classifier.IsSpeech(16000, window)
			if err == nil {
				vadSpeech = speech
			}
		}
		energySpeech := meanNormalizedAmplitude(window) > threshold

		if vadSpeech || energySpeech {
			w.hasSilence = false
			continue
		}

		if w.hasSilence {
			if time.Since(w.silenceStarted) >= vadSilenceTimeout {
				w.commandTx <- SilenceTimeoutCommand{}
				w.hasSilence = false
				break
			}
		} else {
			w.hasSilence = true
			w.silenceStarted = time.Now()
		}
	}
}

func meanNormalizedAmplitude(window []int16) float32 {
	if len(window) == 0 {
		return 0
	}
	var sum float32
	for _, sample := range window {
		v := float32(sample)
		if v < 0 {
			v = -v
		}
		sum += v / 32767.0
	}
	return sum / float32(len(window))
}
