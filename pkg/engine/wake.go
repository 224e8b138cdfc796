package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// WakeWordConfig is captured once at construction (Design Note: Global
// state) — workers never perform ambient env lookups themselves.
type WakeWordConfig struct {
	PorcupineLibrary        string
	ModelPath               string
	KeywordPath             string
	KeywordFallbackPath     string
	AccessKey               string
	Sensitivity             float32
}

// NewWakeWordConfig derives the default resource paths from a model root
// directory, mirroring the original's WakeWordConfig::from_model_root.
func NewWakeWordConfig(modelRoot string, sensitivity float32) WakeWordConfig {
	return WakeWordConfig{
		PorcupineLibrary:    defaultDetectorLibraryPath(),
		ModelPath:           filepath.Join(modelRoot, "porcupine_params.pv"),
		KeywordPath:         filepath.Join(modelRoot, "hey-lumi-mac.ppn"),
		KeywordFallbackPath: filepath.Join(modelRoot, "porcupine_mac.ppn"),
		Sensitivity:         clampFloat32(sensitivity, 0.0, 1.0),
	}
}

// WithEnvOverrides applies the §6 environment overrides on top of the
// model-root-derived defaults, applied once at startup per the captured-
// at-construction design note.
func (c WakeWordConfig) WithEnvOverrides() WakeWordConfig {
	if v := os.Getenv("LUMI_PORCUPINE_DYLIB"); v != "" {
		c.PorcupineLibrary = v
	}
	if v := os.Getenv("LUMI_PORCUPINE_MODEL"); v != "" {
		c.ModelPath = v
	}
	if v := os.Getenv("LUMI_PORCUPINE_KEYWORD"); v != "" {
		c.KeywordPath = v
		c.KeywordFallbackPath = ""
	}
	if v := os.Getenv("LUMI_PORCUPINE_FALLBACK_KEYWORD"); v != "" {
		c.KeywordFallbackPath = v
	}
	if v := os.Getenv("LUMI_PORCUPINE_ACCESS_KEY"); v != "" {
		c.AccessKey = v
	}
	return c
}

// defaultDetectorLibraryPath probes the conventional Homebrew/library
// install locations for a Porcupine-compatible dynamic library.
func defaultDetectorLibraryPath() string {
	switch runtime.GOOS {
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "/opt/homebrew/lib/libpv_porcupine.dylib"
		}
		return "/usr/local/lib/libpv_porcupine.dylib"
	case "linux":
		return "/usr/lib/libpv_porcupine.so"
	default:
		return "pv_porcupine"
	}
}

// detectorLibrary is the four-symbol native contract of §6, isolated
// behind a narrow interface so the purego-backed loader and a fake can
// both satisfy it (Design Note: Unsafe FFI isolation).
type detectorLibrary interface {
	Init(modelPath, keywordPath string, sensitivity float32) (uintptr, error)
	FrameLength() int
	Process(handle uintptr, pcm []int16) (bool, error)
	Delete(handle uintptr)
}

// WakeDetector resamples incoming audio to 16kHz, windows it to the
// native frame length, and asks the native library to classify each
// window. Once it fails it is permanently disabled for this process.
type WakeDetector struct {
	lib    detectorLibrary
	handle uintptr

	frameLength int
	buffer      []int16

	failed bool
}

// NewWakeDetector loads the native library described by cfg, resolving
// the primary keyword file and falling back to the fallback keyword file
// (logged, not an error) when the primary is missing.
func NewWakeDetector(cfg WakeWordConfig, logger Logger) (*WakeDetector, error) {
	if logger == nil {
		logger = NoOpLogger{}
	}
	lib, err := newPuregoDetectorLibrary(cfg.PorcupineLibrary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	return newWakeDetectorWithLibrary(lib, cfg, logger)
}

func newWakeDetectorWithLibrary(lib detectorLibrary, cfg WakeWordConfig, logger Logger) (*WakeDetector, error) {
	keywordPath := cfg.KeywordPath
	if !fileExists(keywordPath) {
		if cfg.KeywordFallbackPath == "" || !fileExists(cfg.KeywordFallbackPath) {
			return nil, fmt.Errorf("%w: no usable keyword file (primary %q, fallback %q)", ErrModelMissing, cfg.KeywordPath, cfg.KeywordFallbackPath)
		}
		logger.Warn("wake: primary keyword file missing, using fallback", "primary", cfg.KeywordPath, "fallback", cfg.KeywordFallbackPath)
		keywordPath = cfg.KeywordFallbackPath
	}

	handle, err := lib.Init(cfg.ModelPath, keywordPath, clampFloat32(cfg.Sensitivity, 0.0, 1.0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}

	return &WakeDetector{
		lib:         lib,
		handle:      handle,
		frameLength: lib.FrameLength(),
	}, nil
}

// Close releases the native handle exactly once.
func (d *WakeDetector) Close() {
	if d.lib != nil && d.handle != 0 {
		d.lib.Delete(d.handle)
		d.handle = 0
	}
}

// ProcessFrame resamples frame to 16kHz, appends to the reassembly
// buffer, and drains frameLength-sized windows through the native
// process routine. Returns true on the first detected window.
func (d *WakeDetector) ProcessFrame(frame AudioFrame) (bool, error) {
	if d.failed {
		return false, nil
	}

	resampled := resampleMonoTo16k(frame.Samples, frame.SampleRate)
	d.buffer = append(d.buffer, resampled...)

	for len(d.buffer) >= d.frameLength {
		window := d.buffer[:d.frameLength]
		d.buffer = d.buffer[d.frameLength:]

		detected, err := d.lib.Process(d.handle, window)
		if err != nil {
			d.failed = true
			return false, err
		}
		if detected {
			return true, nil
		}
	}
	return false, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// SpawnWakeListener runs the detector on its own goroutine (a cooperative
// task on a shared runtime, per the concurrency model), consuming
// AudioFrames and sending WakeDetected on first detection. On a native
// failure it logs and exits permanently.
func SpawnWakeListener(rx <-chan AudioFrame, commandTx chan<- EngineCommand, detector *WakeDetector, logger Logger) {
	if logger == nil {
		logger = NoOpLogger{}
	}
	go func() {
		for frame := range rx {
			detected, err := detector.ProcessFrame(frame)
			if err != nil {
				logger.Error("wake: native process failed, wake detection disabled", "error", err)
				return
			}
			if detected {
				commandTx <- WakeDetectedCommand{}
			}
		}
	}()
}
