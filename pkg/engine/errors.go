package engine

import "errors"

var (
	// ErrDeviceUnavailable means no matching (or default) input device exists,
	// or the audio context or capture device could not be opened or started.
	ErrDeviceUnavailable = errors.New("engine: no matching input device")

	// ErrModelMissing means a required model file does not exist under the
	// configured model root.
	ErrModelMissing = errors.New("engine: required model file missing")

	// ErrDetectorUnavailable means the native keyword-spotter library or one
	// of its required symbols could not be loaded.
	ErrDetectorUnavailable = errors.New("engine: wake-word detector unavailable")

	// ErrWriterUnavailable means the synthetic keyboard writer could not be
	// constructed.
	ErrWriterUnavailable = errors.New("engine: keyboard writer unavailable")
)
