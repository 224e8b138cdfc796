package engine

import (
	"errors"

	"github.com/ebitengine/purego"
)

// puregoDetectorLibrary binds the four-symbol native contract of §6 via
// cgo-free dynamic library loading, the Go analogue of libloading.
// The handle returned by Init is move-only in spirit: exactly one
// WakeDetector owns it, and Delete must be called exactly once.
type puregoDetectorLibrary struct {
	handleLib uintptr

	init        func(modelPath, keywordPath *byte, sensitivity float32, out *uintptr) int32
	frameLength func() int32
	process     func(handle uintptr, pcm *int16, detected *int32) int32
	deleteFn    func(handle uintptr)
}

func newPuregoDetectorLibrary(path string) (*puregoDetectorLibrary, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}

	// RegisterLibFunc panics on a missing symbol, so check each one first.
	for _, name := range []string{"pv_porcupine_init", "pv_porcupine_frame_length", "pv_porcupine_process", "pv_porcupine_delete"} {
		if _, err := purego.Dlsym(handle, name); err != nil {
			return nil, errors.New("wake: native library is missing a required symbol")
		}
	}

	lib := &puregoDetectorLibrary{handleLib: handle}
	purego.RegisterLibFunc(&lib.init, handle, "pv_porcupine_init")
	purego.RegisterLibFunc(&lib.frameLength, handle, "pv_porcupine_frame_length")
	purego.RegisterLibFunc(&lib.process, handle, "pv_porcupine_process")
	purego.RegisterLibFunc(&lib.deleteFn, handle, "pv_porcupine_delete")
	return lib, nil
}

func cBytes(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

func (l *puregoDetectorLibrary) Init(modelPath, keywordPath string, sensitivity float32) (uintptr, error) {
	var out uintptr
	status := l.init(cBytes(modelPath), cBytes(keywordPath), sensitivity, &out)
	if status != 0 || out == 0 {
		return 0, errFromStatus(status)
	}
	return out, nil
}

func (l *puregoDetectorLibrary) FrameLength() int {
	return int(l.frameLength())
}

func (l *puregoDetectorLibrary) Process(handle uintptr, pcm []int16) (bool, error) {
	var detected int32
	var ptr *int16
	if len(pcm) > 0 {
		ptr = &pcm[0]
	}
	status := l.process(handle, ptr, &detected)
	if status != 0 {
		return false, errFromStatus(status)
	}
	return detected != 0, nil
}

func (l *puregoDetectorLibrary) Delete(handle uintptr) {
	l.deleteFn(handle)
}

func errFromStatus(status int32) error {
	return &detectorStatusError{status: status}
}

type detectorStatusError struct {
	status int32
}

func (e *detectorStatusError) Error() string {
	return "wake: native library returned non-zero status"
}
