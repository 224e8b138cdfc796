//go:build darwin

package engine

import (
	"sync"

	"github.com/ebitengine/purego"
)

var (
	secureInputOnce sync.Once
	isSecureEventInputEnabled func() bool
)

func loadSecureInputProbe() {
	handle, err := purego.Dlopen("/System/Library/Frameworks/Carbon.framework/Carbon", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		isSecureEventInputEnabled = func() bool { return false }
		return
	}
	var fn func() bool
	purego.RegisterLibFunc(&fn, handle, "IsSecureEventInputEnabled")
	isSecureEventInputEnabled = fn
}

// secureInputEnabled consults the Carbon framework's
// IsSecureEventInputEnabled, which reports true while the OS forbids
// synthetic keystroke injection (notably during password prompts).
func secureInputEnabled() bool {
	secureInputOnce.Do(loadSecureInputProbe)
	if isSecureEventInputEnabled == nil {
		return false
	}
	return isSecureEventInputEnabled()
}
