package engine

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// robotgoWriter types and backspaces through robotgo's synthetic keyboard.
// robotgo's own calls don't return errors for most platforms; a panic
// recovered here stands in for the "writer failed" path so the injector
// can lazily reacquire, per the spec's injection-error taxonomy.
type robotgoWriter struct{}

func newRobotgoWriter() (keyboardWriter, error) {
	return &robotgoWriter{}, nil
}

func (w *robotgoWriter) TypeRune(r rune) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("robotgo: type rune failed: %v", p)
		}
	}()
	robotgo.TypeStr(string(r))
	return nil
}

func (w *robotgoWriter) Backspace() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("robotgo: backspace failed: %v", p)
		}
	}()
	robotgo.KeyTap("backspace")
	return nil
}
