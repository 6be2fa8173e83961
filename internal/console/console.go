// Package console hands the Linux virtual terminal over to the framebuffer
// preview and watches the keyboard for a quit key.
package console

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// Linux input-event-codes.h
const (
	KeyEsc uint16 = 1
	KeyQ   uint16 = 16
	KeyF4  uint16 = 62
)

// DefaultQuitKeys stop the preview when pressed on any attached keyboard.
var DefaultQuitKeys = []uint16{KeyEsc, KeyF4}

func orNoop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}
