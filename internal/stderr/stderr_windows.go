//go:build windows

// Windows audio paths do not spill onto fd 2, so capture is a no-op there.
package stderr

import "os"

// Messages is never written to on Windows.
var Messages = make(chan string)

// Start is a no-op.
func Start() error {
	return nil
}

// WriteOriginal writes to stderr.
func WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop is a no-op.
func Stop() {}
