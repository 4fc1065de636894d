//go:build !windows

// Package stderr reroutes file descriptor 2 through a pipe. The audio
// backends link C libraries (ALSA, minimp3) that write warnings straight to
// fd 2, which would land in the middle of the terminal UI. Captured lines
// are delivered on Messages so the UI can show them as status text instead.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"syscall"
)

// Messages carries captured stderr lines. The buffer absorbs bursts;
// once full, further lines are dropped rather than blocking the reader
// goroutine.
var Messages = make(chan string, 100)

var (
	origFD    int
	pipeRead  *os.File
	pipeWrite *os.File
	active    bool
)

// Start redirects fd 2 into the capture pipe. Call it before anything
// initializes an audio backend. On failure the program still works, with
// C library noise going to the real stderr.
func Start() error {
	if active {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origFD, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(origFD)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	active = true

	go func() {
		scanner := bufio.NewScanner(pipeRead)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case Messages <- line:
			default:
			}
		}
	}()

	return nil
}

// WriteOriginal bypasses the capture and writes to the saved stderr.
// Fatal errors use this so they stay visible after the pipe is wired up.
// Before Start, or after Stop, it writes to the process stderr directly.
func WriteOriginal(msg string) {
	if origFD > 0 {
		_, _ = syscall.Write(origFD, []byte(msg))
		return
	}
	_, _ = os.Stderr.WriteString(msg)
}

// Stop restores fd 2 and closes the pipe.
func Stop() {
	if !active {
		return
	}

	_ = syscall.Dup2(origFD, int(os.Stderr.Fd()))
	_ = syscall.Close(origFD)

	pipeWrite.Close()
	pipeRead.Close()

	close(Messages)
	active = false
}
