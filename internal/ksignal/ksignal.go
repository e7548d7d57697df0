// Package ksignal names the signal numbers the kernel core understands. The
// values are taken from golang.org/x/sys/unix, which on Linux gives TERM=15,
// KILL=9, STOP=19 and CONT=18; on other platforms they are that platform's
// numbers.
package ksignal

import (
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	TERM = int(unix.SIGTERM)
	KILL = int(unix.SIGKILL)
	STOP = int(unix.SIGSTOP)
	CONT = int(unix.SIGCONT)
)

// Name returns a human-readable name for a known signal number, or "SIG<n>"
// for anything else (the core still accepts unknown signals, it just logs
// them instead of acting on them).
func Name(n int) string {
	switch n {
	case TERM:
		return "TERM"
	case KILL:
		return "KILL"
	case STOP:
		return "STOP"
	case CONT:
		return "CONT"
	default:
		return "SIG" + strconv.Itoa(n)
	}
}
