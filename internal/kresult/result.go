// Package kresult defines the closed result enum shared by every operation
// the syscall facade exposes. It carries no state of its own; components
// translate their internal error variants into one of these values at the
// boundary.
package kresult

// Result is the closed outcome of a core operation. Never extend this set
// ad-hoc from a caller package; add a case here if a new outcome is genuinely
// needed.
type Result int

const (
	OK Result = iota
	NotFound
	AlreadyExists
	AtRoot
	InvalidArgument
	Error
)

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case AtRoot:
		return "AtRoot"
	case InvalidArgument:
		return "InvalidArgument"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Ok reports whether r represents a successful operation.
func (r Result) Ok() bool {
	return r == OK
}
