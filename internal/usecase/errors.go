package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrRejected              = errors.New("submission rejected")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// ErrorKind classifies a service error for transports.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindRejected
	KindUnavailable
)

var kindBySentinel = []struct {
	sentinel error
	kind     ErrorKind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrNotFound, KindNotFound},
	{ErrRejected, KindRejected},
	{ErrDependencyUnavailable, KindUnavailable},
}

// KindOf returns the kind of the first sentinel err wraps.
func KindOf(err error) ErrorKind {
	for _, k := range kindBySentinel {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindInternal
}

// Reason is the camelCase token used in error bodies.
func (k ErrorKind) Reason() string {
	switch k {
	case KindInvalidInput:
		return "invalidInput"
	case KindNotFound:
		return "notFound"
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "dependencyUnavailable"
	default:
		return "internalError"
	}
}
