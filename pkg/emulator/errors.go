package emulator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedOperation reports that a valid backend does not implement
// the requested contract operation. It is recoverable: the caller must
// avoid the code path for that handle, the session keeps running.
var ErrUnsupportedOperation = errors.New("operation not supported by this backend")

// ErrClosed reports use of a handle after Close.
var ErrClosed = errors.New("backend handle is closed")

// FaultError reports that a constructed backend failed during stepping.
// It is fatal for the session: the handle is torn down and no further
// stepping is attempted.
type FaultError struct {
	Op  string
	Err error
}

func (e *FaultError) Error() string { return fmt.Sprintf("backend fault in %s: %v", e.Op, e.Err) }
func (e *FaultError) Unwrap() error { return e.Err }

// Fault wraps err into a *FaultError for the given operation.
func Fault(op string, err error) error { return &FaultError{Op: op, Err: err} }

// MissingDependencyError reports that a required native library, external
// binary or firmware image is absent. It enumerates every searched
// location so the user can remedy the problem; it is never silently
// converted into a fallback to another backend.
type MissingDependencyError struct {
	// What names the missing dependency, e.g. "video plugin".
	What string
	// Names are the file names that would have satisfied the search.
	Names []string
	// Searched lists every path that was tried, in order.
	Searched []string
}

func (e *MissingDependencyError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "missing %s", e.What)
	if len(e.Names) > 0 {
		fmt.Fprintf(&sb, " (one of: %s)", strings.Join(e.Names, ", "))
	}
	if len(e.Searched) > 0 {
		fmt.Fprintf(&sb, "; searched: %s", strings.Join(e.Searched, ", "))
	}
	return sb.String()
}

// ValidationError reports an out-of-bounds watch descriptor or an
// otherwise invalid automation request, detected before the session
// enters its running state.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}
