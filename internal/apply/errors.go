package apply

import (
	"fmt"
	"strings"
)

// PropertyError reports a failed write of one property path.
type PropertyError struct {
	Instance string
	Path     string
	Err      error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("set %q on %s: %v", e.Path, e.Instance, e.Err)
}

func (e *PropertyError) Unwrap() error {
	return e.Err
}

// SetError aggregates the failures of a multi-path set. Paths that are not
// listed were committed.
type SetError struct {
	Instance string
	Failures []*PropertyError
}

func (e *SetError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, fmt.Sprintf("%q: %v", f.Path, f.Err))
	}
	return fmt.Sprintf("%d of the properties of %s could not be set: %s",
		len(e.Failures), e.Instance, strings.Join(msgs, "; "))
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *SetError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Paths returns the failing paths in request order.
func (e *SetError) Paths() []string {
	paths := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		paths = append(paths, f.Path)
	}
	return paths
}
