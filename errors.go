package imgcache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aweris/imgcache/internal/address"
)

var (
	ErrNotFound         = errors.New("imgcache: not found")
	ErrPathEscape       = errors.New("imgcache: path escapes cache directory")
	ErrInvalidName      = address.ErrInvalidName
	ErrRootNotAbsolute  = errors.New("imgcache: storage root is not an absolute path")
	ErrInvalidNamespace = errors.New("imgcache: invalid namespace")
)

// PathError records a failed operation on a cache-relative path.
//
// Path escapes match both ErrPathEscape and ErrNotFound, so callers that only
// care about "is it there" can test for ErrNotFound alone.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("imgcache: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

func (e *PathError) Is(target error) bool {
	return target == ErrNotFound && errors.Is(e.Err, ErrPathEscape)
}

// DeleteError lists the paths a Delete call could not remove. Paths that were
// already gone are not failures.
type DeleteError struct {
	Failures []*PathError
}

func (e *DeleteError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("imgcache: %d deletions failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *DeleteError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
