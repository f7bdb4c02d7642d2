package archiving

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/user"
)

// TxError reports a storage failure that aborted an archival: nothing it did was committed.
// errors.Cause stops at a *TxError; errors.Is/As see through it.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("archival aborted while %s: %v", e.Op, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

func txError(op string, err error) error {
	return &TxError{Op: op, Err: err}
}

// IsTxError reports whether `err` is, or wraps, a *TxError.
func IsTxError(err error) bool {
	_, ok := errors.Cause(err).(*TxError)
	return ok
}

// IsNotFound reports whether `err` means that the requested live or archived record does not exist.
func IsNotFound(err error) bool {
	switch errors.Cause(err) {
	case academic.ErrGroupNotFound,
		academic.ErrStudentNotFound,
		academic.ErrSubjectNotFound,
		academic.ErrGradeNotFound,
		archive.ErrNotFound,
		user.ErrNotFound:
		return true
	}
	return false
}

// lookupError keeps not-found errors of the archived target as they are; anything else is a storage failure.
func lookupError(op string, err error) error {
	if IsNotFound(err) {
		return errors.Wrap(err, op)
	}
	return txError(op, err)
}

// archivalError reports any storage failure of an archival transaction, commit included, as a *TxError.
func archivalError(err error) error {
	if err == nil || IsNotFound(err) || core.IsValidationError(err) || IsTxError(err) {
		return err
	}
	return txError("committing archival", err)
}
