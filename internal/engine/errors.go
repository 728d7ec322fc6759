package engine

import "errors"

// Sentinel errors returned by engine operations. Callers match with
// errors.Is; API surfaces map them to stable codes via CodeOf.
var (
	ErrNotFound          = errors.New("task not found")
	ErrParentNotFound    = errors.New("parent task not found")
	ErrValidation        = errors.New("validation failed")
	ErrCircularReference = errors.New("cannot create circular parent relationship")
	ErrAlreadyCompleted  = errors.New("task is already completed")
	ErrInternal          = errors.New("internal storage error")
)

// CodeOf maps an engine error to its stable error code. Unknown errors are
// reported as internal_error since they can only originate from collaborators.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrParentNotFound):
		return "parent_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrCircularReference):
		return "circular_reference"
	case errors.Is(err, ErrAlreadyCompleted):
		return "already_completed"
	default:
		return "internal_error"
	}
}

// internalErr tags a collaborator failure as ErrInternal. The engine
// guarantees nothing was committed, so retrying after one is always safe.
func internalErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrInternal, err)
}
