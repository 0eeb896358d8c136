package profile

import (
	"errors"
	"fmt"

	"github.com/sells-group/profile-cli/internal/model"
)

// RunError is the terminal failure of an orchestrator run.
type RunError struct {
	Kind  model.FailureKind
	URL   string
	Stage State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("profile: %s during %s for %s: %v", e.Kind, e.Stage, e.URL, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Retryable reports whether resubmitting the URL may succeed.
func (e *RunError) Retryable() bool { return e.Kind.Retryable() }

// Failure returns the persisted form of the error.
func (e *RunError) Failure() *model.Failure {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return &model.Failure{Kind: e.Kind, Stage: string(e.Stage), URL: e.URL, Message: msg}
}

// AsRunError extracts a *RunError from err's chain.
func AsRunError(err error) (*RunError, bool) {
	var re *RunError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
