package db

import (
	"context"
	"errors"
	"testing"
)

func TestError_WrapsOp(t *testing.T) {
	err := &Error{Op: OpSearch, Err: context.DeadlineExceeded}
	if err.Error() != "_search: context deadline exceeded" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected Unwrap to expose the cause")
	}

	var dbErr *Error
	if !errors.As(error(err), &dbErr) || dbErr.Op != OpSearch {
		t.Errorf("errors.As failed: %v", dbErr)
	}
}
