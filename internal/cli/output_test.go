package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitError_Error(t *testing.T) {
	assert.Equal(t, "bad spec", NewExitError(ExitCommandError, "bad spec").Error())

	wrapped := WrapExitError(ExitFailure, "verification failed", errors.New("sum mismatch: got 2, expected 3"))
	assert.Equal(t, "verification failed: sum mismatch: got 2, expected 3", wrapped.Error())
}

func TestExitError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	assert.ErrorIs(t, WrapExitError(ExitCommandError, "failed to save", inner), inner)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))

	// Codes survive further wrapping.
	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	err := printJSON(&buf, map[string]int{"covered": 3})
	assert.NoError(t, err)
	assert.Equal(t, "{\n  \"covered\": 3\n}\n", buf.String())
}
