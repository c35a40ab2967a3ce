package printer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/wormhole/internal/domain"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err       error
		wantTitle string
	}{
		{fmt.Errorf("%w: a.msg", domain.ErrNotFound), "Message not found"},
		{fmt.Errorf("identifier: %w", domain.ErrInvalidIdentifier), "Invalid channel or identifier"},
		{fmt.Errorf("%w: after 5s", domain.ErrTimeout), "Timed out waiting for a file lock"},
		{domain.ErrAlreadyExists, "Message already exists"},
		{domain.ErrCorruptManifest, "Manifest is corrupt"},
		{domain.ErrInvalidConfig, "Invalid configuration"},
		{fmt.Errorf("%w: rename: %w", domain.ErrIO, errors.New("disk full")), "File system error"},
		{errors.New("something else"), "Command failed"},
	}
	for _, tt := range tests {
		t.Run(tt.wantTitle, func(t *testing.T) {
			title, _ := Describe(tt.err)
			require.Equal(t, tt.wantTitle, title)
		})
	}
}

func TestFailure(t *testing.T) {
	err := Failure(fmt.Errorf("%w: ghost", domain.ErrNotFound))
	require.EqualError(t, err, "Message not found")
}
