package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ServiceError
		expected string
	}{
		{
			name:     "timeout",
			err:      &ServiceError{Service: "weather", Op: "fetch", Err: context.DeadlineExceeded},
			expected: "weather fetch: context deadline exceeded",
		},
		{
			name:     "unauthorized",
			err:      &ServiceError{Service: "calendar", Op: "create event", Err: ErrUnauthorized},
			expected: "calendar create event: not authorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.True(t, errors.Is(tt.err, tt.err.Err))
		})
	}
}

func TestIsInvariant(t *testing.T) {
	err := &InvariantError{Invariant: "single-pending", Detail: "slot fill and confirmation both set"}
	assert.Equal(t, "invariant single-pending violated: slot fill and confirmation both set", err.Error())
	assert.True(t, IsInvariant(err))
	assert.True(t, IsInvariant(fmt.Errorf("failed to restore memory: %w", err)))
	assert.False(t, IsInvariant(ErrSessionNotFound))
	assert.False(t, IsInvariant(nil))
}
