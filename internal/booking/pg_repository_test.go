package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.True(t, isTransient(fmt.Errorf("exec query: %w", context.DeadlineExceeded)))

	assert.False(t, isTransient(errors.New("syntax error at or near")))
	assert.False(t, isTransient(pgx.ErrNoRows))
	assert.False(t, isTransient(context.Canceled))
}

func TestStoreError_Classification(t *testing.T) {
	err := storeError("list slots", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "list slots")

	// Non-transient failures pass through without the retryable marker.
	err = storeError("list slots", errors.New("relation does not exist"))
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "list slots")
}
