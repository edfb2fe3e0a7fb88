package lock

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNoopSlotLockerRunsFn(t *testing.T) {
	called := false
	err := NoopSlotLocker().WithSlotLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestNoopSlotLockerPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := NoopSlotLocker().WithSlotLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
