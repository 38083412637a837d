package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsMatchByKind(t *testing.T) {
	err := New(KindDuplicateKey, "student %s already exists", "R12345678")

	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "student R12345678 already exists", err.Error())
}

func TestWrappedErrorsKeepCause(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("export: %w", Wrap(cause, KindIOFailure, "failed to write csv"))

	assert.ErrorIs(t, err, ErrIOFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindIOFailure, KindOf(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(ErrNotFound))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := errors.New("boom")
	got := FromError(plain)
	assert.Equal(t, KindInternal, got.Kind)
	assert.ErrorIs(t, got, plain)

	typed := New(KindInvalidType, "bad type")
	assert.Same(t, typed, FromError(typed))
}
