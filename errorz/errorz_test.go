package errorz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("tagged errors keep their kind through wrapping", func(t *testing.T) {
		err := fmt.Errorf("get question: %w", ErrNotFound)
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrInvalidID))
	})

	t.Run("untagged errors are internal", func(t *testing.T) {
		assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
		assert.Equal(t, "", PublicMessage(errors.New("boom")))
	})

	t.Run("validation carries the formatted message", func(t *testing.T) {
		err := Validation("'%s' cannot be empty.", "title")
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Equal(t, "'title' cannot be empty.", PublicMessage(err))
	})

	t.Run("unavailable unwraps to the store error", func(t *testing.T) {
		err := Unavailable("find question", context.DeadlineExceeded)
		assert.Equal(t, KindUnavailable, KindOf(err))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Contains(t, err.Error(), "find question")
	})
}
