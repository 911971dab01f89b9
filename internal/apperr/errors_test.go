package apperr

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	t.Run("errors.Is matches on kind", func(t *testing.T) {
		err := Conflict("Book is already issued")
		assert.True(t, stderrors.Is(err, ErrConflict))
		assert.False(t, stderrors.Is(err, ErrNotFound))
	})

	t.Run("errors.Is matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("issue: %w", NotFound("Book not found"))
		assert.True(t, stderrors.Is(err, ErrNotFound))
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.Equal(t, "Book not found", MessageOf(err))
	})

	t.Run("unclassified errors are internal", func(t *testing.T) {
		err := stderrors.New("disk on fire")
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Equal(t, "internal server error", MessageOf(err))
	})

	t.Run("internal errors hide their cause from clients", func(t *testing.T) {
		root := stderrors.New("no such table: books")
		err := Internal(root, "list books")
		assert.True(t, stderrors.Is(err, ErrInternal))
		assert.Equal(t, "internal server error", MessageOf(err))
		assert.Equal(t, root, Cause(err))
		assert.Contains(t, err.Error(), "no such table")
	})

	t.Run("internal of nil is nil", func(t *testing.T) {
		assert.NoError(t, Internal(nil, "noop"))
	})
}
