package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"survey-gateway/internal/identity"
)

func TestAllowList(t *testing.T) {
	admins := NewAllowList("admin@example.com", "")

	assert.Equal(t, 1, admins.Len())
	assert.True(t, admins.AllowExport(identity.Identity{SubjectID: "a", Email: "admin@example.com"}))

	t.Run("match is case-sensitive", func(t *testing.T) {
		assert.False(t, admins.AllowExport(identity.Identity{Email: "Admin@example.com"}))
	})

	t.Run("no partial or padded matches", func(t *testing.T) {
		assert.False(t, admins.AllowExport(identity.Identity{Email: "admin@example.com "}))
		assert.False(t, admins.AllowExport(identity.Identity{Email: "admin@example"}))
	})

	t.Run("empty email never matches", func(t *testing.T) {
		assert.False(t, admins.AllowExport(identity.Identity{}))
	})

	t.Run("empty list permits nobody", func(t *testing.T) {
		assert.False(t, NewAllowList().AllowExport(identity.Identity{Email: "admin@example.com"}))
	})
}
