package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/galleryapp/gallery-server/internal/errors"
)

type signupForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email"`
	Password  string `form:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, v.Validate(signupForm{Username: "alice.b+1", Password: "x", Password2: "x"}))
	})

	t.Run("collects field messages", func(t *testing.T) {
		err := v.Validate(signupForm{Username: "bad name!", Email: "nope"})
		require.Error(t, err)

		var derr *domainerrors.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, domainerrors.CodeValidation, derr.Code)

		details, ok := derr.Details.(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "must be a valid email address", details["email"])
		assert.Equal(t, "is required", details["password"])
		assert.Equal(t, "is required", details["password2"])
		assert.Contains(t, details["username"], "letters, numbers")
	})

	t.Run("max length", func(t *testing.T) {
		long := make([]byte, 151)
		for i := range long {
			long[i] = 'a'
		}
		err := v.Validate(signupForm{Username: string(long), Password: "x", Password2: "x"})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
		assert.Contains(t, err.Error(), "must not exceed 150 characters")
	})
}
