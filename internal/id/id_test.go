package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("sess")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"sess", "task", "req"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			// NanoID default is 21 characters.
			assert.Len(t, strings.TrimPrefix(id, prefix+"-"), 21)
		})
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustGenerate("sess")
		assert.True(t, strings.HasPrefix(id, "sess-"))
	})
}

func TestPublicID(t *testing.T) {
	t.Run("with folder", func(t *testing.T) {
		pid, err := PublicID("gallery")
		require.NoError(t, err)

		require.True(t, strings.HasPrefix(pid, "gallery/"))
		suffix := strings.TrimPrefix(pid, "gallery/")
		assert.Len(t, suffix, publicIDLength)
		for _, c := range suffix {
			assert.True(t, strings.ContainsRune(publicIDAlphabet, c), "unexpected rune %q in %s", c, pid)
		}
	})

	t.Run("without folder", func(t *testing.T) {
		pid, err := PublicID("")
		require.NoError(t, err)
		assert.NotContains(t, pid, "/")
		assert.Len(t, pid, publicIDLength)
	})
}
