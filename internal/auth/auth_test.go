package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galleryapp/gallery-server/internal/domain"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))
	assert.False(t, VerifyPassword("not-a-hash", "correct horse"))

	other, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, first, keyHexLength)

	second, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second, "key is persisted")

	info, err := os.Stat(filepath.Join(dir, SecretKeyFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, os.WriteFile(filepath.Join(dir, SecretKeyFile), []byte("short"), 0o600))
	_, err = LoadOrGenerateKey(dir)
	assert.Error(t, err)
}

func TestTokenService_SealOpen(t *testing.T) {
	key, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)

	svc, err := NewTokenService(key)
	require.NoError(t, err)

	now := time.Now()
	session := &domain.Session{ID: "sess-abc", UserID: 7, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	token := svc.Seal(session)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.Open(token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "sess-abc", claims.SessionID)
	assert.Equal(t, int64(7), claims.UserID)

	_, err = svc.Open(token, now.Add(2*time.Hour))
	assert.Error(t, err, "expired")

	_, err = svc.Open("v4.local.garbage", now)
	assert.Error(t, err)

	otherKey, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	other, err := NewTokenService(otherKey)
	require.NoError(t, err)
	_, err = other.Open(token, now)
	assert.Error(t, err, "wrong key")
}

func TestNewTokenService_RejectsBadKeys(t *testing.T) {
	_, err := NewTokenService("abc")
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("zz", 32))
	assert.Error(t, err)
}
