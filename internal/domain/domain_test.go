package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"nil user", nil, false},
		{"member", &User{IsActive: true}, false},
		{"superuser", &User{IsActive: true, IsSuperuser: true}, true},
		{"inactive superuser", &User{IsActive: false, IsSuperuser: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.IsAdmin())
		})
	}
}

func TestImage_HasTag(t *testing.T) {
	img := &Image{Tags: []*Tag{{ID: 1}, {ID: 3}}}

	assert.True(t, img.HasTag(1))
	assert.True(t, img.HasTag(3))
	assert.False(t, img.HasTag(2))
	assert.Equal(t, []int64{1, 3}, img.TagIDs())
}

func TestImage_IsTrending(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, (&Image{UploadedAt: now.Add(-time.Hour)}).IsTrending(now))
	assert.True(t, (&Image{UploadedAt: now.Add(-TrendingWindow)}).IsTrending(now), "boundary is inclusive")
	assert.False(t, (&Image{UploadedAt: now.Add(-TrendingWindow - time.Second)}).IsTrending(now))
}

func TestSession_IsExpired(t *testing.T) {
	now := time.Now()

	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).IsExpired(now))
	assert.True(t, (&Session{ExpiresAt: now}).IsExpired(now))
	assert.True(t, (&Session{ExpiresAt: now.Add(-time.Minute)}).IsExpired(now))
}
