package auth

import "time"

// SessionClaims are the decrypted contents of a session cookie token.
// v4.local tokens are encrypted, so clients cannot read them.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	UserID    int64  `json:"user_id"`

	Issuer     string    `json:"iss"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	IssuedAt   time.Time `json:"iat"`
}
