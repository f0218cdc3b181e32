package auth

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/galleryapp/gallery-server/internal/domain"
)

const (
	tokenIssuer   = "gallery-server"
	tokenAudience = "gallery-web"
)

// TokenService seals session ids into PASETO v4.local cookie values.
type TokenService struct {
	key paseto.V4SymmetricKey
}

// NewTokenService creates a TokenService from a 64-character hex key.
func NewTokenService(keyHex string) (*TokenService, error) {
	if err := ValidateKey(keyHex); err != nil {
		return nil, err
	}
	raw, _ := hex.DecodeString(keyHex)

	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("create PASETO key: %w", err)
	}
	return &TokenService{key: key}, nil
}

// Seal issues a token referencing session, expiring with it.
func (s *TokenService) Seal(session *domain.Session) string {
	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(session.ID)
	token.SetIssuedAt(session.CreatedAt)
	token.SetNotBefore(session.CreatedAt)
	token.SetExpiration(session.ExpiresAt)

	//nolint:errcheck // Set only fails on unmarshalable values
	_ = token.Set("session_id", session.ID)
	//nolint:errcheck // Set only fails on unmarshalable values
	_ = token.Set("user_id", session.UserID)

	return token.V4Encrypt(s.key, nil)
}

// Open decrypts and validates a token. The session it names must still be
// looked up; the token alone does not prove the session is live.
func (s *TokenService) Open(tokenString string, now time.Time) (*SessionClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(now))

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims SessionClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("invalid token: missing session id")
	}
	return &claims, nil
}
