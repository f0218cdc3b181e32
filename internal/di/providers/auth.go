package providers

import (
	"github.com/samber/do/v2"

	"github.com/galleryapp/gallery-server/internal/auth"
	"github.com/galleryapp/gallery-server/internal/config"
	"github.com/galleryapp/gallery-server/internal/logger"
)

// AuthKey is the hex-encoded session signing key.
type AuthKey string

// ProvideAuthKey uses SECRET_KEY when set, otherwise loads or generates a
// key file in the data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.SecretKey != "" {
		if err := auth.ValidateKey(cfg.Auth.SecretKey); err != nil {
			return "", err
		}
		log.Info("Session key loaded from configuration",
			"session_duration", cfg.Auth.SessionDuration,
		)
		return AuthKey(cfg.Auth.SecretKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.Path)
	if err != nil {
		return "", err
	}

	log.Info("Session key loaded",
		"session_duration", cfg.Auth.SessionDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO session token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	authKey := do.MustInvoke[AuthKey](i)
	return auth.NewTokenService(string(authKey))
}
