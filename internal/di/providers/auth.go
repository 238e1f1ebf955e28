package providers

import (
	"github.com/samber/do/v2"

	"github.com/iconcommons/iconcommons-server/internal/auth"
	"github.com/iconcommons/iconcommons-server/internal/config"
	"github.com/iconcommons/iconcommons-server/internal/logger"
)

// AuthKey wraps the hex-encoded upload token key.
type AuthKey string

// ProvideAuthKey loads or generates the upload token key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return "", err
	}

	log.Info("Upload token key loaded",
		"token_duration", cfg.Upload.TokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(authKey), cfg.Upload.TokenDuration)
}
