// Package auth implements service.Verifier for the supported identity providers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskdash/internal/config"
	"taskdash/internal/service"
)

// ErrMissingToken indicates the Authorization header is absent or not a
// Bearer credential.
var ErrMissingToken = errors.New("missing bearer token")

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", service.Unauthorized(ErrMissingToken)
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", service.Unauthorized(ErrMissingToken)
	}
	return token, nil
}

// New creates the verifier selected by cfg.Auth.Provider.
func New(ctx context.Context, cfg *config.Config) (service.Verifier, error) {
	switch cfg.Auth.Provider {
	case config.ProviderFirebase:
		var opts []FirebaseOption
		if cfg.Auth.CertsURL != "" {
			opts = append(opts, WithCertsURL(cfg.Auth.CertsURL))
		}
		return NewFirebaseVerifier(cfg.Auth.ProjectID, opts...), nil
	case config.ProviderGoogle:
		return NewGoogleVerifier(ctx, cfg.Auth.Audience)
	case config.ProviderStatic:
		return NewStaticVerifierFromConfig(cfg.Auth.StaticTokens), nil
	default:
		return nil, fmt.Errorf("unknown auth provider: %s", cfg.Auth.Provider)
	}
}
