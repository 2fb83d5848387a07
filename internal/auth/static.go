package auth

import (
	"context"
	"errors"

	"taskdash/internal/config"
	"taskdash/internal/service"
)

// StaticVerifier accepts a fixed set of tokens. Development and tests only.
type StaticVerifier struct {
	identities map[string]service.Identity
}

// NewStaticVerifier creates a verifier from a token -> identity table.
func NewStaticVerifier(identities map[string]service.Identity) *StaticVerifier {
	m := make(map[string]service.Identity, len(identities))
	for token, id := range identities {
		m[token] = id
	}
	return &StaticVerifier{identities: m}
}

// NewStaticVerifierFromConfig builds a verifier from [[auth.static_tokens]].
func NewStaticVerifierFromConfig(tokens []config.StaticToken) *StaticVerifier {
	m := make(map[string]service.Identity, len(tokens))
	for _, st := range tokens {
		m[st.Token] = service.Identity{
			UID:         st.UID,
			Email:       st.Email,
			DisplayName: st.DisplayName,
			PhotoURL:    st.PhotoURL,
		}
	}
	return &StaticVerifier{identities: m}
}

// Verify implements service.Verifier.
func (v *StaticVerifier) Verify(ctx context.Context, token string) (service.Identity, error) {
	if token == "" {
		return service.Identity{}, service.Unauthorized(ErrMissingToken)
	}
	id, ok := v.identities[token]
	if !ok {
		return service.Identity{}, service.Unauthorized(errors.New("unknown token"))
	}
	return id, nil
}
