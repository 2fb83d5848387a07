package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"taskdash/internal/service"
)

// tokenValidator is the subset of idtoken.Validator used here.
type tokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier verifies Google Sign-In ID tokens issued to an OAuth client.
type GoogleVerifier struct {
	validator tokenValidator
	audience  string
}

// NewGoogleVerifier creates a verifier accepting tokens whose audience is
// the given OAuth client id.
func NewGoogleVerifier(ctx context.Context, audience string, opts ...option.ClientOption) (*GoogleVerifier, error) {
	v, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create id token validator: %w", err)
	}
	return &GoogleVerifier{validator: v, audience: audience}, nil
}

// Verify implements service.Verifier.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (service.Identity, error) {
	if token == "" {
		return service.Identity{}, service.Unauthorized(ErrMissingToken)
	}

	payload, err := v.validator.Validate(ctx, token, v.audience)
	if err != nil {
		return service.Identity{}, classifyValidateError(err)
	}
	if payload.Subject == "" {
		return service.Identity{}, service.Unauthorized(errors.New("invalid subject claim"))
	}
	return identityFromPayload(payload), nil
}

// classifyValidateError separates certificate download failures, which are
// internal, from token rejections.
func classifyValidateError(err error) error {
	var urlErr *url.Error
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &urlErr), errors.As(err, &syntaxErr),
		strings.Contains(err.Error(), "unable to retrieve cert"),
		strings.Contains(err.Error(), "cert response is nil"):
		return service.Internal("Internal server error", err)
	default:
		return service.Unauthorized(err)
	}
}

func identityFromPayload(p *idtoken.Payload) service.Identity {
	claim := func(name string) string {
		s, _ := p.Claims[name].(string)
		return s
	}
	return service.Identity{
		UID:         p.Subject,
		Email:       claim("email"),
		DisplayName: claim("name"),
		PhotoURL:    claim("picture"),
	}
}
