package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskdash/internal/service"
)

const (
	// FirebaseCertsURL serves the x509 certificates that sign Firebase ID tokens.
	FirebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

	firebaseIssuerPrefix = "https://securetoken.google.com/"

	// defaultKeyTTL applies when the certs response carries no max-age.
	defaultKeyTTL = time.Hour

	// keyFetchTimeout bounds a single certificate download.
	keyFetchTimeout = 10 * time.Second

	// minRefreshInterval limits downloads triggered by unknown key ids
	// while the cached keys are still fresh.
	minRefreshInterval = time.Minute

	maxUIDLen = 128
)

// firebaseClaims is the payload of a Firebase ID token.
type firebaseClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	AuthTime int64  `json:"auth_time"`
}

// FirebaseVerifier verifies Firebase Authentication ID tokens.
type FirebaseVerifier struct {
	projectID string
	keys      *keySet
	now       func() time.Time
}

// FirebaseOption configures a FirebaseVerifier.
type FirebaseOption func(*FirebaseVerifier)

// WithCertsURL overrides the certificate endpoint.
func WithCertsURL(url string) FirebaseOption {
	return func(v *FirebaseVerifier) { v.keys.url = url }
}

// WithHTTPClient sets the client used to fetch certificates.
func WithHTTPClient(c *http.Client) FirebaseOption {
	return func(v *FirebaseVerifier) { v.keys.client = c }
}

// WithClock replaces time.Now (for testing).
func WithClock(now func() time.Time) FirebaseOption {
	return func(v *FirebaseVerifier) {
		v.now = now
		v.keys.now = now
	}
}

// NewFirebaseVerifier creates a verifier for tokens issued to projectID.
func NewFirebaseVerifier(projectID string, opts ...FirebaseOption) *FirebaseVerifier {
	v := &FirebaseVerifier{
		projectID: projectID,
		keys: &keySet{
			url:    FirebaseCertsURL,
			client: http.DefaultClient,
			now:    time.Now,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify implements service.Verifier.
func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (service.Identity, error) {
	if raw == "" {
		return service.Identity{}, service.Unauthorized(ErrMissingToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(firebaseIssuerPrefix+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)

	var claims firebaseClaims
	_, err := parser.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (interface{}, error) {
		kid, _ := tok.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.keys.get(ctx, kid)
	})
	if err != nil {
		// key download failures are the provider's, not the caller's
		var se *service.Error
		if errors.As(err, &se) && se.Kind == service.KindInternal {
			return service.Identity{}, se
		}
		return service.Identity{}, service.Unauthorized(err)
	}

	if claims.Subject == "" || len(claims.Subject) > maxUIDLen {
		return service.Identity{}, service.Unauthorized(errors.New("invalid subject claim"))
	}
	if claims.AuthTime > v.now().Unix() {
		return service.Identity{}, service.Unauthorized(errors.New("auth_time is in the future"))
	}

	return service.Identity{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
	}, nil
}

// keySet caches the provider's public keys by key id until the
// certificate response expires.
type keySet struct {
	url    string
	client *http.Client
	now    func() time.Time

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expiry  time.Time
	fetched time.Time
}

func (k *keySet) get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	key, ok := k.keys[kid]
	fresh := k.now().Before(k.expiry)
	k.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := k.refresh(ctx, kid); err != nil {
		return nil, service.Internal("Internal server error", err)
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok = k.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id: %s", kid)
	}
	return key, nil
}

// refresh downloads the keys when the cache has expired, or when kid is
// missing from a fresh cache and the last download is at least
// minRefreshInterval old.
func (k *keySet) refresh(ctx context.Context, kid string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if k.keys != nil && now.Before(k.expiry) {
		// another caller may have refreshed while we waited for the lock
		if _, ok := k.keys[kid]; ok {
			return nil
		}
		if now.Sub(k.fetched) < minRefreshInterval {
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, keyFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return err
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch signing keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch signing keys: unexpected status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode signing keys: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return fmt.Errorf("parse signing key %s: %w", kid, err)
		}
		keys[kid] = key
	}

	k.keys = keys
	k.fetched = now
	k.expiry = now.Add(maxAge(resp.Header.Get("Cache-Control")))
	return nil
}

// maxAge extracts max-age from a Cache-Control header.
func maxAge(header string) time.Duration {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return defaultKeyTTL
}
