package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"

	"taskdash/internal/service"
)

var now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func idToken(t *testing.T, claims idClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func adaClaims() idClaims {
	return idClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email:   "ada@example.com",
		Name:    "Ada",
		Picture: "https://example.com/ada.png",
	}
}

func TestManager_SignInOut(t *testing.T) {
	m := NewManager(WithClock(func() time.Time { return now }))

	var seen []*service.Identity
	unsubscribe := m.OnSessionChange(func(id *service.Identity) { seen = append(seen, id) })

	token := idToken(t, adaClaims())
	id, err := m.SignIn(context.Background(), token)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	want := service.Identity{UID: "u1", Email: "ada@example.com", DisplayName: "Ada", PhotoURL: "https://example.com/ada.png"}
	if id != want {
		t.Errorf("expected %+v, got %+v", want, id)
	}

	tok, err := m.Token()
	if err != nil || tok.AccessToken != token || tok.Type() != "Bearer" {
		t.Errorf("unexpected token %+v, %v", tok, err)
	}

	m.SignOut()
	m.SignOut()
	unsubscribe()
	m.SignIn(context.Background(), token)

	if diff := cmp.Diff([]*service.Identity{nil, &want, nil}, seen); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_Token(t *testing.T) {
	clock := now
	m := NewManager(WithClock(func() time.Time { return clock }))

	if _, err := m.Token(); !errors.Is(err, ErrSignedOut) {
		t.Errorf("expected signed out, got %v", err)
	}

	if _, err := m.SignIn(context.Background(), idToken(t, adaClaims())); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	clock = now.Add(2 * time.Hour)
	if _, err := m.Token(); !errors.Is(err, ErrExpired) {
		t.Errorf("expected expired, got %v", err)
	}
}

func TestManager_RejectsBadTokens(t *testing.T) {
	m := NewManager(WithClock(func() time.Time { return now }))

	expired := adaClaims()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	noSubject := adaClaims()
	noSubject.Subject = ""

	for name, token := range map[string]string{
		"garbage":    "not-a-jwt",
		"expired":    idToken(t, expired),
		"no subject": idToken(t, noSubject),
	} {
		if _, err := m.SignIn(context.Background(), token); !errors.Is(err, service.ErrUnauthorized) {
			t.Errorf("%s: expected unauthorized, got %v", name, err)
		}
	}
	if m.Current() != nil {
		t.Error("rejected tokens must not start a session")
	}
}

func TestManager_FirebaseUserID(t *testing.T) {
	m := NewManager(WithClock(func() time.Time { return now }))
	c := adaClaims()
	c.Subject = ""
	c.UserID = "fb-uid"
	id, err := m.SignIn(context.Background(), idToken(t, c))
	if err != nil || id.UID != "fb-uid" {
		t.Errorf("expected user_id fallback, got %+v, %v", id, err)
	}
}

type stubVerifier struct {
	id  service.Identity
	err error
}

func (s stubVerifier) Verify(ctx context.Context, token string) (service.Identity, error) {
	return s.id, s.err
}

func TestManager_WithVerifier(t *testing.T) {
	verified := service.Identity{UID: "verified", Email: "v@example.com"}
	m := NewManager(WithClock(func() time.Time { return now }), WithVerifier(stubVerifier{id: verified}))

	id, err := m.SignIn(context.Background(), idToken(t, adaClaims()))
	if err != nil || id != verified {
		t.Errorf("expected verifier identity, got %+v, %v", id, err)
	}

	m = NewManager(WithClock(func() time.Time { return now }), WithVerifier(stubVerifier{err: service.ErrUnauthorized}))
	if _, err := m.SignIn(context.Background(), idToken(t, adaClaims())); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestManager_OnSessionChangeRacesSignOut(t *testing.T) {
	for i := 0; i < 50; i++ {
		m := NewManager(WithClock(func() time.Time { return now }))
		if _, err := m.SignIn(context.Background(), idToken(t, adaClaims())); err != nil {
			t.Fatalf("sign in: %v", err)
		}

		var mu sync.Mutex
		var last *service.Identity
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.OnSessionChange(func(id *service.Identity) {
				mu.Lock()
				last = id
				mu.Unlock()
			})
		}()
		go func() {
			defer wg.Done()
			m.SignOut()
		}()
		wg.Wait()

		mu.Lock()
		if last != nil {
			t.Fatalf("run %d: listener left with %+v after sign-out", i, *last)
		}
		mu.Unlock()
	}
}
