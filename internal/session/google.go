package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested for Google sign-in.
var signInScopes = []string{"openid", "email", "profile"}

const (
	// OAuth callback timeout
	callbackTimeout = 5 * time.Minute

	// Token exchange timeout
	exchangeTimeout = 30 * time.Second

	// Starting port for the OAuth callback server
	callbackStartPort = 8085

	// Max port attempts
	callbackMaxPortAttempts = 5
)

// GoogleSignIn runs the OAuth2 authorization code flow with PKCE against a
// loopback redirect and returns the Google ID token.
type GoogleSignIn struct {
	Config *oauth2.Config

	// OpenURL presents the consent URL to the user. Defaults to printing
	// it to Prompt.
	OpenURL func(url string) error

	// Prompt receives the consent URL when OpenURL is not set.
	Prompt io.Writer

	// StartPort is the first loopback port tried. Zero uses 8085.
	StartPort int
}

// NewGoogleSignIn creates a sign-in flow from a downloaded OAuth client
// JSON file (desktop application type).
func NewGoogleSignIn(clientJSON []byte, prompt io.Writer) (*GoogleSignIn, error) {
	cfg, err := google.ConfigFromJSON(clientJSON, signInScopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth client: %w", err)
	}
	return &GoogleSignIn{Config: cfg, Prompt: prompt}, nil
}

// IDToken runs the flow and returns the ID token from the token response.
func (g *GoogleSignIn) IDToken(ctx context.Context) (string, error) {
	port, listener, err := g.listen()
	if err != nil {
		return "", err
	}
	defer listener.Close()

	cfg := *g.Config
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, errors.New("oauth state mismatch"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("no code in callback: %s", q.Get("error")))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Signed in</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			sendErr(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := g.open(authURL); err != nil {
		return "", err
	}

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return "", err
	case <-time.After(callbackTimeout):
		return "", errors.New("oauth callback timed out")
	case <-ctx.Done():
		return "", ctx.Err()
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	token, err := cfg.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("failed to exchange code for token: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return "", errors.New("token response has no id_token")
	}
	return idToken, nil
}

func (g *GoogleSignIn) open(url string) error {
	if g.OpenURL != nil {
		return g.OpenURL(url)
	}
	w := g.Prompt
	if w == nil {
		w = io.Discard
	}
	fmt.Fprintln(w, "Open this URL in your browser:")
	fmt.Fprintln(w, url)
	return nil
}

// listen finds a free loopback port starting at StartPort.
func (g *GoogleSignIn) listen() (int, net.Listener, error) {
	start := g.StartPort
	if start == 0 {
		start = callbackStartPort
	}
	for i := 0; i < callbackMaxPortAttempts; i++ {
		port := start + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, errors.New("could not bind to local port for OAuth callback")
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
