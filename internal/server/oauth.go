// package server runs the temporary local HTTP server that receives OAuth2
// authorization callbacks during `porter auth`.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of one authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	Err   error
}

// OAuthFlow drives a browser-based authorization code flow: it serves the
// redirect URI on a local port, validates the state parameter, exchanges the
// code and hands the token back.
type OAuthFlow struct {
	config *oauth2.Config
	state  string

	once    sync.Once
	results chan OAuthResult
}

// NewOAuthFlow creates a flow for the given OAuth2 config. The state token is
// generated fresh per flow for CSRF protection.
func NewOAuthFlow(config *oauth2.Config) (*OAuthFlow, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	return &OAuthFlow{
		config:  config,
		state:   hex.EncodeToString(buf),
		results: make(chan OAuthResult, 1),
	}, nil
}

// AuthURL returns the provider URL the user must open in a browser.
func (f *OAuthFlow) AuthURL() string {
	return f.config.AuthCodeURL(f.state, oauth2.AccessTypeOffline)
}

// Wait serves the redirect URI until the callback arrives or ctx expires,
// then returns the exchanged token.
func (f *OAuthFlow) Wait(ctx context.Context) (*oauth2.Token, error) {
	redirect, err := url.Parse(f.config.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", f.config.RedirectURL, err)
	}

	mux := http.NewServeMux()
	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux.HandleFunc(path, f.handleCallback)

	srv := &http.Server{Handler: mux}
	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	go srv.Serve(listener)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-f.results:
		return result.Token, result.Err
	}
}

func (f *OAuthFlow) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("state") != f.state {
		f.send(OAuthResult{Err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		f.send(OAuthResult{Err: fmt.Errorf("authorization failed: %s - %s",
			query.Get("error"), query.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := f.config.Exchange(r.Context(), code)
	if err != nil {
		f.send(OAuthResult{Err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	f.send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<body>
  <p>Authorization successful. You can close this window and return to the terminal.</p>
</body>
</html>
`)
}

// send delivers the result exactly once; a second callback hit is ignored.
func (f *OAuthFlow) send(result OAuthResult) {
	f.once.Do(func() {
		f.results <- result
		close(f.results)
	})
}
