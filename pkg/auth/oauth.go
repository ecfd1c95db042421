package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// OAuth2Config holds OAuth2 configuration
type OAuth2Config struct {
	CredentialsPath string
	TokenPath       string
	Scopes          []string
}

// NewOAuth2Config creates a new OAuth2 configuration
func NewOAuth2Config(credentialsPath, tokenPath string, scopes ...string) *OAuth2Config {
	return &OAuth2Config{
		CredentialsPath: credentialsPath,
		TokenPath:       tokenPath,
		Scopes:          scopes,
	}
}

// LoadCredentials loads OAuth2 credentials from file
func (c *OAuth2Config) LoadCredentials() (*oauth2.Config, error) {
	data, err := os.ReadFile(c.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("could not read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(data, c.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("could not parse credentials file: %w", err)
	}

	return config, nil
}

// LoadToken loads cached token from file
func (c *OAuth2Config) LoadToken() (*oauth2.Token, error) {
	f, err := os.Open(c.TokenPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

// SaveToken saves token to file
func (c *OAuth2Config) SaveToken(token *oauth2.Token) error {
	dir := filepath.Dir(c.TokenPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(c.TokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("could not save OAuth token: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}

// GetToken retrieves a token, refreshing or re-authenticating if necessary
func (c *OAuth2Config) GetToken(ctx context.Context) (*oauth2.Token, error) {
	config, err := c.LoadCredentials()
	if err != nil {
		return nil, err
	}

	token, err := c.LoadToken()
	if err != nil {
		token, err = c.authenticate(ctx, config)
		if err != nil {
			return nil, err
		}
	}

	if !token.Valid() {
		refreshed, err := config.TokenSource(ctx, token).Token()
		if err != nil {
			// Refresh token expired or revoked; run the interactive flow again
			refreshed, err = c.authenticate(ctx, config)
			if err != nil {
				return nil, fmt.Errorf("re-authentication failed: %w", err)
			}
		}
		token = refreshed
	}

	if err := c.SaveToken(token); err != nil {
		return nil, err
	}
	return token, nil
}

// authenticate performs OAuth2 authentication with a local redirect server
func (c *OAuth2Config) authenticate(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	server := &http.Server{
		Addr: ":8080",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code != "" {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("<html><body><h2>Authorization successful</h2><p>You can close this window and return to the application.</p></body></html>"))
				codeChan <- code
			} else {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte("<html><body><h2>Authorization error</h2><p>Authorization code not received.</p></body></html>"))
				errorChan <- fmt.Errorf("authorization code not received")
			}
		}),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errorChan <- err
		}
	}()

	localConfig := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  "http://localhost:8080",
		Scopes:       config.Scopes,
		Endpoint:     config.Endpoint,
	}

	authURL := localConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("\nAuthorization required.\n1. Open this link: %s\n2. Grant access to the application\n\nWaiting for authorization...\n", authURL)

	var authCode string
	select {
	case authCode = <-codeChan:
	case err := <-errorChan:
		_ = server.Shutdown(ctx)
		return nil, fmt.Errorf("local server error: %w", err)
	case <-time.After(5 * time.Minute):
		_ = server.Shutdown(ctx)
		return nil, fmt.Errorf("authorization timeout exceeded")
	}

	_ = server.Shutdown(ctx)

	token, err := localConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("could not exchange authorization code for token: %w", err)
	}
	return token, nil
}

// NewGmailService creates a new Gmail service using OAuth2
func NewGmailService(ctx context.Context, credentialsPath, tokenPath string, scopes ...string) (*gmail.Service, error) {
	oauthConfig := NewOAuth2Config(credentialsPath, tokenPath, scopes...)

	token, err := oauthConfig.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	config, err := oauthConfig.LoadCredentials()
	if err != nil {
		return nil, err
	}

	httpClient := config.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("could not create Gmail service: %w", err)
	}

	return service, nil
}
