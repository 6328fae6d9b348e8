package docsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	docsScope       = "https://www.googleapis.com/auth/documents"
	jwtGrantType    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	defaultTokenURI = "https://oauth2.googleapis.com/token"
)

// ServiceAccount holds the subset of a Google service-account key file the
// adapter needs.
type ServiceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

func LoadServiceAccount(path string) (ServiceAccount, error) {
	var sa ServiceAccount
	data, err := os.ReadFile(path)
	if err != nil {
		return sa, fmt.Errorf("read service account file: %w", err)
	}
	if err := json.Unmarshal(data, &sa); err != nil {
		return sa, fmt.Errorf("parse service account file: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return sa, fmt.Errorf("service account file missing client_email or private_key")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = defaultTokenURI
	}
	return sa, nil
}

// tokenSource exchanges a signed RS256 assertion for an access token and
// caches it until shortly before expiry.
type tokenSource struct {
	sa     ServiceAccount
	client *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newTokenSource(sa ServiceAccount, client *http.Client) *tokenSource {
	return &tokenSource{sa: sa, client: client}
}

func (t *tokenSource) AccessToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expires.Add(-time.Minute)) {
		return t.token, nil
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(t.sa.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   t.sa.ClientEmail,
		"scope": docsScope,
		"aud":   t.sa.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {jwtGrantType},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.sa.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}

	t.token = tok.AccessToken
	t.expires = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	return t.token, nil
}
