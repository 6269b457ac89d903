package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	assertionLifetime = time.Hour
	// Refresh slack: treat a cached token as expired this long before the
	// gateway would.
	expirySkew = 60 * time.Second
)

// TokenSource exchanges a signed service-account assertion for a bearer
// token and caches it until close to expiry. Safe for concurrent use.
type TokenSource struct {
	sa     *ServiceAccount
	client *http.Client
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewTokenSource(sa *ServiceAccount, client *http.Client) *TokenSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TokenSource{sa: sa, client: client, now: time.Now}
}

// Token returns a bearer token valid for at least expirySkew, re-signing and
// re-exchanging only when the cached one is stale.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	if ts.token != "" && now.Before(ts.expires.Add(-expirySkew)) {
		return ts.token, nil
	}

	assertion, err := ts.signAssertion(now)
	if err != nil {
		return "", err
	}
	tok, ttl, err := ts.exchange(ctx, assertion)
	if err != nil {
		return "", err
	}

	ts.token = tok
	ts.expires = now.Add(ttl)
	return tok, nil
}

// Invalidate drops the cached token so the next call re-exchanges.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.expires = time.Time{}
	ts.mu.Unlock()
}

func (ts *TokenSource) signAssertion(now time.Time) (string, error) {
	if ts.sa == nil || ts.sa.Key() == nil {
		return "", fmt.Errorf("%w: no service account loaded", ErrCredential)
	}
	claims := jwt.MapClaims{
		"iss":   ts.sa.ClientEmail,
		"sub":   ts.sa.ClientEmail,
		"aud":   ts.sa.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
		"scope": messagingScope,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := tok.SignedString(ts.sa.Key())
	if err != nil {
		return "", fmt.Errorf("%w: sign assertion: %v", ErrCredential, err)
	}
	return signed, nil
}

func (ts *TokenSource) exchange(ctx context.Context, assertion string) (string, time.Duration, error) {
	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.sa.TokenURI,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrCredential, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: token exchange: %v", ErrCredential, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("%w: token exchange returned %d: %s",
			ErrCredential, resp.StatusCode, compact(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", 0, fmt.Errorf("%w: decode token response: %v", ErrCredential, err)
	}
	if out.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: empty access_token", ErrCredential)
	}
	ttl := time.Duration(out.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = assertionLifetime
	}
	return out.AccessToken, ttl, nil
}

func compact(b []byte) string {
	s := strings.Join(strings.Fields(string(b)), " ")
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
