package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"page-auth-service/internal/config"
	"page-auth-service/internal/domain"
	"page-auth-service/internal/domain/ports/provider"
)

// SubjectPrefix namespaces provider subject identifiers so a future second
// provider cannot collide with Naver ids.
const SubjectPrefix = "naver:"

// Ensure implementation satisfies the port.
var _ provider.IdentityProvider = (*NaverProvider)(nil)

// NaverProvider drives the Naver authorization-code flow. All endpoints are
// configurable so tests can point it at a local fake.
type NaverProvider struct {
	cfg         config.ProviderConfig
	callbackURL string
	client      *http.Client
}

func NewNaverProvider(cfg config.ProviderConfig, callbackURL string) *NaverProvider {
	return &NaverProvider{
		cfg:         cfg,
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *NaverProvider) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.callbackURL)
	q.Set("state", state)
	return p.cfg.AuthorizeURL + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode trades the authorization code for an access token via a
// direct server-to-server call.
func (p *NaverProvider) ExchangeCode(ctx context.Context, code, state string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("state", state)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("token exchange: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK || tr.AccessToken == "" {
		return "", fmt.Errorf("%w: status=%d error=%s", domain.ErrProviderDenied, resp.StatusCode, tr.Error)
	}
	return tr.AccessToken, nil
}

// profileResponse mirrors Naver's /v1/nid/me envelope.
type profileResponse struct {
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	Response   struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname"`
		Name     string `json:"name"`
		Email    string `json:"email"`
	} `json:"response"`
}

// FetchProfile loads the provider profile; a response without a stable
// subject identifier is treated as a denied exchange.
func (p *NaverProvider) FetchProfile(ctx context.Context, accessToken string) (*provider.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.ProfileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile fetch: %w", err)
	}
	defer resp.Body.Close()

	var pr profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("profile fetch: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK || pr.Response.ID == "" {
		return nil, fmt.Errorf("%w: status=%d resultcode=%s", domain.ErrProviderDenied, resp.StatusCode, pr.ResultCode)
	}

	name := pr.Response.Name
	if name == "" {
		name = pr.Response.Nickname
	}
	return &provider.Profile{
		ID:    pr.Response.ID,
		Name:  name,
		Email: pr.Response.Email,
	}, nil
}
