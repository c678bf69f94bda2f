package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reportmill/pkg/apperror"
	"reportmill/pkg/cache"
	"reportmill/pkg/config"
	"reportmill/pkg/logger"
)

// sharepointPrincipal is the well-known SharePoint Online service principal
// used in the ACS resource string.
const sharepointPrincipal = "00000003-0000-0ff1-ce00-000000000000"

// tokenSkew is subtracted from the reported token lifetime so a cached
// token never expires mid-request.
const tokenSkew = 60 * time.Second

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// tokenSource acquires ACS client-credential tokens and keeps them in the
// shared cache until shortly before expiry.
type tokenSource struct {
	endpoint     string
	clientID     string
	clientSecret string
	tenantID     string
	tenant       string

	http  *http.Client
	cache cache.Cache
	log   *slog.Logger
}

func newTokenSource(cfg *config.SharePointConfig, httpClient *http.Client, tokenCache cache.Cache) *tokenSource {
	endpoint := cfg.TokenEndpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://accounts.accesscontrol.windows.net/%s/tokens/OAuth/2", cfg.TenantID)
	}

	return &tokenSource{
		endpoint:     endpoint,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tenantID:     cfg.TenantID,
		tenant:       cfg.Tenant,
		http:         httpClient,
		cache:        tokenCache,
		log:          logger.WithComponent("sharepoint.token"),
	}
}

func (t *tokenSource) cacheKey() string {
	return "sharepoint:token:" + t.tenantID + ":" + t.clientID
}

// Token returns a valid access token, from cache when possible.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	if t.cache != nil {
		if cached, err := t.cache.Get(ctx, t.cacheKey()); err == nil && len(cached) > 0 {
			return string(cached), nil
		}
	}

	token, ttl, err := t.acquire(ctx)
	if err != nil {
		return "", err
	}

	if t.cache != nil && ttl > 0 {
		if err := t.cache.Set(ctx, t.cacheKey(), []byte(token), ttl); err != nil {
			t.log.Warn("failed to cache access token", "error", err)
		}
	}

	return token, nil
}

func (t *tokenSource) acquire(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"resource":      {fmt.Sprintf("%s/%s.sharepoint.com@%s", sharepointPrincipal, t.tenant, t.tenantID)},
		"client_id":     {t.clientID + "@" + t.tenantID},
		"client_secret": {t.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, apperror.Wrap(err, apperror.CodeInternal, "failed to build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	t.log.Info("requesting access token", "endpoint", t.endpoint)

	resp, err := t.http.Do(req)
	if err != nil {
		return "", 0, apperror.Wrap(err, apperror.CodeNetworkError, "token endpoint unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, apperror.Wrap(err, apperror.CodeNetworkError, "failed to read token response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, apperror.New(statusCode(resp.StatusCode), "token request rejected").
			WithDetails("status", resp.StatusCode).
			WithDetails("body", truncate(string(body), 512))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, apperror.Wrap(err, apperror.CodeAuthFailed, "malformed token response")
	}
	if tr.AccessToken == "" {
		return "", 0, apperror.New(apperror.CodeAuthFailed, "token response carries no access token")
	}

	ttl := tokenTTL(tr.ExpiresIn)
	t.log.Info("access token acquired", "ttl", ttl)

	return tr.AccessToken, ttl, nil
}

// tokenTTL parses the expires_in seconds (ACS sends it as a string) and
// applies the safety skew. Unknown lifetimes fall back to five minutes.
func tokenTTL(expiresIn string) time.Duration {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		return 5 * time.Minute
	}

	ttl := time.Duration(seconds)*time.Second - tokenSkew
	if ttl <= 0 {
		return time.Duration(seconds) * time.Second
	}
	return ttl
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
