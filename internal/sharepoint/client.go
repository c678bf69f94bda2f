package sharepoint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"reportmill/pkg/apperror"
	"reportmill/pkg/cache"
	"reportmill/pkg/config"
	"reportmill/pkg/logger"
)

// Client talks to one SharePoint site. It implements Transfer.
type Client struct {
	siteURL string
	http    *http.Client
	tokens  *tokenSource
	log     *slog.Logger
}

var _ Transfer = (*Client)(nil)

// NewClient builds a client for the site named in the configuration.
// The token cache may be nil; tokens are then fetched per request.
func NewClient(cfg *config.SharePointConfig, tokenCache cache.Cache) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	siteURL := cfg.SiteURL
	if siteURL == "" {
		siteURL = fmt.Sprintf("https://%s.sharepoint.com/sites/%s", cfg.Tenant, cfg.SiteName)
	}

	return &Client{
		siteURL: siteURL,
		http:    httpClient,
		tokens:  newTokenSource(cfg, httpClient, tokenCache),
		log:     logger.WithComponent("sharepoint"),
	}
}

// FetchBytes downloads the file at the server-relative path.
func (c *Client) FetchBytes(ctx context.Context, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/_api/web/GetFileByServerRelativeUrl('%s')/OpenBinaryStream()", c.siteURL, path)

	c.log.Info("downloading file", "path", path)

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	c.log.Info("file downloaded", "path", path, "bytes", len(body))
	return body, nil
}

// StoreBytes uploads data into the library subfolder, overwriting any
// existing file with the same name.
func (c *Client) StoreBytes(ctx context.Context, library, folder, filename string, data []byte) error {
	endpoint := fmt.Sprintf("%s/_api/web/getfolderbyserverrelativeurl('%s/%s/')/files/add(url='%s', overwrite=true)",
		c.siteURL, library, folder, filename)

	c.log.Info("uploading file", "library", library, "folder", folder, "name", filename, "bytes", len(data))

	if _, err := c.do(ctx, http.MethodPost, endpoint, data); err != nil {
		return err
	}

	c.log.Info("file uploaded", "name", filename)
	return nil
}

// do runs one authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeNetworkError, "sharepoint unreachable")
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeNetworkError, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.New(statusCode(resp.StatusCode), "sharepoint request failed").
			WithDetails("status", resp.StatusCode).
			WithDetails("body", truncate(string(content), 512))
	}

	return content, nil
}

// statusCode maps an HTTP status to the transfer error taxonomy.
func statusCode(status int) apperror.ErrorCode {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperror.CodeAuthFailed
	case http.StatusNotFound:
		return apperror.CodeNotFound
	case http.StatusConflict:
		return apperror.CodeConflict
	default:
		return apperror.CodeNetworkError
	}
}
