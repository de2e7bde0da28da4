// Package client is the HTTP transport to the document-management service.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mithrel/docman/internal/apperr"
	"github.com/mithrel/docman/internal/upload"
	"github.com/mithrel/docman/pkg/api"
)

// DefaultBaseURL is the production service root.
const DefaultBaseURL = "https://apis.allsoft.co/api/documentManagement"

const maxResponseBytes = 16 << 20

// ErrNotLoggedIn is wrapped when an authenticated call has no token.
var ErrNotLoggedIn = errors.New("not logged in")

// Client executes Requests. It never retries.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenSource
	userAgent string
	obs       *observer
}

// New returns a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := clientConfig{timeout: 20 * time.Second, userAgent: "docman"}
	for _, o := range opts {
		o.apply(&cfg)
	}
	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      hc,
		tokens:    cfg.tokens,
		userAgent: cfg.userAgent,
		obs:       obs,
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Do executes r and decodes a 2xx JSON body into out when out is non-nil.
// Failures are *apperr.Error values of kind Validation, Network or Server.
func (c *Client) Do(ctx context.Context, r *Request, out any) (err error) {
	op := "client." + r.Op
	start := time.Now()
	reqID := uuid.NewString()
	status := 0
	defer func() { c.obs.observe(op, reqID, start, status, err) }()

	token := ""
	if r.Auth {
		token, err = c.token(ctx)
		if err != nil {
			return &apperr.Error{Kind: apperr.KindValidation, Op: op, Msg: "Not logged in. Run `docman login` first.", Err: err}
		}
	}

	body, ct := r.open()
	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, body)
	if err != nil {
		if body != nil {
			body.Close()
		}
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header = r.Header(token)
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Network(op, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperr.Network(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.Server(op, resp.StatusCode, serverMessage(respBody, r.Fallback))
	}
	if out == nil || len(strings.TrimSpace(string(respBody))) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &apperr.Error{Kind: apperr.KindServer, Op: op, Status: resp.StatusCode, Msg: r.Fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", ErrNotLoggedIn
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotLoggedIn, err)
	}
	if strings.TrimSpace(tok) == "" {
		return "", ErrNotLoggedIn
	}
	return tok, nil
}

// serverMessage extracts {message} from a failed response, else fallback.
func serverMessage(body []byte, fallback string) string {
	var m api.MessageResponse
	if err := json.Unmarshal(body, &m); err == nil && strings.TrimSpace(m.Message) != "" {
		return m.Message
	}
	if fallback == "" {
		return "request failed"
	}
	return fallback
}

// GenerateOTP asks the service to send an OTP to mobile.
func (c *Client) GenerateOTP(ctx context.Context, mobile string) error {
	r, err := NewGenerateOTPRequest(mobile)
	if err != nil {
		return err
	}
	return c.Do(ctx, r, nil)
}

// ValidateOTP exchanges mobile and otp for a session token.
func (c *Client) ValidateOTP(ctx context.Context, mobile, otp string) (string, error) {
	r, err := NewValidateOTPRequest(mobile, otp)
	if err != nil {
		return "", err
	}
	var out api.ValidateOTPResponse
	if err := c.Do(ctx, r, &out); err != nil {
		return "", err
	}
	tok := out.SessionToken()
	if tok == "" {
		msg := out.Message
		if msg == "" {
			msg = r.Fallback
		}
		return "", apperr.Server("client."+r.Op, http.StatusOK, msg)
	}
	return tok, nil
}

// SaveDocument uploads p.
func (c *Client) SaveDocument(ctx context.Context, p *upload.Payload) error {
	return c.Do(ctx, NewSaveDocumentRequest(p), nil)
}

// SearchDocuments runs one page of a search.
func (c *Client) SearchDocuments(ctx context.Context, q api.SearchRequest) (api.SearchResponse, error) {
	var out api.SearchResponse
	r, err := NewSearchRequest(q)
	if err != nil {
		return out, err
	}
	if err := c.Do(ctx, r, &out); err != nil {
		return api.SearchResponse{}, err
	}
	if out.Data == nil {
		out.Data = []api.DocumentRecord{}
	}
	return out, nil
}

// ListTags returns the tags known to the service matching term.
func (c *Client) ListTags(ctx context.Context, term string) ([]api.Tag, error) {
	r, err := NewTagsRequest(term)
	if err != nil {
		return nil, err
	}
	var out api.TagsResponse
	if err := c.Do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out.All(), nil
}
