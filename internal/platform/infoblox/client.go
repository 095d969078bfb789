package infoblox

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/retry"
)

const backendName = "infoblox"

// Client is a minimal Infoblox WAPI client for network reservations.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	retryOpts  []retry.Option
}

// NewClient creates a WAPI client. baseURL is the versioned WAPI root,
// e.g. "https://ipam.example.com/wapi/v2.12". insecureTLS disables
// certificate verification for appliances with self-signed
// certificates. retryOpts tune the backoff applied to read operations.
func NewClient(baseURL string, creds Credentials, insecureTLS bool, retryOpts ...retry.Option) *Client {
	httpClient := &http.Client{}
	if insecureTLS {
		httpClient.Transport = &http.Transport{
			// #nosec G402
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		creds:      creds,
		httpClient: httpClient,
		retryOpts:  retryOpts,
	}
}

// Name identifies this backend in plans.
func (c *Client) Name() string { return backendName }

// wapiError is the error document WAPI returns with non-2xx statuses.
type wapiError struct {
	Error string `json:"Error"`
	Code  string `json:"code"`
	Text  string `json:"text"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes the request, maps WAPI failures onto the engine's error
// taxonomy, and decodes a successful response into out when non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &reconcile.TransientError{Backend: backendName, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &reconcile.TransientError{Backend: backendName, Err: fmt.Errorf("read response: %w", err)}
	}

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parse response: %w (status %d)", err, resp.StatusCode)
		}
	}
	return nil
}

// checkStatus maps a WAPI status onto the error taxonomy. Conflict and
// not-found results come back without identities; the operation that
// issued the request fills those in.
func checkStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &reconcile.AuthError{
			Backend: backendName,
			Reason:  fmt.Sprintf("credentials rejected (status %d)", status),
		}
	case status == http.StatusNotFound:
		return &reconcile.NotFoundError{Kind: reconcile.KindReservation}
	case status >= 500:
		return &reconcile.TransientError{
			Backend: backendName,
			Err:     fmt.Errorf("status %d: %s", status, summarize(body)),
		}
	}

	var apiErr wapiError
	_ = json.Unmarshal(body, &apiErr)
	if strings.Contains(apiErr.Text, "already exists") ||
		strings.Contains(apiErr.Error, "IBDataConflictError") ||
		apiErr.Code == "Client.Ibap.Data.Conflict" {
		return &reconcile.ConflictError{Kind: reconcile.KindReservation}
	}

	detail := apiErr.Text
	if detail == "" {
		detail = summarize(body)
	}
	return fmt.Errorf("infoblox: status %d: %s", status, detail)
}

// getJSON performs a read with retry on transient failures. Everything
// else aborts the backoff immediately.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return retry.Do(ctx, func() error {
		req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return retry.Fatal(err)
		}
		if err := c.do(req, out); err != nil {
			if reconcile.IsTransient(err) {
				return err
			}
			return retry.Fatal(err)
		}
		return nil
	}, c.retryOpts...)
}

// summarize flattens a response body into a single short line for
// error messages.
func summarize(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		s = "(empty body)"
	}
	return s
}
