package captcha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	DefaultTimeout   = 5 * time.Second
)

var (
	// ErrRejected means the service answered and refused the token.
	ErrRejected = errors.New("captcha token rejected")
	// ErrUnavailable means no usable answer was obtained.
	ErrUnavailable = errors.New("captcha service unavailable")
)

// Client verifies bot-challenge tokens against a siteverify endpoint
// (reCAPTCHA, hCaptcha and Turnstile share the protocol).
type Client struct {
	http      *resty.Client
	verifyURL string
	secret    string
}

// verifyResponse is the siteverify JSON answer
type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname"`
}

func NewClient(verifyURL, secret string, timeout time.Duration) *Client {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		verifyURL: verifyURL,
		secret:    secret,
	}
}

// Verify checks token for the client at remoteIP. It fails closed: any
// transport error, non-2xx status or undecodable body is ErrUnavailable.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrRejected)
	}

	form := map[string]string{
		"secret":   c.secret,
		"response": token,
	}
	if remoteIP != "" {
		form["remoteip"] = remoteIP
	}

	var result verifyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&result).
		Post(c.verifyURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}
	if resp.Result() == nil || !isJSON(resp.Header().Get("Content-Type")) {
		return fmt.Errorf("%w: unexpected response body", ErrUnavailable)
	}

	if !result.Success {
		return fmt.Errorf("%w: %s", ErrRejected, strings.Join(result.ErrorCodes, ","))
	}
	return nil
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}
