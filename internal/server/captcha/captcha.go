// Package captcha checks registration requests with Google reCAPTCHA.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/sethvargo/go-retry"
)

const (
	// SiteVerifyURL is the reCAPTCHA token verification endpoint.
	SiteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	// MinScore is the lowest reCAPTCHA v3 score accepted as human.
	MinScore = 0.5
)

// Verifier decides whether a client-supplied CAPTCHA token is acceptable.
// A rejected token yields common.ErrCaptchaFailed; a verifier that could not
// reach its backend returns an error wrapping common.ErrInternal.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// NopVerifier accepts every token. It is used when no reCAPTCHA secret is
// configured.
type NopVerifier struct{}

func (NopVerifier) Verify(context.Context, string, string) error { return nil }

type siteVerifyResponse struct {
	Success bool `json:"success"`
	// Score is only sent for v3 keys.
	Score      *float64 `json:"score"`
	ErrorCodes []string `json:"error-codes"`
}

// RecaptchaVerifier posts tokens to the siteverify endpoint. Transport
// failures and 5xx answers are retried with exponential backoff.
type RecaptchaVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
	backoff  func() retry.Backoff
}

func NewRecaptchaVerifier(secret string, timeout time.Duration) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secret:   secret,
		endpoint: SiteVerifyURL,
		client:   &http.Client{Timeout: timeout},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewExponential(100*time.Millisecond))
		},
	}
}

// WithEndpoint points the verifier at another siteverify URL. Used by tests.
func (v *RecaptchaVerifier) WithEndpoint(endpoint string) *RecaptchaVerifier {
	v.endpoint = endpoint
	return v
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return common.ErrCaptchaFailed
	}

	var res *siteVerifyResponse
	err := retry.Do(ctx, v.backoff(), func(ctx context.Context) error {
		var err error
		res, err = v.post(ctx, token, remoteIP)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: captcha verification: %w", common.ErrInternal, err)
	}

	if !res.Success || (res.Score != nil && *res.Score < MinScore) {
		return common.ErrCaptchaFailed
	}
	return nil
}

func (v *RecaptchaVerifier) post(ctx context.Context, token, remoteIP string) (*siteVerifyResponse, error) {
	form := url.Values{"secret": {v.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, retry.RetryableError(fmt.Errorf("siteverify status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("siteverify status %d", resp.StatusCode)
	}

	var out siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode siteverify response: %w", err)
	}
	return &out, nil
}
