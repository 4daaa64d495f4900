// Package client talks to the Mate API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/platform/envutil"
)

const outcomeHeader = "X-Mate-Outcome"

type Options struct {
	BaseURL string

	Timeout    time.Duration
	MaxRetries int

	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		maxRetries: maxRetries,
		httpClient: hc,
	}, nil
}

// NewFromEnv reads MATE_API_URL, MATE_CLIENT_TIMEOUT and MATE_CLIENT_MAX_RETRIES.
func NewFromEnv() (*Client, error) {
	return New(Options{
		BaseURL:    envutil.String("MATE_API_URL", "http://localhost:5001"),
		Timeout:    envutil.Duration("MATE_CLIENT_TIMEOUT", 90*time.Second),
		MaxRetries: envutil.Int("MATE_CLIENT_MAX_RETRIES", 0),
	})
}

func (c *Client) BaseURL() string { return c.baseURL }

// Decompose posts a task and returns the plan with the server's outcome kind.
// The server answers 200 for every handled request, so an error here means
// the server was unreachable or misbehaving.
func (c *Client) Decompose(ctx context.Context, req domain.DecomposeRequest) (domain.Plan, string, error) {
	var plan domain.Plan
	hdr, err := c.doJSON(ctx, http.MethodPost, "/decompose", req, &plan)
	if err != nil {
		return domain.Plan{}, "", err
	}
	if !plan.Active() {
		return domain.Plan{}, "", errors.New("plan without steps")
	}
	return plan, hdr.Get(outcomeHeader), nil
}

// Transcribe uploads audio as multipart field "file".
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx2, http.MethodPost, c.baseURL+"/speech-to-text", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseHTTPError(resp.StatusCode, raw)
	}
	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	return out.Transcript, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) (http.Header, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx2.Err() != nil {
			return nil, ctx2.Err()
		}
		req, err := http.NewRequestWithContext(ctx2, method, c.baseURL+path, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				return nil, readErr
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				lastErr = parseHTTPError(resp.StatusCode, raw)
				// Client errors will not change on retry.
				if resp.StatusCode < 500 {
					return nil, lastErr
				}
			} else {
				if out != nil {
					if err := json.Unmarshal(raw, out); err != nil {
						return nil, err
					}
				}
				return resp.Header, nil
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx2.Done():
				return nil, ctx2.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return nil, lastErr
}
