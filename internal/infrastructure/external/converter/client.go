// Package converter implements the client for the external document
// conversion service that turns an uploaded marks card PDF into plain text
// for the transcript pipeline. Calls are wrapped in a retrier and a circuit
// breaker so a flaky converter degrades into a clean "try again later"
// instead of hanging conversations.
package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/pkg/circuitbreaker"
	"github.com/campus-connect/campus-bot/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the converter client.
type Config struct {
	// BaseURL is the converter service base URL.
	BaseURL string

	// APIKey authenticates requests to the converter (optional).
	APIKey string

	// Timeout is the HTTP request timeout. Conversions can take a while on
	// large scans, so this is generous.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 90 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client converts documents through the external service.
type Client struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a converter client.
func NewClient(config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retrier := retry.New(retry.Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn("retrying document conversion",
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
		},
	})

	breaker := circuitbreaker.ConverterBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state change",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	})

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		retrier:    retrier,
		breaker:    breaker,
		logger:     logger,
	}
}

// conversionResponse is the service's reply envelope.
type conversionResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// ToText converts PDF content to plain text. All failures surface as
// shared.ErrConversionFailed so callers need no knowledge of HTTP details;
// the caller must not persist anything when an error is returned.
func (c *Client) ToText(ctx context.Context, fileName string, content []byte) (string, error) {
	var text string

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			result, err := c.convert(ctx, fileName, content)
			if err != nil {
				return err
			}
			text = result
			return nil
		})
	})
	if err != nil {
		return "", shared.WrapError("transcript", "Convert", shared.ErrExternalService, "document conversion failed", err)
	}

	return text, nil
}

// convert performs a single conversion request.
func (c *Client) convert(ctx context.Context, fileName string, content []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("create form file: %w", err))
	}
	if _, err := part.Write(content); err != nil {
		return "", retry.Permanent(fmt.Errorf("write form file: %w", err))
	}
	if err := writer.Close(); err != nil {
		return "", retry.Permanent(fmt.Errorf("close form: %w", err))
	}

	url := c.config.BaseURL + "/v1/convert/text"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("converter request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read converter response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("converter unavailable: status %d", resp.StatusCode)
	default:
		// 4xx other than 429 will not improve on retry
		return "", retry.Permanent(fmt.Errorf("converter rejected document: status %d", resp.StatusCode))
	}

	var result conversionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", retry.Permanent(fmt.Errorf("decode converter response: %w", err))
	}
	if result.Error != "" {
		return "", retry.Permanent(fmt.Errorf("converter error: %s", result.Error))
	}

	return result.Text, nil
}
