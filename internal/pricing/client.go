package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
)

// CalculatePath is appended to the backend base URL.
const CalculatePath = "/merchant-fee/calculate"

// Client submits a validated request to a pricing backend and returns the
// backend's JSON answer unchanged.
type Client interface {
	Calculate(ctx context.Context, req Request) (json.RawMessage, error)
}

// NewClient returns an HTTPClient when a backend URL is configured and a
// StubClient otherwise.
func NewClient(cfg config.PricingConfig, logger *zap.Logger) Client {
	if cfg.BaseURL == "" {
		return StubClient{}
	}
	return NewHTTPClient(cfg.BaseURL, cfg.Timeout, logger)
}

// =============================================================================
// STUB CLIENT
// =============================================================================

// StubClient answers every request with fixed figures. It is used when no
// backend URL is configured.
type StubClient struct{}

// StubResponse is the shape of the stub's answer.
type StubResponse struct {
	SuggestedRate       float64           `json:"suggestedRate"`
	Margin              int               `json:"margin"`
	EstimatedProfit     float64           `json:"estimatedProfit"`
	QuotableRange       map[string]string `json:"quotableRange"`
	AdoptionProbability int               `json:"adoptionProbability"`
	CurrentRateProvided bool              `json:"currentRateProvided"`
	FeeStructure        FeeStructure      `json:"feeStructure"`
	MCC                 string            `json:"mcc"`
	TransactionCount    int               `json:"transactionCount"`
	Stub                bool              `json:"stub"`
}

func (StubClient) Calculate(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(StubResponse{
		SuggestedRate:       2.45,
		Margin:              185,
		EstimatedProfit:     1250.00,
		QuotableRange:       map[string]string{"min": "2.15%", "max": "2.75%"},
		AdoptionProbability: 75,
		CurrentRateProvided: req.CurrentRate != nil,
		FeeStructure:        req.FeeStructure,
		MCC:                 req.MCC,
		TransactionCount:    len(req.Transactions),
		Stub:                true,
	})
}

// =============================================================================
// HTTP CLIENT
// =============================================================================

// HTTPClient posts requests as JSON to a pricing backend.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewHTTPClient creates a client for the backend at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}
}

// Calculate sends req to the backend. The request timeout is the smaller of
// the configured timeout and the context deadline.
//
// RETURNS:
//   - the response body, which must be valid JSON
//   - an error wrapping apperrors.ErrSubmission on transport failures and
//     non-2xx answers
func (c *HTTPClient) Calculate(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout <= 0 {
			timeout = remaining
		}
	}

	url := c.baseURL + CalculatePath
	agent := fiber.Post(url).JSON(req)
	if timeout > 0 {
		agent.Timeout(timeout)
	}

	start := time.Now()
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		c.logger.Error("Pricing request failed", zap.String("url", url), zap.Errors("errors", errs))
		return nil, fmt.Errorf("pricing request to %s: %w: %w", url, apperrors.ErrSubmission, errors.Join(errs...))
	}

	c.logger.Info("Pricing request completed",
		zap.String("url", url),
		zap.Int("status", code),
		zap.Int("transactions", len(req.Transactions)),
		zap.Duration("duration", time.Since(start)),
	)

	if code < 200 || code >= 300 {
		return nil, fmt.Errorf("pricing backend answered %d: %w", code, apperrors.ErrSubmission)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("pricing backend answered with invalid JSON: %w", apperrors.ErrSubmission)
	}
	return json.RawMessage(body), nil
}
