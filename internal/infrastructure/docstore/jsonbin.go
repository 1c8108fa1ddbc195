package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/studydeck/studydeck/internal/domain/record"
	"github.com/studydeck/studydeck/pkg/circuitbreaker"
	"github.com/studydeck/studydeck/pkg/logger"
	"github.com/studydeck/studydeck/pkg/retry"
)

// JSONBinConfig contains configuration for the JSONBin client.
type JSONBinConfig struct {
	// BaseURL is the JSONBin API base URL.
	BaseURL string

	// BinID identifies the bin holding the whole document.
	BinID string

	// MasterKey is sent as X-Master-Key on every request.
	MasterKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RetryConfig for transient failures.
	RetryConfig retry.Config

	// BreakerConfig for fault tolerance.
	BreakerConfig circuitbreaker.Config

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultJSONBinConfig returns sensible defaults.
func DefaultJSONBinConfig(binID, masterKey string) JSONBinConfig {
	return JSONBinConfig{
		BaseURL:       "https://api.jsonbin.io/v3",
		BinID:         binID,
		MasterKey:     masterKey,
		Timeout:       15 * time.Second,
		RetryConfig:   retry.DefaultConfig(),
		BreakerConfig: circuitbreaker.DefaultConfig(),
	}
}

// JSONBin is a Store backed by a single remote JSONBin bin. Reads parse
// the bin's record envelope; writes PUT the whole document back.
type JSONBin struct {
	config     JSONBinConfig
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
	logger     *logger.Logger
}

// NewJSONBin creates a JSONBin-backed store.
func NewJSONBin(cfg JSONBinConfig) *JSONBin {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	return &JSONBin{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    circuitbreaker.New(cfg.BreakerConfig),
		logger:     cfg.Logger.With(logger.Component("jsonbin")),
	}
}

// binEnvelope is the JSONBin read response shape.
type binEnvelope struct {
	Record record.Document `json:"record"`
}

// Fetch implements Store.
func (s *JSONBin) Fetch(ctx context.Context) (record.Document, error) {
	var doc record.Document
	err := s.do(ctx, func() error {
		body, status, err := s.request(ctx, http.MethodGet, nil)
		if err != nil {
			return retry.Retryable(err)
		}
		switch {
		case status == http.StatusOK:
		case status == http.StatusNotFound:
			// Empty bin: start from a fresh document.
			doc = record.Document{}
			return nil
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return retry.Permanent(fmt.Errorf("%w: status %d", ErrUnauthorized, status))
		case status >= 500:
			return retry.Retryable(fmt.Errorf("jsonbin read: status %d", status))
		default:
			return retry.Permanent(fmt.Errorf("jsonbin read: status %d", status))
		}

		var envelope binEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return retry.Permanent(fmt.Errorf("parse bin: %w", err))
		}
		if envelope.Record == nil {
			envelope.Record = record.Document{}
		}
		doc = envelope.Record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Replace implements Store.
func (s *JSONBin) Replace(ctx context.Context, doc record.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.do(ctx, func() error {
		_, status, err := s.request(ctx, http.MethodPut, payload)
		if err != nil {
			return retry.Retryable(err)
		}
		switch {
		case status == http.StatusOK:
			return nil
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return retry.Permanent(fmt.Errorf("%w: status %d", ErrUnauthorized, status))
		case status >= 500:
			return retry.Retryable(fmt.Errorf("jsonbin write: status %d", status))
		default:
			return retry.Permanent(fmt.Errorf("jsonbin write: status %d", status))
		}
	})
}

// do wraps an operation with the circuit breaker and retry policy.
func (s *JSONBin) do(ctx context.Context, fn func() error) error {
	if err := s.breaker.Allow(); err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	start := time.Now()
	err := retry.Do(ctx, s.config.RetryConfig, fn)
	if err != nil {
		s.breaker.RecordFailure()
		s.logger.Error("bin request failed", logger.Err(err), logger.Latency(time.Since(start)))
		if retry.IsPermanent(err) {
			return err
		}
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	s.breaker.RecordSuccess()
	s.logger.Debug("bin request ok", logger.Latency(time.Since(start)))
	return nil
}

// request performs a single HTTP call against the bin endpoint.
func (s *JSONBin) request(ctx context.Context, method string, payload []byte) ([]byte, int, error) {
	url := fmt.Sprintf("%s/b/%s", s.config.BaseURL, s.config.BinID)

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", s.config.MasterKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
