// Package creditprofile is the HTTP client for the scoring service that rates
// borrowers before a loan is published.
package creditprofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"edu-lending-core/internal/domain/errs"
	"edu-lending-core/internal/domain/loan"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	ErrUnknownBorrower = fmt.Errorf("credit profile %w", errs.ErrNotFound)
	ErrUnavailable     = errors.New("credit profile service unavailable")
)

// tripAfter consecutive failures opens the breaker.
const tripAfter = 5

type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	log     *zap.Logger
}

type Option func(*gobreaker.Settings)

// WithCooldown sets how long the breaker stays open before probing again.
func WithCooldown(d time.Duration) Option {
	return func(s *gobreaker.Settings) { s.Timeout = d }
}

func New(baseURL string, timeout time.Duration, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("creditprofile")
	settings := gobreaker.Settings{
		Name:        "credit-profile",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= tripAfter
		},
		// an unknown borrower is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnknownBorrower)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	for _, o := range opts {
		o(&settings)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cb:      gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

// GetCreditProfile fetches GET {base}/users/{userID}/credit-profile.
func (c *Client) GetCreditProfile(ctx context.Context, userID string) (*loan.CreditProfile, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.Warn("request rejected by open breaker", zap.String("user_id", userID))
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, err
	}
	return out.(*loan.CreditProfile), nil
}

func (c *Client) fetch(ctx context.Context, userID string) (*loan.CreditProfile, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(userID) + "/credit-profile"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUnknownBorrower
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("credit profile: unexpected status %d", resp.StatusCode)
	}

	var p loan.CreditProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("credit profile: decode: %w", err)
	}
	return &p, nil
}
