package auth

import (
	"context"
	"time"
)

// Mock defaults.
const (
	MockUsername       = "admin"
	MockPassword       = "password"
	MockToken          = "mock-jwt-token-12345"
	DefaultMockLatency = time.Second
)

// Mock accepts a single username/password pair after a delay.
type Mock struct {
	latency  time.Duration
	username string
	password string
	token    string
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithLatency sets the simulated network delay. Zero disables it.
func WithLatency(d time.Duration) MockOption {
	return func(m *Mock) {
		m.latency = d
	}
}

// NewMock creates a mock backend that accepts admin/password.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		latency:  DefaultMockLatency,
		username: MockUsername,
		password: MockPassword,
		token:    MockToken,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Latency returns the simulated delay.
func (m *Mock) Latency() time.Duration {
	return m.latency
}

// Authenticate waits for the configured latency and then accepts or
// rejects creds. It returns ctx.Err() if ctx is done first.
func (m *Mock) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}

	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if creds.Username != m.username || creds.Password != m.password {
		return "", invalidCredentials()
	}
	return m.token, nil
}

// Mock does not implement Verifier: any non-empty cached token is
// adopted on restore.
var _ Authenticator = (*Mock)(nil)
