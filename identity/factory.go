package identity

import (
	"fmt"
	"sync"

	"github.com/synclinehq/syncline/config"
	"go.uber.org/zap"
)

// Runtime names the execution context asking for a client. The distinction
// is passed explicitly by the caller rather than sniffed from the
// environment, so a privileged client can never be handed to code that
// serves credentials into a browser.
type Runtime int

const (
	// RuntimeServer is trusted server-side execution.
	RuntimeServer Runtime = iota
	// RuntimeBrowser is any context whose output reaches an untrusted
	// browser environment (for example a rendered client bundle config).
	RuntimeBrowser
)

func (r Runtime) String() string {
	if r == RuntimeBrowser {
		return "browser"
	}
	return "server"
}

// Factory constructs and memoizes the two identity platform clients. Each
// variant is built at most once per process and reused across requests; the
// clients are immutable connection handles after construction, so concurrent
// reads need no further locking.
type Factory struct {
	cfg    config.PlatformConfig
	logger *zap.Logger

	publicOnce sync.Once
	public     *Client
	publicErr  error

	privilegedOnce sync.Once
	privileged     *Client
}

// NewFactory creates a client factory for the given platform configuration.
func NewFactory(cfg config.PlatformConfig, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// Public returns the process-wide public client, constructing it on first
// use. It fails with ErrNotConfigured when the platform URL or the
// anonymous key is unset.
func (f *Factory) Public() (*Client, error) {
	f.publicOnce.Do(func() {
		if f.cfg.URL == "" || f.cfg.AnonKey == "" {
			f.publicErr = fmt.Errorf("%w: platform URL and anon key are required", ErrNotConfigured)
			return
		}
		f.public = newClient(f.cfg.URL, f.cfg.AnonKey, false, f.cfg.HTTPTimeout)
		f.logger.Info("public identity client constructed", zap.String("url", f.cfg.URL))
	})
	return f.public, f.publicErr
}

// Privileged returns the process-wide service-role client. A request from a
// browser runtime never receives privileged credentials: it is downgraded to
// the public client with a logged warning. A missing service-role key also
// downgrades rather than failing, since deployments may omit privileged
// operations entirely.
func (f *Factory) Privileged(rt Runtime) (*Client, error) {
	if rt == RuntimeBrowser {
		f.logger.Warn("privileged identity client requested from browser context, substituting public client",
			zap.String("runtime", rt.String()))
		return f.Public()
	}
	if f.cfg.ServiceRoleKey == "" {
		f.logger.Warn("service-role key not configured, substituting public client")
		return f.Public()
	}

	f.privilegedOnce.Do(func() {
		if f.cfg.URL == "" {
			return
		}
		f.privileged = newClient(f.cfg.URL, f.cfg.ServiceRoleKey, true, f.cfg.HTTPTimeout)
		f.logger.Info("privileged identity client constructed", zap.String("url", f.cfg.URL))
	})
	if f.privileged == nil {
		return nil, fmt.Errorf("%w: platform URL is required", ErrNotConfigured)
	}
	return f.privileged, nil
}
