package nymarkable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-nymarkable/internal/hints"
)

// loginState drives withLoggedInPage.
type loginState int

const (
	stateReady     loginState = iota // a session with stored credentials can be tried
	stateNeedLogin                   // the stored credentials were rejected
	stateLoggingIn                   // an interactive window is open
)

func (s loginState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateNeedLogin:
		return "need-login"
	case stateLoggingIn:
		return "logging-in"
	}
	return fmt.Sprintf("loginState(%d)", int(s))
}

// withSession opens a browser, runs fn on its page and always closes it.
// A close error never replaces fn's error.
func (e *Edition) withSession(ctx context.Context, headful bool, fn func(context.Context, Page) error) error {
	sess, err := e.open(ctx, e.cfg, headful)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			e.log.Debug("closing browser", zap.Error(cerr))
		}
	}()
	return fn(ctx, sess.Page())
}

// withLoggedInPage runs fn with stored credentials. When fn reports
// ErrNotLoggedIn, the session is discarded, an interactive login runs and
// fn starts over, up to Login.MaxAttempts interactive logins.
func (e *Edition) withLoggedInPage(ctx context.Context, fn func(context.Context, Page) error) error {
	state := stateReady
	attempts := 0

	for {
		e.log.Debug("login state", zap.Stringer("state", state), zap.Int("attempts", attempts))

		switch state {
		case stateReady:
			err := e.withSession(ctx, e.cfg.Browser.Headful, fn)
			if !errors.Is(err, ErrNotLoggedIn) {
				return err
			}
			e.log.Warn("stored session is not logged in")
			state = stateNeedLogin

		case stateNeedLogin:
			if attempts >= e.cfg.Login.MaxAttempts {
				return fmt.Errorf("%w: gave up after %d interactive logins%s",
					ErrLoginAttemptsExhausted, attempts, hints.ForLoginRequired())
			}
			attempts++
			state = stateLoggingIn

		case stateLoggingIn:
			e.log.Info("sign in in the browser window",
				zap.Int("attempt", attempts),
				zap.Int("max", e.cfg.Login.MaxAttempts))
			if err := e.Login(ctx); err != nil {
				return err
			}
			state = stateReady
		}
	}
}

// Login opens a visible browser on the persistent profile and waits until
// the operator has signed in. Returns ErrSessionClosed when the operator
// closes the window first.
func (e *Edition) Login(ctx context.Context) error {
	return e.withSession(ctx, true, func(ctx context.Context, page Page) error {
		return waitForLogin(ctx, page, e.cfg, e.log)
	})
}

// waitForLogin polls the auth cookie every Timing.LoginPoll. It returns
// as soon as the cookie is present, even on the first check.
func waitForLogin(ctx context.Context, page Page, cfg *Config, log *zap.Logger) error {
	parent := ctx
	if cfg.Login.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Login.Timeout)
		defer cancel()
	}

	if err := page.Navigate(ctx, cfg.Site.URL); err != nil {
		return loginError(parent, ctx, page, cfg, err)
	}

	ticker := time.NewTicker(cfg.Timing.LoginPoll)
	defer ticker.Stop()

	for {
		ok, err := page.HasCookie(ctx, cfg.Site.AuthCookie)
		if err != nil {
			return loginError(parent, ctx, page, cfg, err)
		}
		if ok {
			log.Info("logged in")
			return nil
		}

		select {
		case <-ctx.Done():
			return loginError(parent, ctx, page, cfg, ctx.Err())
		case <-ticker.C:
		}
	}
}

// loginError tells apart an operator closing the window, the login
// timeout, caller cancellation and driver failures.
func loginError(parent, ctx context.Context, page Page, cfg *Config, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: no %s cookie after %s", ErrNotLoggedIn, cfg.Site.AuthCookie, cfg.Login.Timeout)
	}
	if aerr := page.Alive(parent); aerr != nil {
		return fmt.Errorf("%w: %v", ErrSessionClosed, aerr)
	}
	return err
}
