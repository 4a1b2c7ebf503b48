package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
	"github.com/influencehub/marketplace/internal/pkg/metrics"
)

// claim tells begin whether an operation takes over the session up front.
type claim int

const (
	// claimNone only issues a sequence number.
	claimNone claim = iota
	// claimAuthenticating enters Authenticating and discards results of
	// operations issued earlier.
	claimAuthenticating
	// claimBootstrap is claimAuthenticating, except that a session still
	// Initializing stays there until the bootstrap settles.
	claimBootstrap
)

// transition is the state a commit moves the session to.
type transition struct {
	status domain.Status
	user   *domain.User
	token  string
	// keepToken leaves the token slot untouched; token is ignored.
	keepToken bool
}

// SessionService owns the session token and the resolved user. It is the only
// component that writes to the TokenStore or attaches tokens to the AuthAPI.
//
// Every auth-mutating operation takes a number from a per-session sequence.
// A result is committed only if no newer operation has committed in the
// meantime; otherwise it is discarded and the operation returns
// domain.ErrSuperseded.
type SessionService struct {
	api    ports.AuthAPI
	tokens ports.TokenStore
	logger zerolog.Logger

	inflight atomic.Int64

	// commitMu serializes sequence checks, token store writes and state updates.
	commitMu sync.Mutex
	issued   uint64
	applied  uint64

	mu     sync.RWMutex
	status domain.Status
	user   *domain.User
	token  string

	subMu     sync.Mutex
	nextSub   uint64
	listeners map[uint64]func(domain.Snapshot)
}

// NewSessionService creates a session in the Initializing state. Call
// Bootstrap to restore a persisted session.
func NewSessionService(api ports.AuthAPI, tokens ports.TokenStore, logger zerolog.Logger) *SessionService {
	return &SessionService{
		api:       api,
		tokens:    tokens,
		logger:    logger,
		status:    domain.StatusInitializing,
		listeners: make(map[uint64]func(domain.Snapshot)),
	}
}

// Snapshot returns a consistent copy of the session state.
func (s *SessionService) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsLoading reports whether any operation is in flight.
func (s *SessionService) IsLoading() bool {
	return s.inflight.Load() > 0
}

// Subscribe registers fn to be called with a snapshot after every applied
// transition. fn runs on the goroutine that committed the transition, outside
// the session's locks. The returned func unsubscribes; it is safe to call more
// than once.
func (s *SessionService) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.listeners, id)
			s.subMu.Unlock()
		})
	}
}

// Bootstrap restores the persisted session. A stored token whose profile cannot
// be fetched is evicted and the session becomes Unauthenticated; that failure
// is logged, not returned. Only token store failures are returned; a bootstrap
// overtaken by a newer operation returns nil.
func (s *SessionService) Bootstrap(ctx context.Context) error {
	defer s.busy()()
	const op = "bootstrap"

	token, err := s.tokens.Load(ctx)
	if err != nil {
		seq := s.begin(claimNone)
		_ = s.commit(ctx, seq, op, transition{status: domain.StatusUnauthenticated, keepToken: true})
		return fmt.Errorf("load session token: %w", err)
	}

	if token == "" {
		seq := s.begin(claimNone)
		return settled(s.commit(ctx, seq, op, transition{status: domain.StatusUnauthenticated}))
	}

	seq := s.begin(claimBootstrap)
	s.api.SetToken(token)
	env, err := s.api.Profile(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stored session token rejected, signing out")
		return settled(s.commit(ctx, seq, op, transition{status: domain.StatusUnauthenticated}))
	}

	user := s.ingest(op, env.User, env.RoleDefaulted)
	return settled(s.commit(ctx, seq, op, transition{status: domain.StatusAuthenticated, user: &user, token: token}))
}

// Login authenticates with credentials and returns the full server response.
// API errors are returned unchanged and leave the session Unauthenticated.
func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
	defer s.busy()()
	const op = "login"

	seq := s.begin(claimAuthenticating)
	env, err := s.api.Login(ctx, creds)
	if err != nil {
		s.signOutAfterFailure(ctx, seq, op, err)
		return domain.AuthEnvelope{}, err
	}
	return s.establish(ctx, seq, op, env, true)
}

// Signup registers an account. When the server issues a token the session
// becomes Authenticated exactly as with Login. When it does not and no token is
// already held, the envelope is returned with a nil error and the session stays
// Unauthenticated: the account exists but the caller must log in.
func (s *SessionService) Signup(ctx context.Context, reg domain.Registration) (domain.AuthEnvelope, error) {
	defer s.busy()()
	const op = "signup"

	seq := s.begin(claimAuthenticating)
	env, err := s.api.Register(ctx, reg)
	if err != nil {
		s.signOutAfterFailure(ctx, seq, op, err)
		return domain.AuthEnvelope{}, err
	}
	return s.establish(ctx, seq, op, env, false)
}

// LoginWithToken completes a sign-in with a token issued elsewhere, such as
// an OAuth redirect. If the profile cannot be fetched the token is evicted and
// the error returned.
func (s *SessionService) LoginWithToken(ctx context.Context, token string) (domain.User, error) {
	defer s.busy()()
	const op = "login_token"

	if token == "" {
		return domain.User{}, domain.ErrTokenMissing
	}

	seq := s.begin(claimAuthenticating)
	s.api.SetToken(token)
	env, err := s.api.Profile(ctx)
	if err != nil {
		s.signOutAfterFailure(ctx, seq, op, err)
		return domain.User{}, err
	}

	user := s.ingest(op, env.User, env.RoleDefaulted)
	if err := s.commit(ctx, seq, op, transition{status: domain.StatusAuthenticated, user: &user, token: token}); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// RefreshProfile re-fetches the signed-in user. A 401 or 403 means the token is
// no longer usable and signs the session out; any other failure is returned
// without changing state.
func (s *SessionService) RefreshProfile(ctx context.Context) (domain.User, error) {
	defer s.busy()()
	const op = "refresh"

	if s.Snapshot().Status != domain.StatusAuthenticated {
		return domain.User{}, domain.ErrNotAuthenticated
	}

	seq := s.begin(claimNone)
	env, err := s.api.Profile(ctx)
	if err != nil {
		if apiErr, ok := domain.AsAPIError(err); ok &&
			(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			s.logger.Warn().Err(err).Msg("session token no longer accepted, signing out")
			_ = s.commit(ctx, seq, op, transition{status: domain.StatusUnauthenticated})
		}
		return domain.User{}, err
	}

	user := s.ingest(op, env.User, env.RoleDefaulted)
	if err := s.commit(ctx, seq, op, transition{status: domain.StatusAuthenticated, user: &user, keepToken: true}); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Logout ends the session. The remote call is best effort: its failure is
// logged and the local session is cleared regardless. Only a failure to evict
// the stored token is returned. If a newer operation settles the session while
// the remote call is in flight, that result stands and Logout returns nil.
func (s *SessionService) Logout(ctx context.Context) error {
	defer s.busy()()
	const op = "logout"

	seq := s.begin(claimNone)
	if s.Snapshot().Token != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("remote logout failed, clearing local session anyway")
		}
	}
	return settled(s.commit(ctx, seq, op, transition{status: domain.StatusUnauthenticated}))
}

// UpdatePassword changes the password of the signed-in account.
func (s *SessionService) UpdatePassword(ctx context.Context, change domain.PasswordChange) error {
	defer s.busy()()
	return s.api.UpdatePassword(ctx, change)
}

// DeleteAccount removes the signed-in account and, on success, clears the
// session as Logout does.
func (s *SessionService) DeleteAccount(ctx context.Context) error {
	defer s.busy()()
	const op = "delete_account"

	seq := s.begin(claimNone)
	if err := s.api.DeleteAccount(ctx); err != nil {
		return err
	}
	return s.commit(ctx, seq, op, transition{status: domain.StatusUnauthenticated})
}

// establish turns a successful login or signup response into an
// Authenticated session.
func (s *SessionService) establish(ctx context.Context, seq uint64, op string, env domain.AuthEnvelope, requireToken bool) (domain.AuthEnvelope, error) {
	token := env.Token
	if token == "" {
		token = s.Snapshot().Token
	}

	if token == "" {
		if requireToken {
			s.signOutAfterFailure(ctx, seq, op, domain.ErrTokenMissing)
			return domain.AuthEnvelope{}, domain.ErrTokenMissing
		}
		s.logger.Info().Str("op", op).Msg("account created without a session token")
		if err := s.commit(ctx, seq, op, transition{status: domain.StatusUnauthenticated}); err != nil {
			return env, err
		}
		return env, nil
	}

	if !env.HasIdentity() {
		s.api.SetToken(token)
		profile, err := s.api.Profile(ctx)
		if err != nil {
			s.signOutAfterFailure(ctx, seq, op, err)
			return domain.AuthEnvelope{}, err
		}
		env.User, env.RoleDefaulted = profile.User, profile.RoleDefaulted
	}

	env.User = s.ingest(op, env.User, env.RoleDefaulted)
	user := env.User
	if err := s.commit(ctx, seq, op, transition{status: domain.StatusAuthenticated, user: &user, token: token}); err != nil {
		return domain.AuthEnvelope{}, err
	}
	return env, nil
}

// signOutAfterFailure moves the session to Unauthenticated after a failed
// authentication attempt, unless a newer operation already settled it.
func (s *SessionService) signOutAfterFailure(ctx context.Context, seq uint64, op string, cause error) {
	s.logger.Debug().Err(cause).Str("op", op).Msg("session operation failed")
	if err := s.commit(ctx, seq, op, transition{status: domain.StatusUnauthenticated}); err != nil && !errors.Is(err, domain.ErrSuperseded) {
		s.logger.Error().Err(err).Str("op", op).Msg("failed to clear session after error")
	}
}

// ingest applies role normalization to a user entering the session.
func (s *SessionService) ingest(op string, u domain.User, defaulted bool) domain.User {
	role, roleDefaulted := domain.NormalizeRole(string(u.Role))
	u.Role = role
	if defaulted || roleDefaulted {
		metrics.SessionRoleDefaultedTotal.Inc()
		s.logger.Warn().
			Str("op", op).
			Str("user_id", string(u.ID)).
			Str("role", string(role)).
			Msg("server response has no role, defaulting")
	} else if !role.Known() {
		s.logger.Warn().
			Str("op", op).
			Str("user_id", string(u.ID)).
			Str("role", string(role)).
			Msg("server response has an unknown role")
	}
	return u
}

// busy marks an operation in flight until the returned func is called.
func (s *SessionService) busy() func() {
	s.inflight.Add(1)
	return func() { s.inflight.Add(-1) }
}

// begin issues the next sequence number and applies the requested claim.
func (s *SessionService) begin(c claim) uint64 {
	s.commitMu.Lock()
	s.issued++
	seq := s.issued
	if c == claimNone {
		s.commitMu.Unlock()
		return seq
	}

	s.applied = seq
	s.mu.Lock()
	from := s.status
	if c == claimAuthenticating || from != domain.StatusInitializing {
		s.status = domain.StatusAuthenticating
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.commitMu.Unlock()

	if from != snap.Status {
		s.announce(from, snap)
	}
	return seq
}

// commit applies t unless an operation issued after seq has already committed.
// Token store writes happen inside the commit so the slot always matches the
// state that was applied. A failed Save falls back to a signed-out session.
func (s *SessionService) commit(ctx context.Context, seq uint64, op string, t transition) error {
	// A decided commit finishes even if the caller has gone away.
	ctx = context.WithoutCancel(ctx)

	s.commitMu.Lock()
	if seq < s.applied {
		s.commitMu.Unlock()
		return s.stale(op, seq)
	}

	s.mu.RLock()
	current := s.token
	s.mu.RUnlock()

	if t.keepToken {
		t.token = current
	}
	if t.user != nil && t.token == "" {
		// Signed out underneath us by an older operation that settled late.
		s.commitMu.Unlock()
		return s.stale(op, seq)
	}

	var storeErr error
	if !t.keepToken {
		if t.token == "" {
			if err := s.tokens.Clear(ctx); err != nil {
				storeErr = fmt.Errorf("evict session token: %w", err)
			}
		} else if err := s.tokens.Save(ctx, t.token); err != nil {
			storeErr = fmt.Errorf("persist session token: %w", err)
			t = transition{status: domain.StatusUnauthenticated}
			if clearErr := s.tokens.Clear(ctx); clearErr != nil {
				s.logger.Error().Err(clearErr).Msg("failed to evict session token")
			}
		}
	}
	s.api.SetToken(t.token)

	s.applied = seq
	s.mu.Lock()
	from := s.status
	s.status = t.status
	s.user = t.user
	s.token = t.token
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.commitMu.Unlock()

	if !from.CanTransitionTo(t.status) {
		s.logger.Warn().Str("op", op).Str("from", from.String()).Str("to", t.status.String()).Msg("unexpected session transition")
	}
	s.announce(from, snap)
	return storeErr
}

// settled drops ErrSuperseded for operations that never report being
// overtaken. stale has already logged the discarded commit.
func settled(err error) error {
	if errors.Is(err, domain.ErrSuperseded) {
		return nil
	}
	return err
}

func (s *SessionService) stale(op string, seq uint64) error {
	metrics.SessionStaleCommitsTotal.WithLabelValues(op).Inc()
	s.logger.Debug().Str("op", op).Uint64("seq", seq).Msg("discarding result of superseded session operation")
	return domain.ErrSuperseded
}

// announce records the transition and notifies subscribers.
func (s *SessionService) announce(from domain.Status, snap domain.Snapshot) {
	if from != snap.Status {
		metrics.SessionTransitionsTotal.WithLabelValues(from.String(), snap.Status.String()).Inc()
		ev := s.logger.Info().Str("from", from.String()).Str("to", snap.Status.String())
		if snap.User != nil {
			ev = ev.Str("user_id", string(snap.User.ID)).Str("role", snap.User.Role.String())
		}
		ev.Msg("session transition")
	}

	s.subMu.Lock()
	fns := make([]func(domain.Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *SessionService) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Status:  s.status,
		Token:   s.token,
		Loading: s.inflight.Load() > 0,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}
