package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/infrastructure/tokenstore"
)

type stubAuthAPI struct {
	mu    sync.Mutex
	token string

	loginFn          func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error)
	registerFn       func(ctx context.Context, reg domain.Registration) (domain.AuthEnvelope, error)
	profileFn        func(ctx context.Context, token string) (domain.AuthEnvelope, error)
	updatePasswordFn func(ctx context.Context, change domain.PasswordChange) error
	deleteAccountFn  func(ctx context.Context) error
	logoutFn         func(ctx context.Context) error
}

func (s *stubAuthAPI) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *stubAuthAPI) attached() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *stubAuthAPI) Login(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
	return s.loginFn(ctx, creds)
}

func (s *stubAuthAPI) Register(ctx context.Context, reg domain.Registration) (domain.AuthEnvelope, error) {
	return s.registerFn(ctx, reg)
}

func (s *stubAuthAPI) Profile(ctx context.Context) (domain.AuthEnvelope, error) {
	return s.profileFn(ctx, s.attached())
}

func (s *stubAuthAPI) UpdatePassword(ctx context.Context, change domain.PasswordChange) error {
	return s.updatePasswordFn(ctx, change)
}

func (s *stubAuthAPI) DeleteAccount(ctx context.Context) error {
	return s.deleteAccountFn(ctx)
}

func (s *stubAuthAPI) Logout(ctx context.Context) error {
	return s.logoutFn(ctx)
}

// failingStore fails every operation with err.
type failingStore struct{ err error }

func (f failingStore) Load(context.Context) (string, error) { return "", f.err }
func (f failingStore) Save(context.Context, string) error   { return f.err }
func (f failingStore) Clear(context.Context) error          { return f.err }

func envelope(t *testing.T, raw string) domain.AuthEnvelope {
	t.Helper()
	env, err := domain.DecodeAuthEnvelope([]byte(raw))
	if err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return env
}

func newSession(api *stubAuthAPI, store *tokenstore.Memory) *SessionService {
	return NewSessionService(api, store, zerolog.Nop())
}

func storedToken(t *testing.T, store *tokenstore.Memory) string {
	t.Helper()
	tok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	return tok
}

func TestSession_InitialState(t *testing.T) {
	s := newSession(&stubAuthAPI{}, tokenstore.NewMemory())
	snap := s.Snapshot()
	if snap.Status != domain.StatusInitializing || snap.User != nil || snap.Token != "" || s.IsLoading() {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
}

func TestSession_Login_WrappedResponse(t *testing.T) {
	store := tokenstore.NewMemory()
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return envelope(t, `{"token":"abc","user":{"id":1,"email":"a@b.com"}}`), nil
		},
	}
	s := newSession(api, store)

	env, err := s.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if env.Token != "abc" || env.Shape != domain.ShapeWrapped {
		t.Fatalf("expected the full response, got %+v", env)
	}

	snap := s.Snapshot()
	if snap.Status != domain.StatusAuthenticated || snap.Token != "abc" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.User == nil || snap.User.ID != "1" || snap.User.Role != domain.RoleInfluencer {
		t.Fatalf("expected defaulted influencer user, got %+v", snap.User)
	}
	if got := storedToken(t, store); got != "abc" {
		t.Fatalf("expected persisted token abc, got %q", got)
	}
	if api.attached() != "abc" {
		t.Fatalf("expected token attached to the client")
	}
	if s.IsLoading() {
		t.Fatalf("busy flag must be cleared")
	}
}

func TestSession_Login_BareResponseNormalizesRole(t *testing.T) {
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return envelope(t, `{"id":"u7","email":"b@x.io","role":" Brand ","token":"t7"}`), nil
		},
	}
	s := newSession(api, tokenstore.NewMemory())

	if _, err := s.Login(context.Background(), domain.Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if u := s.Snapshot().User; u == nil || u.Role != domain.RoleBrand {
		t.Fatalf("expected brand role, got %+v", u)
	}
}

func TestSession_Login_NormalizesRoleFromAnyAdapter(t *testing.T) {
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return domain.AuthEnvelope{Token: "t", User: domain.User{ID: "1", Role: "  INFLUENCER"}}, nil
		},
	}
	s := newSession(api, tokenstore.NewMemory())

	env, err := s.Login(context.Background(), domain.Credentials{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if env.User.Role != domain.RoleInfluencer || s.Snapshot().User.Role != domain.RoleInfluencer {
		t.Fatalf("expected normalized role, got %q", env.User.Role)
	}
}

func TestSession_Login_Unauthorized(t *testing.T) {
	store := tokenstore.NewMemory()
	want := &domain.APIError{Message: "Invalid credentials", Status: http.StatusUnauthorized}
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return domain.AuthEnvelope{}, want
		},
	}
	s := newSession(api, store)
	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	_, err := s.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "bad"})
	if err != want {
		t.Fatalf("expected the API error unchanged, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusUnauthenticated || snap.User != nil || snap.Token != "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if s.IsLoading() {
		t.Fatalf("busy flag must be cleared after a failure")
	}
}

func TestSession_Login_WithoutToken(t *testing.T) {
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return envelope(t, `{"user":{"id":1,"email":"a@b.com"}}`), nil
		},
	}
	s := newSession(api, tokenstore.NewMemory())

	_, err := s.Login(context.Background(), domain.Credentials{})
	if !errors.Is(err, domain.ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
	if snap := s.Snapshot(); snap.Status != domain.StatusUnauthenticated || snap.User != nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSession_Login_TokenOnlyResponseFetchesProfile(t *testing.T) {
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return envelope(t, `{"token":"tk"}`), nil
		},
		profileFn: func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
			if token != "tk" {
				t.Fatalf("profile fetched with token %q", token)
			}
			return envelope(t, `{"id":"9","email":"p@x.io","role":"brand"}`), nil
		},
	}
	s := newSession(api, tokenstore.NewMemory())

	env, err := s.Login(context.Background(), domain.Credentials{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if env.User.ID != "9" || s.Snapshot().User.Role != domain.RoleBrand {
		t.Fatalf("expected profile user, got %+v", env.User)
	}
}

func TestSession_Signup(t *testing.T) {
	store := tokenstore.NewMemory()
	api := &stubAuthAPI{
		registerFn: func(ctx context.Context, reg domain.Registration) (domain.AuthEnvelope, error) {
			if reg.Role != domain.RoleBrand {
				t.Fatalf("unexpected registration %+v", reg)
			}
			return envelope(t, `{"token":"s1","user":{"id":"b1","email":"brand@x.io","role":"BRAND","brandName":"Acme"}}`), nil
		},
	}
	s := newSession(api, store)

	env, err := s.Signup(context.Background(), domain.Registration{Email: "brand@x.io", Password: "pw", Role: domain.RoleBrand})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusAuthenticated || snap.User.Role != domain.RoleBrand || snap.User.BrandName != "Acme" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if env.User.DisplayName() != "Acme" || storedToken(t, store) != "s1" {
		t.Fatalf("unexpected signup result %+v", env)
	}
}

func TestSession_Signup_WithoutToken(t *testing.T) {
	api := &stubAuthAPI{
		registerFn: func(ctx context.Context, reg domain.Registration) (domain.AuthEnvelope, error) {
			return envelope(t, `{"id":"n1","email":"new@x.io"}`), nil
		},
	}
	s := newSession(api, tokenstore.NewMemory())

	env, err := s.Signup(context.Background(), domain.Registration{Email: "new@x.io"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if env.User.ID != "n1" {
		t.Fatalf("expected the created account, got %+v", env.User)
	}
	if snap := s.Snapshot(); snap.Status != domain.StatusUnauthenticated || snap.User != nil {
		t.Fatalf("a signup without a token must not authenticate, got %+v", snap)
	}
}

func TestSession_Bootstrap_NoToken(t *testing.T) {
	api := &stubAuthAPI{
		profileFn: func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
			t.Fatalf("profile must not be fetched without a token")
			return domain.AuthEnvelope{}, nil
		},
	}
	s := newSession(api, tokenstore.NewMemory())

	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if got := s.Snapshot().Status; got != domain.StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", got)
	}
}

func TestSession_Bootstrap_RestoresSession(t *testing.T) {
	store := tokenstore.NewMemory()
	_ = store.Save(context.Background(), "persisted")
	api := &stubAuthAPI{
		profileFn: func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
			if token != "persisted" {
				t.Fatalf("expected persisted token attached, got %q", token)
			}
			return envelope(t, `{"user":{"id":3,"email":"c@x.io","role":"Influencer"}}`), nil
		},
	}
	s := newSession(api, store)

	var seen []domain.Status
	unsubscribe := s.Subscribe(func(snap domain.Snapshot) { seen = append(seen, snap.Status) })
	defer unsubscribe()

	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusAuthenticated || snap.Token != "persisted" || snap.User.Role != domain.RoleInfluencer {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(seen) != 1 || seen[0] != domain.StatusAuthenticated {
		t.Fatalf("expected Initializing to go straight to Authenticated, saw %v", seen)
	}
}

func TestSession_Bootstrap_ProfileTransportFailure(t *testing.T) {
	store := tokenstore.NewMemory()
	_ = store.Save(context.Background(), "stale")
	api := &stubAuthAPI{
		profileFn: func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
			return domain.AuthEnvelope{}, &domain.APIError{
				Message: "network error: connection refused",
				Status:  domain.StatusNetworkFailure,
				Err:     errors.New("connection refused"),
			}
		},
	}
	s := newSession(api, store)

	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap must swallow profile failures, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusUnauthenticated || snap.User != nil || snap.Token != "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if got := storedToken(t, store); got != "" {
		t.Fatalf("expected token slot cleared, got %q", got)
	}
	if api.attached() != "" {
		t.Fatalf("expected token detached from the client")
	}
}

func TestSession_Bootstrap_StoreFailure(t *testing.T) {
	boom := errors.New("disk gone")
	s := NewSessionService(&stubAuthAPI{}, failingStore{err: boom}, zerolog.Nop())

	if err := s.Bootstrap(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if got := s.Snapshot().Status; got != domain.StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", got)
	}
}

func TestSession_LoginWithToken(t *testing.T) {
	store := tokenstore.NewMemory()
	api := &stubAuthAPI{
		profileFn: func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
			return envelope(t, `{"id":"o1","email":"oauth@x.io","role":"brand"}`), nil
		},
	}
	s := newSession(api, store)

	user, err := s.LoginWithToken(context.Background(), "oauth-token")
	if err != nil {
		t.Fatalf("login with token: %v", err)
	}
	if user.ID != "o1" || storedToken(t, store) != "oauth-token" || s.Snapshot().Status != domain.StatusAuthenticated {
		t.Fatalf("unexpected result %+v / %+v", user, s.Snapshot())
	}
}

func TestSession_LoginWithToken_ProfileFailureEvicts(t *testing.T) {
	store := tokenstore.NewMemory()
	want := &domain.APIError{Message: "jwt expired", Status: http.StatusUnauthorized}
	api := &stubAuthAPI{
		profileFn: func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
			return domain.AuthEnvelope{}, want
		},
	}
	s := newSession(api, store)

	if _, err := s.LoginWithToken(context.Background(), "bad"); err != want {
		t.Fatalf("expected profile error, got %v", err)
	}
	if storedToken(t, store) != "" || s.Snapshot().Status != domain.StatusUnauthenticated {
		t.Fatalf("expected evicted token and unauthenticated session, got %+v", s.Snapshot())
	}
}

func TestSession_LoginWithToken_Empty(t *testing.T) {
	s := newSession(&stubAuthAPI{}, tokenstore.NewMemory())
	if _, err := s.LoginWithToken(context.Background(), ""); !errors.Is(err, domain.ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func loggedIn(t *testing.T, api *stubAuthAPI, store *tokenstore.Memory) *SessionService {
	t.Helper()
	api.loginFn = func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
		return envelope(t, `{"token":"live","user":{"id":1,"email":"a@b.com","role":"influencer"}}`), nil
	}
	s := newSession(api, store)
	if _, err := s.Login(context.Background(), domain.Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	return s
}

func TestSession_Logout_RemoteFailureStillSignsOut(t *testing.T) {
	store := tokenstore.NewMemory()
	api := &stubAuthAPI{
		logoutFn: func(ctx context.Context) error {
			return &domain.APIError{Message: "boom", Status: http.StatusInternalServerError}
		},
	}
	s := loggedIn(t, api, store)

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout must not surface remote failures, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusUnauthenticated || snap.User != nil || snap.Token != "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if storedToken(t, store) != "" || api.attached() != "" {
		t.Fatalf("expected token evicted and detached")
	}
}

func TestSession_Logout_WithoutSessionSkipsRemoteCall(t *testing.T) {
	api := &stubAuthAPI{
		logoutFn: func(ctx context.Context) error {
			t.Fatalf("no remote logout expected without a token")
			return nil
		},
	}
	s := newSession(api, tokenstore.NewMemory())
	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
}

func TestSession_RefreshProfile(t *testing.T) {
	store := tokenstore.NewMemory()
	api := &stubAuthAPI{}
	s := loggedIn(t, api, store)

	api.profileFn = func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
		return envelope(t, `{"id":1,"email":"a@b.com","role":"influencer","followers":1200}`), nil
	}
	user, err := s.RefreshProfile(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if user.Followers != 1200 || s.Snapshot().User.Followers != 1200 || s.Snapshot().Token != "live" {
		t.Fatalf("expected refreshed user, got %+v", s.Snapshot())
	}

	api.profileFn = func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
		return domain.AuthEnvelope{}, &domain.APIError{Message: "maintenance", Status: http.StatusServiceUnavailable}
	}
	if _, err := s.RefreshProfile(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if s.Snapshot().Status != domain.StatusAuthenticated {
		t.Fatalf("a 503 must not sign the session out")
	}

	api.profileFn = func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
		return domain.AuthEnvelope{}, &domain.APIError{Message: "revoked", Status: http.StatusUnauthorized}
	}
	if _, err := s.RefreshProfile(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected 401, got %v", err)
	}
	if s.Snapshot().Status != domain.StatusUnauthenticated || storedToken(t, store) != "" {
		t.Fatalf("a 401 must sign the session out")
	}

	if _, err := s.RefreshProfile(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSession_UpdatePasswordAndDeleteAccount(t *testing.T) {
	store := tokenstore.NewMemory()
	api := &stubAuthAPI{}
	s := loggedIn(t, api, store)

	api.updatePasswordFn = func(ctx context.Context, change domain.PasswordChange) error {
		if !s.IsLoading() {
			t.Fatalf("expected busy flag during the call")
		}
		return &domain.APIError{Message: "Current password is incorrect", Status: http.StatusBadRequest}
	}
	err := s.UpdatePassword(context.Background(), domain.PasswordChange{CurrentPassword: "x", NewPassword: "y"})
	if apiErr, ok := domain.AsAPIError(err); !ok || apiErr.Message != "Current password is incorrect" {
		t.Fatalf("expected the API error, got %v", err)
	}
	if s.IsLoading() || s.Snapshot().Status != domain.StatusAuthenticated {
		t.Fatalf("password failure must not change the session")
	}

	api.deleteAccountFn = func(ctx context.Context) error {
		return &domain.APIError{Message: "nope", Status: http.StatusInternalServerError}
	}
	if err := s.DeleteAccount(context.Background()); err == nil {
		t.Fatalf("expected delete error")
	}
	if s.Snapshot().Status != domain.StatusAuthenticated {
		t.Fatalf("failed delete must keep the session")
	}

	api.deleteAccountFn = func(ctx context.Context) error { return nil }
	if err := s.DeleteAccount(context.Background()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Snapshot().Status != domain.StatusUnauthenticated || storedToken(t, store) != "" {
		t.Fatalf("expected signed out session after delete")
	}
}

func TestSession_SaveFailureSignsOut(t *testing.T) {
	boom := errors.New("read-only")
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return envelope(t, `{"token":"abc","user":{"id":1}}`), nil
		},
	}
	s := NewSessionService(api, failingStore{err: boom}, zerolog.Nop())

	if _, err := s.Login(context.Background(), domain.Credentials{}); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusUnauthenticated || snap.User != nil || snap.Token != "" || api.attached() != "" {
		t.Fatalf("an unpersisted token must not leave a session behind, got %+v", snap)
	}
}

func TestSession_StaleLoginIsDiscarded(t *testing.T) {
	store := tokenstore.NewMemory()
	release := make(chan struct{})
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			if creds.Email == "slow@x.io" {
				<-release
				return envelope(t, `{"token":"slow","user":{"id":"slow","role":"brand"}}`), nil
			}
			return envelope(t, `{"token":"fast","user":{"id":"fast","role":"influencer"}}`), nil
		},
	}
	s := newSession(api, store)

	slowErr := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		close(started)
		_, err := s.Login(context.Background(), domain.Credentials{Email: "slow@x.io"})
		slowErr <- err
	}()
	<-started
	waitFor(t, func() bool { return s.Snapshot().Status == domain.StatusAuthenticating })

	if _, err := s.Login(context.Background(), domain.Credentials{Email: "fast@x.io"}); err != nil {
		t.Fatalf("fast login: %v", err)
	}
	close(release)

	if err := <-slowErr; !errors.Is(err, domain.ErrSuperseded) {
		t.Fatalf("expected the older login to be superseded, got %v", err)
	}
	snap := s.Snapshot()
	if snap.User == nil || snap.User.ID != "fast" || snap.Token != "fast" || storedToken(t, store) != "fast" {
		t.Fatalf("expected the newer login to win, got %+v", snap)
	}
	if api.attached() != "fast" {
		t.Fatalf("expected the winning token attached, got %q", api.attached())
	}
}

func TestSession_LogoutSupersedesInFlightLogin(t *testing.T) {
	store := tokenstore.NewMemory()
	release := make(chan struct{})
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			<-release
			return envelope(t, `{"token":"late","user":{"id":1}}`), nil
		},
		logoutFn: func(ctx context.Context) error { return nil },
	}
	s := newSession(api, store)

	done := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), domain.Credentials{})
		done <- err
	}()
	waitFor(t, func() bool { return s.Snapshot().Status == domain.StatusAuthenticating })

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, domain.ErrSuperseded) {
		t.Fatalf("expected superseded login, got %v", err)
	}
	if snap := s.Snapshot(); snap.Status != domain.StatusUnauthenticated || storedToken(t, store) != "" {
		t.Fatalf("logout must win over the older login, got %+v", snap)
	}
}

func TestSession_NewerLoginOvertakesInFlightLogout(t *testing.T) {
	store := tokenstore.NewMemory()
	api := &stubAuthAPI{}
	s := loggedIn(t, api, store)

	entered := make(chan struct{})
	release := make(chan struct{})
	api.logoutFn = func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	}
	api.loginFn = func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
		return envelope(t, `{"token":"fresh","user":{"id":2,"email":"c@d.com","role":"brand"}}`), nil
	}

	done := make(chan error, 1)
	go func() { done <- s.Logout(context.Background()) }()
	<-entered

	if _, err := s.Login(context.Background(), domain.Credentials{Email: "c@d.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("overtaken logout must return nil, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusAuthenticated || snap.Token != "fresh" || storedToken(t, store) != "fresh" {
		t.Fatalf("expected the newer login to stand, got %+v", snap)
	}
}

func TestSession_NewerLoginOvertakesInFlightBootstrap(t *testing.T) {
	store := tokenstore.NewMemory()
	if err := store.Save(context.Background(), "old"); err != nil {
		t.Fatal(err)
	}
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &stubAuthAPI{
		profileFn: func(ctx context.Context, token string) (domain.AuthEnvelope, error) {
			close(entered)
			<-release
			return envelope(t, `{"user":{"id":1,"role":"influencer"}}`), nil
		},
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return envelope(t, `{"token":"fresh","user":{"id":2,"role":"brand"}}`), nil
		},
	}
	s := newSession(api, store)

	done := make(chan error, 1)
	go func() { done <- s.Bootstrap(context.Background()) }()
	<-entered

	if _, err := s.Login(context.Background(), domain.Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("overtaken bootstrap must return nil, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Token != "fresh" || snap.User == nil || snap.User.ID != "2" {
		t.Fatalf("expected the login to stand, got %+v", snap)
	}
}

func TestSession_BusyFlagWithOverlappingOperations(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	gate := make(chan struct{})
	api := &stubAuthAPI{
		updatePasswordFn: func(ctx context.Context, change domain.PasswordChange) error {
			<-gate
			return nil
		},
	}
	s := newSession(api, tokenstore.NewMemory())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.UpdatePassword(context.Background(), domain.PasswordChange{})
		}()
	}
	waitFor(t, func() bool { return s.inflight.Load() == 5 })
	if !s.IsLoading() {
		t.Fatalf("expected busy while operations are in flight")
	}

	gate <- struct{}{}
	waitFor(t, func() bool { return s.inflight.Load() == 4 })
	if !s.IsLoading() {
		t.Fatalf("one finished operation must not clear the busy flag")
	}

	close(gate)
	wg.Wait()
	if s.IsLoading() {
		t.Fatalf("expected idle after all operations finished")
	}
}

func TestSession_ConcurrentOperationsKeepInvariant(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := tokenstore.NewMemory()
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return envelope(t, `{"token":"`+creds.Email+`","user":{"id":"`+creds.Email+`"}}`), nil
		},
		logoutFn: func(ctx context.Context) error { return nil },
	}
	s := newSession(api, store)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 0 {
				_ = s.Logout(context.Background())
				return
			}
			_, err := s.Login(context.Background(), domain.Credentials{Email: string(rune('a' + i%26))})
			if err != nil && !errors.Is(err, domain.ErrSuperseded) {
				t.Errorf("unexpected login error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.User != nil && snap.Token == "" {
		t.Fatalf("a user without a token: %+v", snap)
	}
	if got := storedToken(t, store); got != snap.Token {
		t.Fatalf("stored token %q does not match session token %q", got, snap.Token)
	}
	if api.attached() != snap.Token {
		t.Fatalf("attached token %q does not match session token %q", api.attached(), snap.Token)
	}
	if snap.User != nil && string(snap.User.ID) != snap.Token {
		t.Fatalf("user %q committed with another operation's token %q", snap.User.ID, snap.Token)
	}
}

func TestSession_SubscribeAndUnsubscribe(t *testing.T) {
	api := &stubAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (domain.AuthEnvelope, error) {
			return envelope(t, `{"token":"t","user":{"id":1}}`), nil
		},
		logoutFn: func(ctx context.Context) error { return nil },
	}
	s := newSession(api, tokenstore.NewMemory())

	var mu sync.Mutex
	var seen []domain.Status
	unsubscribe := s.Subscribe(func(snap domain.Snapshot) {
		mu.Lock()
		seen = append(seen, snap.Status)
		mu.Unlock()
	})

	if _, err := s.Login(context.Background(), domain.Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	unsubscribe()
	unsubscribe()
	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []domain.Status{domain.StatusAuthenticating, domain.StatusAuthenticated}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
