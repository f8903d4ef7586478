package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"network20-backend/pkg/kvstore"
)

// expiryMargin refreshes a session slightly before the backend would reject it.
const expiryMargin = 30 * time.Second

type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthChangeFunc receives auth transitions; session is nil after sign-out.
type AuthChangeFunc func(event AuthEvent, session *Session)

type SignUpParams struct {
	Email      string
	Password   string
	Data       map[string]any
	RedirectTo string
}

// Auth is the GoTrue client. Unless the client is stateless, the session is
// persisted in the kvstore under StorageKey and refreshed when it expires.
type Auth struct {
	c          *Client
	store      kvstore.Store
	storageKey string
	stateless  bool
	now        func() time.Time

	mu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]*subscription
	nextSub int
}

func newAuth(c *Client, store kvstore.Store, storageKey string) *Auth {
	return &Auth{
		c:          c,
		store:      store,
		storageKey: storageKey,
		now:        time.Now,
		subs:       map[int]*subscription{},
	}
}

// SetStateless stops the client from storing sessions. Callers then attach
// a session per call with WithSession.
func (a *Auth) SetStateless(stateless bool) { a.stateless = stateless }

func (a *Auth) StorageKey() string { return a.storageKey }

// SignUp registers a user. The session is nil while the backend waits for
// email confirmation.
func (a *Auth) SignUp(ctx context.Context, p SignUpParams) (*User, *Session, error) {
	var query url.Values
	if p.RedirectTo != "" {
		query = url.Values{"redirect_to": {p.RedirectTo}}
	}
	body := map[string]any{"email": p.Email, "password": p.Password}
	if len(p.Data) > 0 {
		body["data"] = p.Data
	}

	var raw struct {
		Session
		ID           string         `json:"id"`
		Email        string         `json:"email"`
		UserMetadata map[string]any `json:"user_metadata"`
	}
	if _, err := a.c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/signup", query: query, body: body}, &raw); err != nil {
		return nil, nil, err
	}

	if raw.AccessToken == "" {
		return &User{ID: raw.ID, Email: raw.Email, UserMetadata: raw.UserMetadata}, nil, nil
	}
	session := raw.Session
	if err := a.establish(ctx, &session, EventSignedIn); err != nil {
		return nil, nil, err
	}
	return &session.User, &session, nil
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	session, err := a.token(ctx, "password", map[string]any{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	if err := a.establish(ctx, session, EventSignedIn); err != nil {
		return nil, err
	}
	return session, nil
}

// RefreshSession exchanges refreshToken for a new session.
func (a *Auth) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	session, err := a.token(ctx, "refresh_token", map[string]any{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}
	if err := a.establish(ctx, session, EventTokenRefreshed); err != nil {
		return nil, err
	}
	return session, nil
}

func (a *Auth) token(ctx context.Context, grant string, body map[string]any) (*Session, error) {
	var session Session
	_, err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
	}, &session)
	if err != nil {
		return nil, err
	}
	if session.ExpiresAt == 0 && session.ExpiresIn > 0 {
		session.ExpiresAt = a.now().Add(time.Duration(session.ExpiresIn) * time.Second).Unix()
	}
	return &session, nil
}

func (a *Auth) establish(ctx context.Context, s *Session, event AuthEvent) error {
	if !a.stateless {
		if err := a.saveSession(ctx, s); err != nil {
			return err
		}
	}
	a.notify(event, s)
	return nil
}

// SignOut revokes the current session. The stored session is dropped even
// when the revoke call fails.
func (a *Auth) SignOut(ctx context.Context) error {
	_, fromCtx := SessionFromContext(ctx)
	session, err := a.CurrentSession(ctx)
	if err != nil {
		return err
	}

	var revokeErr error
	if session != nil {
		_, revokeErr = a.c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout", token: session.AccessToken}, nil)
		var apiErr *APIError
		if errors.As(revokeErr, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusNotFound) {
			revokeErr = nil
		}
	}

	if !fromCtx && !a.stateless {
		if err := a.store.Remove(ctx, a.storageKey); err != nil {
			return err
		}
	}
	a.notify(EventSignedOut, nil)
	return revokeErr
}

// ResetPasswordForEmail sends a recovery email linking to redirectTo.
func (a *Auth) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	var query url.Values
	if redirectTo != "" {
		query = url.Values{"redirect_to": {redirectTo}}
	}
	_, err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		query:  query,
		body:   map[string]any{"email": email},
	}, nil)
	return err
}

// GetUser returns the signed-in user, or nil when there is no session. A
// session attached with WithSession is trusted as-is; a stored session is
// checked against the backend.
func (a *Auth) GetUser(ctx context.Context) (*User, error) {
	if s, ok := SessionFromContext(ctx); ok {
		u := s.User
		return &u, nil
	}
	session, err := a.CurrentSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	var user User
	if _, err := a.c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/user", token: session.AccessToken}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentSession returns the session attached to ctx, else the stored one,
// refreshing it first when it is about to expire. A refresh rejected by the
// backend signs the user out.
func (a *Auth) CurrentSession(ctx context.Context) (*Session, error) {
	if s, ok := SessionFromContext(ctx); ok {
		return s, nil
	}
	if a.stateless {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	session, err := a.loadSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	if !a.expired(session) {
		return session, nil
	}

	if session.RefreshToken != "" {
		refreshed, err := a.token(ctx, "refresh_token", map[string]any{"refresh_token": session.RefreshToken})
		if err == nil {
			if err := a.establish(ctx, refreshed, EventTokenRefreshed); err != nil {
				return nil, err
			}
			return refreshed, nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status >= http.StatusInternalServerError {
			return nil, err
		}
	}

	if err := a.store.Remove(ctx, a.storageKey); err != nil {
		return nil, err
	}
	a.notify(EventSignedOut, nil)
	return nil, nil
}

func (a *Auth) expired(s *Session) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return !a.now().Add(expiryMargin).Before(time.Unix(s.ExpiresAt, 0))
}

func (a *Auth) accessToken(ctx context.Context) (string, error) {
	s, err := a.CurrentSession(ctx)
	if err != nil || s == nil {
		return "", err
	}
	return s.AccessToken, nil
}

func (a *Auth) loadSession(ctx context.Context) (*Session, error) {
	raw, found, err := a.store.Get(ctx, a.storageKey)
	if err != nil || !found {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("supabase: decode stored session: %w", err)
	}
	return &s, nil
}

func (a *Auth) saveSession(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.storageKey, string(b))
}

type authChange struct {
	event   AuthEvent
	session *Session
}

type subscription struct {
	events chan authChange
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) run(fn AuthChangeFunc) {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case ch := <-s.events:
			select {
			case <-s.quit:
				return
			default:
			}
			fn(ch.event, ch.session)
		}
	}
}

func (s *subscription) deliver(ch authChange) {
	select {
	case s.events <- ch:
	case <-s.quit:
	}
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}

// OnAuthStateChange calls fn on its own goroutine for every transition, in
// order, starting with EventInitialSession. The returned func stops the
// subscription and waits for fn to return; it must not be called from
// inside fn.
func (a *Auth) OnAuthStateChange(fn AuthChangeFunc) (unsubscribe func()) {
	sub := &subscription{
		events: make(chan authChange, 16),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	var initial *Session
	if !a.stateless {
		initial, _ = a.loadSession(context.Background())
	}

	a.subsMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = sub
	sub.events <- authChange{event: EventInitialSession, session: initial}
	a.subsMu.Unlock()

	go sub.run(fn)

	return func() {
		a.subsMu.Lock()
		delete(a.subs, id)
		a.subsMu.Unlock()
		sub.stop()
	}
}

func (a *Auth) notify(event AuthEvent, s *Session) {
	var snapshot *Session
	if s != nil {
		cp := *s
		snapshot = &cp
	}
	a.subsMu.Lock()
	subs := make([]*subscription, 0, len(a.subs))
	for _, sub := range a.subs {
		subs = append(subs, sub)
	}
	a.subsMu.Unlock()

	for _, sub := range subs {
		sub.deliver(authChange{event: event, session: snapshot})
	}
}

// Close stops every subscription.
func (a *Auth) Close() {
	a.subsMu.Lock()
	subs := a.subs
	a.subs = map[int]*subscription{}
	a.subsMu.Unlock()
	for _, sub := range subs {
		sub.stop()
	}
}
