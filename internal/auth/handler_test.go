package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/auth"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/identity"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/shared"
	_ "github.com/ielcomnunsahui/cohssa-electoral-system-sub002/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type stubAudit struct {
	events []audit.Event
}

func (s *stubAudit) Record(ctx context.Context, event audit.Event) {
	s.events = append(s.events, event)
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager, *identity.Broadcaster, *stubAudit) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	broadcaster := identity.NewBroadcaster()
	auditor := &stubAudit{}
	handler := auth.NewHandler(discardLogger(), auth.NewService(repo), sessionManager, broadcaster, auditor)
	return handler, sessionManager, broadcaster, auditor
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func userWithPassword(t *testing.T, password string) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &auth.User{ID: 7, Email: "student@cohssa.test", FullName: "Ada Obi", PasswordHash: string(hashed), IsActive: true}
}

func doLogin(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)
	if err := sessionManager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res, sess
}

func TestLoginSuccess(t *testing.T) {
	handler, sessionManager, broadcaster, auditor := newAuthHandler(t, &stubRepo{user: userWithPassword(t, "correctpass")})

	var gotID string
	var gotOK bool
	broadcaster.Subscribe(func(id identity.Identity, ok bool) {
		gotID, gotOK = id.ID, ok
	})

	res, sess := doLogin(t, handler, sessionManager, `{"email":"student@cohssa.test","password":"correctpass"}`)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if sess.User() != "7" {
		t.Fatalf("expected session user 7, got %q", sess.User())
	}
	if !gotOK || gotID != "7" {
		t.Fatalf("expected identity broadcast for user 7, got %q ok=%v", gotID, gotOK)
	}
	if len(auditor.events) != 1 || auditor.events[0].Action != audit.ActionSignIn {
		t.Fatalf("expected one sign_in audit event, got %+v", auditor.events)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler, sessionManager, _, auditor := newAuthHandler(t, &stubRepo{user: userWithPassword(t, "correctpass")})

	res, sess := doLogin(t, handler, sessionManager, `{"email":"student@cohssa.test","password":"wrongpass1"}`)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if sess.User() != "" {
		t.Fatalf("expected no session user, got %q", sess.User())
	}
	if len(auditor.events) != 0 {
		t.Fatalf("expected no audit events, got %+v", auditor.events)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	user := userWithPassword(t, "correctpass")
	user.IsActive = false
	handler, sessionManager, _, _ := newAuthHandler(t, &stubRepo{user: user})

	res, _ := doLogin(t, handler, sessionManager, `{"email":"student@cohssa.test","password":"correctpass"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestLogoutClearsSessionAndBroadcasts(t *testing.T) {
	handler, sessionManager, broadcaster, auditor := newAuthHandler(t, &stubRepo{user: userWithPassword(t, "correctpass")})

	_, sess := doLogin(t, handler, sessionManager, `{"email":"student@cohssa.test","password":"correctpass"}`)

	var lastOK = true
	broadcaster.Subscribe(func(id identity.Identity, ok bool) {
		lastOK = ok
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	loaded, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), loaded)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.LogoutForTest(res, req)
	if err := sessionManager.Commit(ctx, res, req, loaded); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if loaded.User() != "" {
		t.Fatalf("expected cleared session user, got %q", loaded.User())
	}
	if lastOK {
		t.Fatalf("expected sign-out broadcast")
	}
	if len(auditor.events) != 2 || auditor.events[1].Action != audit.ActionSignOut {
		t.Fatalf("expected sign_out audit event, got %+v", auditor.events)
	}
}
