package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaprima-erp/ovaprima-erp/internal/auth"
	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
	_ "github.com/ovaprima-erp/ovaprima-erp/testing"
)

type stubRepo struct {
	identity *auth.Identity
	sessions map[string]string
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	if s.identity == nil || s.identity.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.identity, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*auth.Identity, error) {
	if s.identity == nil || s.identity.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.identity, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, identityID string, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]string)
	}
	s.sessions[id] = identityID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type stubSnapshots struct {
	subject     authz.Subject
	invalidated []string
}

func (s *stubSnapshots) Invalidate(identityID string) {
	s.invalidated = append(s.invalidated, identityID)
}

func (s *stubSnapshots) Resolve(ctx context.Context, identityID string) (authz.Subject, error) {
	return s.subject, nil
}

func newAuthHandler(t *testing.T, repo auth.Repository, snapshots *stubSnapshots) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := authz.Middleware{Resolver: snapshots, Logger: logger}
	service := auth.NewService(repo)
	handler := auth.NewHandler(logger, service, sessionManager, snapshots, mw)
	router := chi.NewRouter()
	router.Route("/api/auth", handler.MountRoutes)
	return router, sessionManager
}

func loginRequest(t *testing.T, sessionManager *shared.SessionManager, body string) (*http.Request, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func storedIdentity(t *testing.T, password string) *auth.Identity {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &auth.Identity{
		ID:           "ident-1",
		Email:        "user@ovaprima.id",
		Name:         "Pengguna",
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	}
}

func TestLoginSuccessBindsSession(t *testing.T) {
	repo := &stubRepo{identity: storedIdentity(t, "rahasia-kuat")}
	snapshots := &stubSnapshots{}
	router, sessionManager := newAuthHandler(t, repo, snapshots)

	req, sess := loginRequest(t, sessionManager, `{"email":"user@ovaprima.id","password":"rahasia-kuat"}`)
	res := httptest.NewRecorder()

	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if sess.Identity() != "ident-1" {
		t.Fatalf("expected session bound to ident-1, got %q", sess.Identity())
	}
	if len(snapshots.invalidated) != 1 || snapshots.invalidated[0] != "ident-1" {
		t.Fatalf("expected snapshot invalidation for ident-1, got %v", snapshots.invalidated)
	}
	if _, ok := repo.sessions[sess.ID]; !ok {
		t.Fatalf("expected session row registered for audit")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{identity: storedIdentity(t, "rahasia-kuat")}
	router, sessionManager := newAuthHandler(t, repo, &stubSnapshots{})

	req, sess := loginRequest(t, sessionManager, `{"email":"user@ovaprima.id","password":"salah-semua"}`)
	res := httptest.NewRecorder()

	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Email atau password tidak valid") {
		t.Fatalf("expected Indonesian error message, got %s", res.Body.String())
	}
	if sess.Identity() != "" {
		t.Fatalf("failed login must not bind the session")
	}
}

func TestLoginValidationRejectsShortPassword(t *testing.T) {
	router, sessionManager := newAuthHandler(t, &stubRepo{}, &stubSnapshots{})

	req, _ := loginRequest(t, sessionManager, `{"email":"user@ovaprima.id","password":"short"}`)
	res := httptest.NewRecorder()

	router.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestShowSessionUnauthenticated(t *testing.T) {
	router, sessionManager := newAuthHandler(t, &stubRepo{}, &stubSnapshots{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()

	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["authenticated"] != false {
		t.Fatalf("expected authenticated=false, got %v", payload)
	}
}

func TestShowSessionPendingSetup(t *testing.T) {
	repo := &stubRepo{identity: storedIdentity(t, "rahasia-kuat")}
	snapshots := &stubSnapshots{
		subject: authz.Subject{Identity: &authz.Identity{ID: "ident-1", Email: "user@ovaprima.id", Name: "Pengguna"}},
	}
	router, sessionManager := newAuthHandler(t, repo, snapshots)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetIdentity("ident-1")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()

	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["authenticated"] != true {
		t.Fatalf("expected authenticated=true, got %v", payload)
	}
	if payload["pending_setup"] != true {
		t.Fatalf("expected pending_setup=true, got %v", payload)
	}
	if _, ok := payload["user"]; ok {
		t.Fatalf("pending setup response must not include a user")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := &stubRepo{identity: storedIdentity(t, "rahasia-kuat"), sessions: map[string]string{"sess-1": "ident-1"}}
	snapshots := &stubSnapshots{}
	router, sessionManager := newAuthHandler(t, repo, snapshots)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.ID = "sess-1"
	sess.SetIdentity("ident-1")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()

	router.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if _, ok := repo.sessions["sess-1"]; ok {
		t.Fatalf("expected postgres session row removed")
	}
	if len(snapshots.invalidated) != 1 {
		t.Fatalf("expected snapshot invalidation on logout, got %v", snapshots.invalidated)
	}
}
