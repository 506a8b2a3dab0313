package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/accountmart/internal/middleware"
	"github.com/hitoshi/accountmart/internal/model"
	"github.com/hitoshi/accountmart/internal/repository"
)

// --- モック定義 ---

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		BaseURL:       "http://localhost:3000",
		SessionMaxAge: 86400,
	}
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- テスト ---

func TestAuthHandler_Login_RedirectsWithStateCookie(t *testing.T) {
	svc := &mockAuthService{
		getLoginURLFn: func(state string) string {
			return "https://idp.example.com/authorize?state=" + state
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	state := findCookie(resp, oauthStateCookie)
	if state == nil || state.Value == "" {
		t.Fatal("oauth_state cookie should be set")
	}
	if !state.HttpOnly {
		t.Error("oauth_state cookie should be HttpOnly")
	}
	if loc := resp.Header.Get("Location"); loc != "https://idp.example.com/authorize?state="+state.Value {
		t.Errorf("Location = %q", loc)
	}
}

func TestAuthHandler_Callback_Success_SetsSessionCookie(t *testing.T) {
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			if code != "auth-code" {
				t.Errorf("code = %q, want %q", code, "auth-code")
			}
			return &model.Session{ID: "new-session", UserID: 1}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=s1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "s1"})
	w := httptest.NewRecorder()
	h.Callback(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if loc := resp.Header.Get("Location"); loc != "http://localhost:3000" {
		t.Errorf("Location = %q, want base URL", loc)
	}
	session := findCookie(resp, middleware.SessionCookieName)
	if session == nil || session.Value != "new-session" {
		t.Fatalf("session cookie = %+v, want new-session", session)
	}
	if !session.HttpOnly || session.MaxAge != 86400 {
		t.Errorf("session cookie HttpOnly=%v MaxAge=%d", session.HttpOnly, session.MaxAge)
	}
}

func TestAuthHandler_Callback_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		cookie     string
		callbackFn func(ctx context.Context, code string) (*model.Session, error)
		wantStatus int
	}{
		{"state mismatch", "/auth/callback?code=c&state=a", "b", nil, http.StatusBadRequest},
		{"missing state cookie", "/auth/callback?code=c&state=a", "", nil, http.StatusBadRequest},
		{"missing code", "/auth/callback?state=a", "a", nil, http.StatusBadRequest},
		{
			"provider failure", "/auth/callback?code=c&state=a", "a",
			func(ctx context.Context, code string) (*model.Session, error) {
				return nil, errors.New("token exchange failed")
			},
			http.StatusBadGateway,
		},
		{
			"store unavailable", "/auth/callback?code=c&state=a", "a",
			func(ctx context.Context, code string) (*model.Session, error) {
				return nil, fmt.Errorf("upsert: %w", repository.ErrStoreUnavailable)
			},
			http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{handleCallbackFn: tt.callbackFn}, testAuthConfig())

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			h.Callback(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if c := findCookie(w.Result(), middleware.SessionCookieName); c != nil {
				t.Error("session cookie should not be set")
			}
		})
	}
}

func TestAuthHandler_Logout_ClearsCookieAndReturnsSuccess(t *testing.T) {
	var loggedOut string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return errors.New("db down")
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "sess-1"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if loggedOut != "sess-1" {
		t.Errorf("logged out session = %q, want sess-1", loggedOut)
	}
	c := findCookie(resp, middleware.SessionCookieName)
	if c == nil || c.MaxAge >= 0 {
		t.Errorf("session cookie should be cleared, got %+v", c)
	}

	var body map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !body["success"] {
		t.Errorf("body = %v, want success true", body)
	}
}

func TestAuthHandler_Logout_NoSession_StillSucceeds(t *testing.T) {
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			t.Fatal("service should not be called without session cookie")
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	t.Run("anonymous returns null", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := strings.TrimSpace(w.Body.String()); got != "null" {
			t.Errorf("body = %q, want null", got)
		}
	})

	t.Run("authenticated returns user", func(t *testing.T) {
		name := "Alice"
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req = req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{ID: 3, OpenID: "open-3", Name: &name, Role: model.RoleAdmin}))
		w := httptest.NewRecorder()
		h.Me(w, req)

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if body["openId"] != "open-3" || body["name"] != "Alice" || body["role"] != "admin" {
			t.Errorf("body = %v", body)
		}
	})
}
