package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// csrfRequest はCookieとヘッダーに指定トークンを付けたリクエストを生成する。空文字なら付けない。
func csrfRequest(method, cookieToken, headerToken string) *http.Request {
	req := httptest.NewRequest(method, "/api/accounts", nil)
	if cookieToken != "" {
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: cookieToken})
	}
	if headerToken != "" {
		req.Header.Set(CSRFHeaderName, headerToken)
	}
	return req
}

func csrfCookieFrom(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == csrfCookieName {
			return c
		}
	}
	return nil
}

func TestCSRFMiddleware_SafeMethods_PassWithoutToken(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			called := false
			handler := NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, csrfRequest(method, "", ""))

			if !called {
				t.Errorf("handler should be called for %s", method)
			}
		})
	}
}

func TestCSRFMiddleware_MutatingMethods(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		cookieToken string
		headerToken string
		wantStatus  int
	}{
		{"POST valid", http.MethodPost, "tok", "tok", http.StatusOK},
		{"PATCH valid", http.MethodPatch, "tok", "tok", http.StatusOK},
		{"DELETE valid", http.MethodDelete, "tok", "tok", http.StatusOK},
		{"POST no cookie", http.MethodPost, "", "tok", http.StatusForbidden},
		{"POST no header", http.MethodPost, "tok", "", http.StatusForbidden},
		{"POST mismatch", http.MethodPost, "tok", "other", http.StatusForbidden},
		{"PUT no token", http.MethodPut, "", "", http.StatusForbidden},
		{"PATCH no token", http.MethodPatch, "", "", http.StatusForbidden},
		{"DELETE no token", http.MethodDelete, "", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, csrfRequest(tt.method, tt.cookieToken, tt.headerToken))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if called {
					t.Error("handler should not be called when CSRF check fails")
				}
				var body ErrorResponseBody
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode: %v", err)
				}
				if body.Code != "CSRF_TOKEN_INVALID" {
					t.Errorf("code = %q, want CSRF_TOKEN_INVALID", body.Code)
				}
			}
		})
	}
}

func TestCSRFMiddleware_GET_IssuesCookieOnce(t *testing.T) {
	handler := NewCSRFMiddleware(CSRFConfig{CookieDomain: "example.com"})(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, csrfRequest(http.MethodGet, "", ""))

	c := csrfCookieFrom(w.Result())
	if c == nil {
		t.Fatal("expected CSRF cookie to be set on GET request")
	}
	if c.Value == "" || len(c.Value) != 64 {
		t.Errorf("CSRF cookie value = %q, want 64 hex chars", c.Value)
	}
	if c.HttpOnly {
		t.Error("CSRF cookie should NOT be HttpOnly (frontend needs to read it)")
	}
	if c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("cookie SameSite=%v Path=%q, want Lax and /", c.SameSite, c.Path)
	}

	// 既存のCookieがある場合は再設定しない
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, csrfRequest(http.MethodGet, "existing-token", ""))
	if csrfCookieFrom(w.Result()) != nil {
		t.Error("CSRF cookie should not be re-set when already present")
	}
}

func TestCSRFTokenHandler(t *testing.T) {
	h := NewCSRFTokenHandler(CSRFConfig{})

	decode := func(t *testing.T, w *httptest.ResponseRecorder) string {
		t.Helper()
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return body.Token
	}

	t.Run("new token matches cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

		token := decode(t, w)
		c := csrfCookieFrom(w.Result())
		if token == "" || c == nil || c.Value != token {
			t.Errorf("token = %q, cookie = %+v; should match", token, c)
		}
	})

	t.Run("existing cookie is returned", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-csrf-token"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if got := decode(t, w); got != "existing-csrf-token" {
			t.Errorf("token = %q, want existing-csrf-token", got)
		}
	})
}
