package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func formPostContext(t *testing.T, form url.Values, cookie string) *gin.Context {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	}
	c.Request = req
	return c
}

func TestCheckFormRejectsWithoutSession(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	defer store.Close()
	guard := NewCsrfGuard(store)

	c := formPostContext(t, url.Values{"csrf": {"tok"}}, "")
	if err := guard.CheckForm(c); !errors.Is(err, ErrCsrf) {
		t.Fatalf("no cookie: got %v, want ErrCsrf", err)
	}

	c = formPostContext(t, url.Values{"csrf": {"tok"}}, "unknown-session")
	if err := guard.CheckForm(c); !errors.Is(err, ErrCsrf) {
		t.Fatalf("unknown session: got %v, want ErrCsrf", err)
	}
}

func TestCheckFormTokenMatrix(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	defer store.Close()
	guard := NewCsrfGuard(store)
	ctx := context.Background()

	_ = store.Add(ctx, Session{ID: "s1", Csrf: "expected"})
	_ = store.Add(ctx, Session{ID: "s2"}) // no token issued yet

	cases := []struct {
		name      string
		sessionID string
		submitted string
		wantErr   bool
	}{
		{"exact match accepted", "s1", "expected", false},
		{"mismatch rejected", "s1", "forged", true},
		{"empty submission rejected", "s1", "", true},
		{"session without token rejected", "s2", "expected", true},
	}
	for _, tc := range cases {
		c := formPostContext(t, url.Values{"csrf": {tc.submitted}}, tc.sessionID)
		err := guard.CheckForm(c)
		if tc.wantErr && !errors.Is(err, ErrCsrf) {
			t.Fatalf("%s: got %v, want ErrCsrf", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: got %v, want nil", tc.name, err)
		}
	}
}

func TestCheckHeaderSession(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	defer store.Close()
	guard := NewCsrfGuard(store)

	sess := Session{ID: "s1", Csrf: "expected"}

	c := formPostContext(t, url.Values{}, "s1")
	c.Request.Header.Set("anti-csrf-token", "expected")
	if err := guard.CheckHeaderSession(c, sess); err != nil {
		t.Fatalf("matching header rejected: %v", err)
	}

	c = formPostContext(t, url.Values{}, "s1")
	c.Request.Header.Set("anti-csrf-token", "forged")
	if err := guard.CheckHeaderSession(c, sess); !errors.Is(err, ErrCsrf) {
		t.Fatalf("forged header: got %v, want ErrCsrf", err)
	}

	c = formPostContext(t, url.Values{}, "s1")
	if err := guard.CheckHeaderSession(c, sess); !errors.Is(err, ErrCsrf) {
		t.Fatalf("missing header: got %v, want ErrCsrf", err)
	}
}
