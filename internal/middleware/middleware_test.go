package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/screening-api/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	tokens map[string]*model.Principal
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*model.Principal, error) {
	if p, ok := f.tokens[token]; ok {
		return p, nil
	}
	return nil, errors.New("bad token")
}

type fakeResolver struct {
	users map[string]*model.User
}

func (f *fakeResolver) ResolvePrincipal(_ context.Context, p *model.Principal) (*model.User, error) {
	if u, ok := f.users[p.Username]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	am := NewAuthMiddleware(
		&fakeVerifier{tokens: map[string]*model.Principal{
			"alice-token": {Username: "alice"},
			"admin-token": {Username: "root"},
			"ghost-token": {Username: "ghost"},
		}},
		&fakeResolver{users: map[string]*model.User{
			"alice": {Username: "alice", Role: model.RoleUser},
			"root":  {Username: "root", Role: model.RoleAdmin},
		}},
	)

	r := gin.New()
	chain := append([]gin.HandlerFunc{am.Authenticate()}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": GetUsername(c), "role": GetRole(c)})
	})
	r.GET("/private", chain...)
	return r
}

func doGet(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"unknown account", "Bearer ghost-token", http.StatusUnauthorized},
		{"valid", "Bearer alice-token", http.StatusOK},
		{"lowercase scheme", "bearer alice-token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := doGet(r, tc.header); w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestAuthenticateSetsContext(t *testing.T) {
	r := newTestRouter(func(c *gin.Context) {
		if u := GetUser(c); u == nil || u.Username != "alice" {
			t.Errorf("user not injected: %+v", u)
		}
	})

	w := doGet(r, "Bearer alice-token")
	if w.Code != http.StatusOK || w.Body.String() != `{"role":"user","username":"alice"}` {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	r := newTestRouter(RequireRole(model.RoleAdmin))

	if w := doGet(r, "Bearer alice-token"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}
	if w := doGet(r, "Bearer admin-token"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}

	bare := gin.New()
	bare.GET("/private", RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := doGet(bare, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without authentication, got %d", w.Code)
	}
}

func TestRateLimiterPerUser(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	r := newTestRouter(rl.Limit())

	for i := 0; i < 2; i++ {
		if w := doGet(r, "Bearer alice-token"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	if w := doGet(r, "Bearer alice-token"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once burst is spent, got %d", w.Code)
	}

	// Another user has their own bucket
	if w := doGet(r, "Bearer admin-token"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a different user, got %d", w.Code)
	}
}

type fakeIDTokens struct {
	token *auth.Token
	err   error
}

func (f *fakeIDTokens) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return f.token, f.err
}

func TestFirebaseVerifier(t *testing.T) {
	v := &FirebaseVerifier{client: &fakeIDTokens{token: &auth.Token{UID: "uid-1", Claims: map[string]interface{}{"email": "alice@example.com"}}}}
	p, err := v.Verify(context.Background(), "tok")
	if err != nil || p.Email != "alice@example.com" || p.Username != "" {
		t.Fatalf("unexpected principal %+v %v", p, err)
	}

	noEmail := &FirebaseVerifier{client: &fakeIDTokens{token: &auth.Token{UID: "uid-2", Claims: map[string]interface{}{}}}}
	if _, err := noEmail.Verify(context.Background(), "tok"); err == nil {
		t.Fatalf("expected error without email claim")
	}

	failing := &FirebaseVerifier{client: &fakeIDTokens{err: errors.New("expired")}}
	if _, err := failing.Verify(context.Background(), "tok"); err == nil {
		t.Fatalf("expected verification error")
	}
}
