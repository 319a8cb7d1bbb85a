package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yourusername/screening-api/internal/model"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.Username] = &cp
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, username, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username].PasswordHash = hash
	return nil
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuth(store UserStore) *AuthService {
	return NewAuthService(store, NewTokenIssuer(testSecret, time.Hour), AuthPolicy{
		EmailDomain: "example.com",
		Departments: []string{"HR"},
	})
}

func validUser() NewUser {
	return NewUser{
		Username:   "recruiter_1",
		Password:   "Str0ng!pass",
		Email:      "  Recruiter@Example.com ",
		Department: " HR ",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuth(store)

	user, err := svc.Register(context.Background(), validUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "recruiter@example.com" || user.Department != "HR" || user.Role != model.RoleUser {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "Str0ng!pass" {
		t.Fatalf("password was not hashed")
	}

	token, got, err := svc.Login(context.Background(), "recruiter_1", "Str0ng!pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got.Username != "recruiter_1" || token == "" {
		t.Fatalf("unexpected login result %q %+v", token, got)
	}

	p, err := svc.tokens.Verify(context.Background(), token)
	if err != nil || p.Username != "recruiter_1" {
		t.Fatalf("token does not verify: %v %+v", err, p)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuth(store)
	if _, err := svc.Register(context.Background(), validUser()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "recruiter_1", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody", "Str0ng!pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginEnforcesPolicy(t *testing.T) {
	store := newFakeUserStore()
	if _, err := newTestAuth(store).Register(context.Background(), validUser()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stricter := NewAuthService(store, NewTokenIssuer(testSecret, time.Hour), AuthPolicy{
		EmailDomain: "example.com",
		Departments: []string{"Finance"},
	})
	if _, _, err := stricter.Login(context.Background(), "recruiter_1", "Str0ng!pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected department policy to reject login, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*NewUser)
		want   string
	}{
		{"short username", func(u *NewUser) { u.Username = "ab" }, "username"},
		{"bad username chars", func(u *NewUser) { u.Username = "bad name" }, "username"},
		{"foreign domain", func(u *NewUser) { u.Email = "x@other.com" }, "example.com"},
		{"malformed email", func(u *NewUser) { u.Email = "example.com" }, "malformed"},
		{"department", func(u *NewUser) { u.Department = "Sales" }, "department"},
		{"unknown role", func(u *NewUser) { u.Role = "root" }, "role"},
		{"short password", func(u *NewUser) { u.Password = "S0!a" }, "at least 8"},
		{"no uppercase", func(u *NewUser) { u.Password = "str0ng!pass" }, "uppercase"},
		{"no lowercase", func(u *NewUser) { u.Password = "STR0NG!PASS" }, "lowercase"},
		{"no digit", func(u *NewUser) { u.Password = "Strong!pass" }, "digit"},
		{"no special", func(u *NewUser) { u.Password = "Str0ngpass" }, "special"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validUser()
			tc.mutate(&in)
			_, err := newTestAuth(newFakeUserStore()).Register(context.Background(), in)
			if !errors.Is(err, ErrInvalidUser) {
				t.Fatalf("expected ErrInvalidUser, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newTestAuth(newFakeUserStore())
	if _, err := svc.Register(context.Background(), validUser()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Register(context.Background(), validUser()); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for same username, got %v", err)
	}

	other := validUser()
	other.Username = "another_one"
	if _, err := svc.Register(context.Background(), other); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for same email, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuth(store)

	if err := svc.EnsureAdmin(context.Background(), "", "", ""); err != nil {
		t.Fatalf("blank credentials should be skipped: %v", err)
	}
	if len(store.users) != 0 {
		t.Fatalf("expected no users to be created")
	}

	if err := svc.EnsureAdmin(context.Background(), "admin", "admin@example.com", "Adm1n!secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.users["admin"].Role != model.RoleAdmin || store.users["admin"].Department != "HR" {
		t.Fatalf("unexpected admin: %+v", store.users["admin"])
	}

	// Second call is a no-op even with a different password
	if err := svc.EnsureAdmin(context.Background(), "admin", "admin@example.com", "weak"); err != nil {
		t.Fatalf("expected existing admin to be left alone: %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuth(store)
	if _, err := svc.Register(context.Background(), validUser()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetPassword(context.Background(), "recruiter_1", "weak"); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected weak password to be rejected, got %v", err)
	}
	if err := svc.SetPassword(context.Background(), "ghost", "N3w!password"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.SetPassword(context.Background(), "recruiter_1", "N3w!password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "recruiter_1", "N3w!password"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestResolvePrincipal(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuth(store)
	if _, err := svc.Register(context.Background(), validUser()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if u, err := svc.ResolvePrincipal(context.Background(), &model.Principal{Email: "RECRUITER@example.com"}); err != nil || u.Username != "recruiter_1" {
		t.Fatalf("email lookup failed: %v %+v", err, u)
	}
	if _, err := svc.ResolvePrincipal(context.Background(), &model.Principal{Username: "ghost"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.ResolvePrincipal(context.Background(), &model.Principal{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for empty principal, got %v", err)
	}
}
