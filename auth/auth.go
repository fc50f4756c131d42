package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotLoggedIn  = errors.New("no user is logged in")
	ErrInvalidEmail = errors.New("invalid email address")
)

// homiNamespace seeds the name-based ids of local users.
var homiNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://homi.app/users"))

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider supplies the current user identity. The dialogue only needs a
// stable id to attach to the requests it saves.
type Provider interface {
	CurrentUser(ctx context.Context) (*User, error)
	Login(ctx context.Context, email string) (*User, error)
	Logout(ctx context.Context) error
}

var _ Provider = (*LocalProvider)(nil)

// LocalProvider signs users in by email alone. The same email always maps to
// the same id.
type LocalProvider struct {
	mu      sync.RWMutex
	current *User
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

// UserForEmail returns the local user of email.
func UserForEmail(email string) (*User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, errors.Join(ErrInvalidEmail, err)
	}
	normalized := strings.ToLower(addr.Address)
	return &User{
		ID:    uuid.NewSHA1(homiNamespace, []byte(normalized)).String(),
		Email: normalized,
	}, nil
}

func (p *LocalProvider) CurrentUser(ctx context.Context) (*User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil, ErrNotLoggedIn
	}
	user := *p.current
	return &user, nil
}

func (p *LocalProvider) Login(ctx context.Context, email string) (*User, error) {
	user, err := UserForEmail(email)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.current = user
	p.mu.Unlock()
	copied := *user
	return &copied, nil
}

func (p *LocalProvider) Logout(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	return nil
}

type userContextKey struct{}

// WithUser attaches the signed in user to ctx.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}
