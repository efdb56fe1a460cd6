package auth

import (
	"context"
	"net/http"
)

// DevAuthenticator stamps every request with a fixed identity. Local use only.
type DevAuthenticator struct {
	cfg Config
}

func NewDevAuthenticator(cfg Config) *DevAuthenticator {
	return &DevAuthenticator{cfg: cfg}
}

func (a *DevAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return Identity{
		Subject: a.cfg.DevSubject,
		Email:   a.cfg.DevEmail,
		Roles:   a.cfg.DevRoles,
	}, nil
}

// DisabledAuthenticator lets everything through as an anonymous admin.
type DisabledAuthenticator struct{}

func (DisabledAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return Identity{Subject: "anonymous", Roles: []string{"admin"}}, nil
}

func FromConfig(ctx context.Context, cfg Config) (Authenticator, error) {
	switch cfg.Mode {
	case ModeOIDC:
		return NewOIDCAuthenticator(ctx, cfg)
	case ModeDev:
		return NewDevAuthenticator(cfg), nil
	case ModeDisabled:
		return DisabledAuthenticator{}, nil
	default:
		return nil, ErrUnauthenticated
	}
}
