package session

import (
	"context"
	"fmt"
)

// CookieBackend keeps values inside the signed session cookie.
// Suitable for small carts; browsers reject cookies over ~4KB.
type CookieBackend struct{}

// NewCookieBackend creates a cookie backed store
func NewCookieBackend() *CookieBackend {
	return &CookieBackend{}
}

func (b *CookieBackend) Get(ctx context.Context, key string) (string, bool, error) {
	rs, err := b.cookieSession(ctx)
	if err != nil {
		return "", false, err
	}
	value, ok := rs.session.Values[key].(string)
	return value, ok, nil
}

func (b *CookieBackend) Set(ctx context.Context, key, value string) error {
	rs, err := b.cookieSession(ctx)
	if err != nil {
		return err
	}
	rs.session.Values[key] = value
	if err := rs.session.Save(rs.r, rs.w); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

func (b *CookieBackend) Delete(ctx context.Context, key string) error {
	rs, err := b.cookieSession(ctx)
	if err != nil {
		return err
	}
	if _, ok := rs.session.Values[key]; !ok {
		return nil
	}
	delete(rs.session.Values, key)
	if err := rs.session.Save(rs.r, rs.w); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

func (b *CookieBackend) cookieSession(ctx context.Context) (*requestSession, error) {
	rs, err := fromContext(ctx)
	if err != nil {
		return nil, err
	}
	if rs.session == nil {
		return nil, ErrNoSession
	}
	return rs, nil
}
