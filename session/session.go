// Package session identifies browsers through a signed cookie. The session
// id scopes every piece of per-user state in the key-value store.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/giygas/medicine-shop/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the name of the session cookie
const CookieName = "portal_session"

const issuer = "medicine-shop"

type contextKey struct{}

// Manager issues and verifies session tokens
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager returns a Manager signing with secret. An empty secret gets a
// random one, which invalidates sessions on every restart.
func NewManager(secret string, ttl time.Duration, secure bool) (*Manager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logging.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}

	return &Manager{
		secret: key,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}, nil
}

// Issue signs a token for id
func (m *Manager) Issue(id string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify returns the session id in token and its expiry
func (m *Manager) Verify(token string) (string, time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", time.Time{}, err
	}
	if !parsed.Valid {
		return "", time.Time{}, errors.New("invalid session token")
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", time.Time{}, fmt.Errorf("invalid session subject: %w", err)
	}

	return claims.Subject, claims.ExpiresAt.Time, nil
}

// Middleware resolves the session for every request, starting a new one
// when the cookie is missing, expired or forged. Tokens past half their
// lifetime are reissued.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		var expires time.Time

		if c, err := r.Cookie(CookieName); err == nil {
			id, expires, err = m.Verify(c.Value)
			if err != nil {
				logging.Debug("Rejected session cookie", "error", err)
				id = ""
			}
		}

		if id == "" || expires.Sub(m.now()) < m.ttl/2 {
			if id == "" {
				id = uuid.NewString()
				logging.Annotate(r.Context(), "session_new", true)
			}
			if err := m.setCookie(w, id); err != nil {
				logging.Error("Failed to issue session cookie", "error", err)
			}
		}

		logging.Annotate(r.Context(), "session_id", id)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) error {
	token, err := m.Issue(id)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// WithID returns a context carrying the session id
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the session id stored by Middleware
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}
