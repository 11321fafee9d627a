// Package session wraps the one piece of process-wide state this app has:
// the signed-in user's record. Route guards and the auth flows only see the
// Manager interface, so tests can substitute the in-memory implementation.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"coursetrack/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Record is the session payload established at login and torn down at
// logout.
type Record struct {
	UserID   int        `json:"user_id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Role     model.Role `json:"role"`
}

// ErrNoSession is returned when the request carries no valid session.
var ErrNoSession = errors.New("session: not authenticated")

// Manager reads and writes the session record for an HTTP exchange.
type Manager interface {
	Get(r *http.Request) (*Record, error)
	Set(w http.ResponseWriter, rec Record) error
	Clear(w http.ResponseWriter)
}

type claims struct {
	Record
	jwt.RegisteredClaims
}

// CookieManager stores the record as an HS256-signed JWT in an HttpOnly
// cookie.
type CookieManager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
}

func NewCookieManager(secret, cookieName string, ttl time.Duration) *CookieManager {
	return &CookieManager{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
	}
}

func (m *CookieManager) Get(r *http.Request) (*Record, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNoSession
	}

	var c claims
	token, err := jwt.ParseWithClaims(cookie.Value, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNoSession
	}
	return &c.Record, nil
}

func (m *CookieManager) Set(w http.ResponseWriter, rec Record) error {
	now := time.Now()
	c := claims{
		Record: rec,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("signing session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
	return nil
}

func (m *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
