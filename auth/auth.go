// Package auth signs the seller session cookie and guards the API routes.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/literie-pos/httpx"
)

type ctxKey string

const (
	sessionCookieName = "seller_session"
	sellerIDCtxKey    = ctxKey("sellerID")

	defaultSecret = "devsessionsecret"
)

// SessionLifetime covers a full day on a fair stand.
var SessionLifetime = 14 * time.Hour

var secret = defaultSecret

// SetSecret configures the HMAC key. An empty value keeps the development key.
func SetSecret(s string) {
	if s == "" {
		s = defaultSecret
	}
	secret = s
}

// SellerVerifier reports whether the seller behind a session still exists.
// Set it during bootstrap via SetSellerVerifier; nil disables the check.
type SellerVerifier func(ctx context.Context, sellerID uint) bool

var verifier SellerVerifier

func SetSellerVerifier(v SellerVerifier) { verifier = v }

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie "<id>.<expiry>.<sig>".
func CreateSession(w http.ResponseWriter, sellerID uint) {
	exp := time.Now().Add(SessionLifetime)
	payload := strconv.FormatUint(uint64(sellerID), 10) + "." + strconv.FormatInt(exp.Unix(), 10)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + sign(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the seller id.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return 0, false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(payload))) {
		return 0, false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return 0, false
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

func WithSellerID(ctx context.Context, sellerID uint) context.Context {
	return context.WithValue(ctx, sellerIDCtxKey, sellerID)
}

func SellerIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(sellerIDCtxKey).(uint)
	return id, ok
}

// Middleware attaches the seller id to the request context when the cookie is valid.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := ParseSession(r); ok {
			r = r.WithContext(WithSellerID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 unless Middleware found a live seller.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := SellerIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if verifier != nil && !verifier(r.Context(), id) {
			ClearSession(w)
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
