package authz

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const defaultTokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Authenticator issues and verifies HS256 bearer tokens whose "sub" claim is the user id.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: defaultTokenTTL, now: time.Now}
}

func (a *Authenticator) IssueToken(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": a.now().Unix(),
		"exp": a.now().Add(a.ttl).Unix(),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// ParseToken returns the user id of a valid, unexpired token.
func (a *Authenticator) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.Wrap(ErrInvalidToken, "parse")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !claims.VerifyExpiresAt(a.now().Unix(), true) {
		return "", errors.Wrap(ErrInvalidToken, "token expired")
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return "", errors.Wrap(ErrInvalidToken, "missing subject")
	}
	return userID, nil
}

// Middleware requires a bearer token. WebSocket clients, which cannot set
// headers, may pass it as the "token" query parameter instead.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		userID, err := a.ParseToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}
	return "", false
}
