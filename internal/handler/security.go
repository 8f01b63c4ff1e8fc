package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
)

var errUnauthorized = errors.New("unauthorized")

// Claims is the bearer token payload. The subject is the user id.
type Claims struct {
	Role auth.Role `json:"role"`
	jwt.RegisteredClaims
}

// SecurityHandler authenticates API requests with HS256 bearer tokens.
type SecurityHandler struct {
	secret []byte
	now    func() time.Time
}

// NewSecurityHandler creates a SecurityHandler verifying tokens signed with
// secret.
func NewSecurityHandler(secret []byte) *SecurityHandler {
	return &SecurityHandler{secret: secret, now: time.Now}
}

// Issue signs a token for user valid for ttl. Used by seed-db and tests;
// production tokens come from the login service.
func (s *SecurityHandler) Issue(userID string, role auth.Role, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// verify parses a raw token and returns the principal it names.
func (s *SecurityHandler) verify(raw string) (auth.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return auth.Principal{}, err
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return auth.Principal{}, errUnauthorized
	}
	return auth.Principal{UserID: claims.Subject, Role: claims.Role}, nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's principal in the request context.
func (s *SecurityHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		p, err := s.verify(raw)
		if err != nil {
			zctx.From(r.Context()).Debug("Token rejected", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := auth.WithPrincipal(r.Context(), p)
		ctx = zctx.With(ctx, zap.String("user_id", p.UserID), zap.String("role", string(p.Role)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only principals holding one of roles. It must run
// after Authenticate.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !p.HasRole(roles...) {
				writeError(w, http.StatusForbidden, "not authorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
