package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/infra/logging"
)

// supabaseAudience is the aud claim of every signed-in Supabase user token.
const supabaseAudience = "authenticated"

// SupabaseClaims is the subset of a Supabase access token we rely on.
type SupabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks Supabase access tokens locally with the project's JWT secret.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(jwtSecret, supabaseURL string) *TokenVerifier {
	issuer := ""
	if supabaseURL != "" {
		issuer = strings.TrimRight(supabaseURL, "/") + "/auth/v1"
	}
	return &TokenVerifier{secret: []byte(jwtSecret), issuer: issuer}
}

func (v *TokenVerifier) Verify(token string) (*SupabaseClaims, error) {
	if v == nil || len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: supabase jwt secret", domain.ErrNotConfigured)
	}
	claims := &SupabaseClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(supabaseAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tkn.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.Issuer != "" && v.issuer != "" && claims.Issuer != v.issuer {
		return nil, domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
		return strings.TrimSpace(hdr[7:])
	}
	return ""
}

type ctxKey int

const ctxAdmin ctxKey = iota

func adminFrom(ctx context.Context) *model.AdminUser {
	a, _ := ctx.Value(ctxAdmin).(*model.AdminUser)
	return a
}

// requireAdmin verifies the caller's Supabase token and resolves their admin
// row, which must hold at least the required role.
func (s *Server) requireAdmin(required model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				s.fail(w, r, domain.ErrUnauthorized)
				return
			}
			claims, err := s.verifier.Verify(token)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			ctx := logging.WithUserID(r.Context(), claims.Subject)
			admin, err := s.admins.Authorize(ctx, claims.Subject, required)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			ctx = context.WithValue(ctx, ctxAdmin, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireServiceRole admits internal callers presenting the Supabase service role key.
func (s *Server) requireServiceRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.serviceKey == "" {
			s.log.Error().Msg("service role key is not configured")
			s.fail(w, r, domain.ErrForbidden)
			return
		}
		token := bearerToken(r)
		if token == "" {
			s.fail(w, r, domain.ErrUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.serviceKey)) != 1 {
			s.fail(w, r, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
