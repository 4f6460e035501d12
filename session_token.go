package goSession

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IDToken returns a currently valid ID token, refreshing it through the token
// exchanger only when the cached one is missing or inside the expiry-skew
// window. Concurrent callers needing a refresh share a single exchange.
func (s *Session) IDToken(ctx context.Context) (string, error) {
	return s.IDTokenForcingRefresh(ctx, false)
}

// IDTokenForcingRefresh is IDToken with an explicit bypass of the cache.
// With forceRefresh set the cached token is discarded and a fresh exchange is
// performed; concurrent forced callers still share one exchange.
func (s *Session) IDTokenForcingRefresh(ctx context.Context, forceRefresh bool) (string, error) {
	if err := s.ensureLive(); err != nil {
		return "", err
	}

	tok, refreshed, err := s.tokens.token(ctx, forceRefresh)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.emitAudit(ctx, auditEventTokenRefreshFailure, false, err, nil)
		return "", err
	}
	if refreshed {
		s.emitAudit(ctx, auditEventTokenRefreshSuccess, true, nil, nil)
		s.persist(ctx)
	}
	return tok, nil
}

// IDTokenResult returns the current ID token together with its decoded
// payload claims. The token is treated as an opaque bearer credential: the
// payload is decoded without signature verification, which is the backend's
// job, not the client's.
func (s *Session) IDTokenResult(ctx context.Context) (*TokenResult, error) {
	return s.IDTokenResultForcingRefresh(ctx, false)
}

// IDTokenResultForcingRefresh is IDTokenResult with an explicit cache bypass.
func (s *Session) IDTokenResultForcingRefresh(ctx context.Context, forceRefresh bool) (*TokenResult, error) {
	tok, err := s.IDTokenForcingRefresh(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	return decodeTokenResult(tok)
}

func decodeTokenResult(idToken string) (*TokenResult, error) {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(idToken, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIDToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformedIDToken
	}

	result := &TokenResult{
		Token:  idToken,
		Claims: map[string]any(claims),
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpirationTime = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}
	if at, ok := claims["auth_time"].(float64); ok {
		result.AuthTime = time.Unix(int64(at), 0)
	}
	if provider, ok := claims["sign_in_provider"].(string); ok {
		result.SignInProvider = provider
	}

	return result, nil
}
