package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// Verifier verifies a raw OIDC token. *oidc.IDTokenVerifier satisfies it.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// AuthMiddleware guards operator endpoints with OIDC bearer tokens.
type AuthMiddleware struct {
	verifier Verifier
	log      *zap.Logger
}

// NewAuthMiddleware creates an auth middleware. A nil verifier disables
// authentication.
func NewAuthMiddleware(verifier Verifier, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthMiddleware{verifier: verifier, log: log}
}

// NewOIDCVerifier discovers the issuer and returns a verifier for clientID.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*oidc.IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return provider.Verifier(&oidc.Config{ClientID: clientID}), nil
}

// RequireToken rejects requests without a valid bearer token and stores the
// token subject in the "subject" local.
func (m *AuthMiddleware) RequireToken(c fiber.Ctx) error {
	if m.verifier == nil {
		return c.Next()
	}

	raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return unauthorized(c)
	}

	token, err := m.verifier.Verify(c.Context(), raw)
	if err != nil {
		m.log.Info("rejected bearer token", zap.String("path", c.Path()), zap.Error(err))
		return unauthorized(c)
	}

	c.Locals("subject", token.Subject)
	return c.Next()
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status": "error",
		"error":  "unauthorized",
	})
}
