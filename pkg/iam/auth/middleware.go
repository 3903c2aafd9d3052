package auth

import (
	"strings"

	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/Abraxas-365/otpauth/pkg/iam"
	"github.com/Abraxas-365/otpauth/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie fallback for the Bearer header.
const SessionCookie = "session_token"

// TokenMiddleware authenticates requests with a session token.
type TokenMiddleware struct {
	tokenService TokenService
}

// NewAuthMiddleware creates the middleware.
func NewAuthMiddleware(tokenService TokenService) *TokenMiddleware {
	return &TokenMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate validates the Bearer header (or the session cookie) and
// stores a *kernel.SessionContext in locals and in the user context.
func (am *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(SessionCookie)
		}
		if token == "" {
			return unauthorized(c, iam.ErrUnauthorized())
		}

		claims, err := am.tokenService.ValidateSessionToken(token)
		if err != nil {
			return unauthorized(c, iam.ErrInvalidToken())
		}

		sc := &kernel.SessionContext{
			SessionID:  claims.SessionID,
			Identifier: claims.Identifier,
		}
		c.Locals(kernel.SessionContextKey, sc)
		c.SetUserContext(kernel.WithSession(c.UserContext(), sc))

		return c.Next()
	}
}

// SessionFromCtx returns the session set by Authenticate.
func SessionFromCtx(c *fiber.Ctx) (*kernel.SessionContext, bool) {
	sc, ok := c.Locals(kernel.SessionContextKey).(*kernel.SessionContext)
	return sc, ok && sc != nil
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func unauthorized(c *fiber.Ctx, err *errx.Error) error {
	return c.Status(err.HTTPStatus).JSON(err.ToHTTPResponse())
}
