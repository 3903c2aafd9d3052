package authsessionhttp

import (
	"time"

	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/Abraxas-365/otpauth/pkg/iam"
	"github.com/Abraxas-365/otpauth/pkg/iam/auth"
	"github.com/Abraxas-365/otpauth/pkg/iam/authsession"
	"github.com/Abraxas-365/otpauth/pkg/kernel"
	"github.com/Abraxas-365/otpauth/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// Handlers exposes one process-wide Controller over HTTP.
type Handlers struct {
	ctl    *authsession.Controller
	tokens auth.TokenService
	mw     *auth.TokenMiddleware
}

// NewHandlers creates the handlers. Tokens are issued on successful validation.
func NewHandlers(ctl *authsession.Controller, tokens auth.TokenService) *Handlers {
	return &Handlers{
		ctl:    ctl,
		tokens: tokens,
		mw:     auth.NewAuthMiddleware(tokens),
	}
}

// RegisterRoutes mounts the /auth group.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	g := router.Group("/auth", requestContext)

	g.Post("/otp/send", h.SendOTP)
	g.Post("/otp/validate", h.ValidateOTP)
	g.Get("/otp/countdown", h.Countdown)
	g.Post("/logout", h.mw.Authenticate(), h.Logout)
	g.Post("/reset", h.Reset)
	g.Get("/state", h.State)
	g.Get("/me", h.mw.Authenticate(), h.Me)
}

// ============================================================================
// DTOs
// ============================================================================

type SendOTPRequest struct {
	Email string `json:"email"`
}

type ValidateOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type StateResponse struct {
	authsession.StateView
	Token          string     `json:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}

type CountdownResponse struct {
	Email             string `json:"email"`
	Active            bool   `json:"active"`
	RemainingMs       int64  `json:"remaining_ms"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

type MeResponse struct {
	SessionID  string `json:"session_id"`
	Identifier string `json:"identifier"`
	Live       bool   `json:"live"`
	ElapsedMs  int64  `json:"elapsed_ms,omitempty"`
}

// ============================================================================
// Handlers
// ============================================================================

// SendOTP handles POST /auth/otp/send.
func (h *Handlers) SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, iam.ErrInvalidRequest().WithDetail("error", err.Error()))
	}

	return writeState(c, h.ctl.SendOTP(c.UserContext(), req.Email), nil)
}

// ValidateOTP handles POST /auth/otp/validate. An Authenticated result
// carries a session token, also set as a cookie.
func (h *Handlers) ValidateOTP(c *fiber.Ctx) error {
	var req ValidateOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, iam.ErrInvalidRequest().WithDetail("error", err.Error()))
	}

	state := h.ctl.ValidateOTP(c.UserContext(), req.Email, req.Code)

	authed, ok := state.(authsession.Authenticated)
	if !ok {
		return writeState(c, state, nil)
	}

	token, expiresAt, err := h.tokens.IssueSessionToken(authed.Identifier, authed.SessionID)
	if err != nil {
		logx.WithError(err).WithField("session_id", authed.SessionID).Error("Failed to issue session token")
		return writeError(c, errx.Wrap(err, "failed to issue session token", errx.TypeInternal))
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return writeState(c, state, &issuedToken{token: token, expiresAt: expiresAt})
}

// Countdown handles GET /auth/otp/countdown?email=.
func (h *Handlers) Countdown(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return writeError(c, iam.ErrInvalidRequest().WithDetail("field", "email"))
	}

	remaining, active := h.ctl.RemainingTime(email)
	return c.JSON(CountdownResponse{
		Email:             email,
		Active:            active,
		RemainingMs:       remaining.Milliseconds(),
		AttemptsRemaining: h.ctl.RemainingAttempts(email),
	})
}

// Logout handles POST /auth/logout. Only the holder of the live session's
// token can end it.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sc, ok := auth.SessionFromCtx(c)
	if !ok {
		return writeError(c, iam.ErrUnauthorized())
	}

	state, ok := h.ctl.LogoutSession(c.UserContext(), sc.SessionID)
	if !ok {
		return writeError(c, iam.ErrSessionNotLive().WithDetail("session_id", sc.SessionID))
	}

	c.ClearCookie(auth.SessionCookie)
	return writeState(c, state, nil)
}

// Reset handles POST /auth/reset. It abandons an OTP flow; a live session
// must go through /auth/logout.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	state, ok := h.ctl.CancelFlow()
	if !ok {
		return writeError(c, iam.ErrSessionActive())
	}
	return writeState(c, state, nil)
}

// State handles GET /auth/state.
func (h *Handlers) State(c *fiber.Ctx) error {
	return c.JSON(authsession.View(h.ctl.CurrentState()))
}

// Me handles GET /auth/me. Live reports whether the token's session is
// still the controller's current one.
func (h *Handlers) Me(c *fiber.Ctx) error {
	sc, ok := auth.SessionFromCtx(c)
	if !ok {
		return writeError(c, iam.ErrUnauthorized())
	}

	resp := MeResponse{
		SessionID:  sc.SessionID.String(),
		Identifier: sc.Identifier,
	}
	if current, ok := h.ctl.CurrentState().(authsession.Authenticated); ok && current.SessionID == sc.SessionID {
		resp.Live = true
		if elapsed, ok := h.ctl.SessionElapsed(); ok {
			resp.ElapsedMs = elapsed.Milliseconds()
		}
	}

	return c.JSON(resp)
}

// ============================================================================
// Helpers
// ============================================================================

type issuedToken struct {
	token     string
	expiresAt time.Time
}

func writeState(c *fiber.Ctx, state authsession.State, tok *issuedToken) error {
	resp := StateResponse{StateView: authsession.View(state)}
	if tok != nil {
		resp.Token = tok.token
		resp.TokenExpiresAt = &tok.expiresAt
	}

	status := fiber.StatusOK
	if state.Kind() == authsession.KindOtpError {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(resp)
}

// requestContext copies the request id into the user context so the
// controller's log lines carry it.
func requestContext(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = c.GetRespHeader(fiber.HeaderXRequestID)
	}
	if id != "" {
		c.SetUserContext(kernel.WithRequestID(c.UserContext(), id))
	}
	return c.Next()
}

func writeError(c *fiber.Ctx, err *errx.Error) error {
	return c.Status(err.HTTPStatus).JSON(err.ToHTTPResponse())
}
