package authapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/httpx"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/iam/auth/authsrv"
)

const otpSentMessage = "If the email is valid, a verification code has been sent"

// ============================================================================
// Requests
// ============================================================================

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type otpSendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type otpVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
	AllDevices   bool   `json:"allDevices"`
}

// ============================================================================
// Handlers
// ============================================================================

// AuthHandlers expone los flujos de authsrv sobre HTTP.
type AuthHandlers struct {
	service *authsrv.AuthService
}

func NewAuthHandlers(service *authsrv.AuthService) *AuthHandlers {
	return &AuthHandlers{service: service}
}

// RegisterRoutes monta /auth/* detrás del gate de API key.
func (h *AuthHandlers) RegisterRoutes(router fiber.Router, mw *auth.TokenMiddleware) {
	group := router.Group("/auth", mw.RequireProject())
	h.mount(group, mw)
}

// RegisterLegacyRoutes monta los mismos handlers bajo /api/project-auth/*.
func (h *AuthHandlers) RegisterLegacyRoutes(router fiber.Router, mw *auth.TokenMiddleware) {
	group := router.Group("/api/project-auth", mw.RequireProject())
	h.mount(group, mw)
}

func (h *AuthHandlers) mount(group fiber.Router, mw *auth.TokenMiddleware) {
	group.Post("/register", h.Register)
	group.Post("/login", h.Login)
	group.Post("/google-login", h.GoogleLogin)
	group.Post("/otp/send", h.SendOTP)
	group.Post("/otp/verify", h.VerifyOTP)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", mw.OptionalUser(), h.Logout)
	group.Get("/me", mw.RequireUser(), h.Me)
}

func (h *AuthHandlers) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	ac, _ := auth.GetAuthContext(c)
	res, err := h.service.Register(c.UserContext(), ac.ProjectID, req.Email, req.Password, meta(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	ac, _ := auth.GetAuthContext(c)
	res, err := h.service.Login(c.UserContext(), ac.ProjectID, req.Email, req.Password, meta(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *AuthHandlers) GoogleLogin(c *fiber.Ctx) error {
	var req googleLoginRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	ac, _ := auth.GetAuthContext(c)
	res, err := h.service.GoogleLogin(c.UserContext(), ac.ProjectID, req.IDToken, meta(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *AuthHandlers) SendOTP(c *fiber.Ctx) error {
	var req otpSendRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	ac, _ := auth.GetAuthContext(c)
	if err := h.service.SendOTP(c.UserContext(), ac.ProjectID, req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": otpSentMessage})
}

func (h *AuthHandlers) VerifyOTP(c *fiber.Ctx) error {
	var req otpVerifyRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	ac, _ := auth.GetAuthContext(c)
	res, err := h.service.VerifyOTP(c.UserContext(), ac.ProjectID, req.Email, strings.TrimSpace(req.Code), meta(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *AuthHandlers) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	ac, _ := auth.GetAuthContext(c)
	res, err := h.service.Refresh(c.UserContext(), ac.ProjectID, req.RefreshToken, meta(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Logout acepta body vacío: sin token ni bearer no hay nada que revocar.
func (h *AuthHandlers) Logout(c *fiber.Ctx) error {
	var req logoutRequest
	if len(strings.TrimSpace(string(c.Body()))) > 0 {
		if err := httpx.Bind(c, &req); err != nil {
			return err
		}
	}

	ac, _ := auth.GetAuthContext(c)
	in := authsrv.LogoutInput{
		RefreshToken: req.RefreshToken,
		AllDevices:   req.AllDevices,
		UserID:       ac.UserID,
	}
	if err := h.service.Logout(c.UserContext(), ac.ProjectID, in, meta(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *AuthHandlers) Me(c *fiber.Ctx) error {
	ac, ok := auth.GetAuthContext(c)
	if !ok || !ac.IsAuthenticated() {
		return iam.ErrUnauthenticated()
	}

	me, err := h.service.Me(c.UserContext(), ac.ProjectID, *ac.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": me})
}

func meta(c *fiber.Ctx) authsrv.RequestMeta {
	return authsrv.RequestMeta{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}
