package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/ptrx"
)

// HeaderAPIKey carries the project API key on every request.
const HeaderAPIKey = "X-API-Key"

// authLocal es la clave de Locals donde vive el AuthContext.
const authLocal = "auth"

// TokenMiddleware es el gate de cada request: primero la API key del
// proyecto, después (si la ruta lo pide) el bearer token del usuario.
type TokenMiddleware struct {
	projects     ProjectAuthenticator
	tokenService TokenService
}

// NewAuthMiddleware crea un nuevo middleware de autenticación
func NewAuthMiddleware(projects ProjectAuthenticator, tokenService TokenService) *TokenMiddleware {
	return &TokenMiddleware{
		projects:     projects,
		tokenService: tokenService,
	}
}

// RequireProject resuelve X-API-Key al proyecto activo.
// Missing, unknown or disabled keys fail with 401 before any auth logic.
func (am *TokenMiddleware) RequireProject() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := am.projects.Authenticate(c.UserContext(), c.Get(HeaderAPIKey))
		if err != nil {
			return err
		}

		setAuthContext(c, &kernel.AuthContext{ProjectID: p.ID})
		return c.Next()
	}
}

// RequireUser exige un access token válido emitido para el mismo proyecto.
func (am *TokenMiddleware) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac, ok := GetAuthContext(c)
		if !ok {
			return iam.ErrUnauthenticated()
		}

		token := bearerToken(c)
		if token == "" {
			return iam.ErrUnauthenticated()
		}

		userID, err := am.verifyForProject(token, ac.ProjectID)
		if err != nil {
			return err
		}

		setAuthContext(c, &kernel.AuthContext{ProjectID: ac.ProjectID, UserID: ptrx.To(userID)})
		return c.Next()
	}
}

// OptionalUser adjunta el usuario si hay un bearer válido; si no, sigue sin él.
func (am *TokenMiddleware) OptionalUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac, ok := GetAuthContext(c)
		token := bearerToken(c)
		if !ok || token == "" {
			return c.Next()
		}

		if userID, err := am.verifyForProject(token, ac.ProjectID); err == nil {
			setAuthContext(c, &kernel.AuthContext{ProjectID: ac.ProjectID, UserID: ptrx.To(userID)})
		}
		return c.Next()
	}
}

func (am *TokenMiddleware) verifyForProject(token string, projectID kernel.ProjectID) (kernel.UserID, error) {
	claims, err := am.tokenService.VerifyAccessToken(token)
	if err != nil {
		return "", err
	}
	if claims.ProjectID != projectID {
		return "", iam.ErrInvalidToken().WithDetail("reason", "token was issued for another project")
	}
	return claims.UserID, nil
}

// GetAuthContext devuelve el AuthContext resuelto por el gate.
func GetAuthContext(c *fiber.Ctx) (*kernel.AuthContext, bool) {
	ac, ok := c.Locals(authLocal).(*kernel.AuthContext)
	return ac, ok && ac.IsValid()
}

func setAuthContext(c *fiber.Ctx, ac *kernel.AuthContext) {
	c.Locals(authLocal, ac)
	c.SetUserContext(kernel.WithAuthContext(c.UserContext(), ac))
}

// bearerToken extrae el token de "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
