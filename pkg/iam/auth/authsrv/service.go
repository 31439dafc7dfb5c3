package authsrv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/iam/otp/otpsrv"
	"github.com/hypeframe/monarch/pkg/iam/user"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/ptrx"
)

const (
	methodPassword = "password"
	methodGoogle   = "google"
	methodOTP      = "otp"

	tokenTypeBearer = "Bearer"

	// bcrypt ignora todo lo que pase de 72 bytes.
	maxPasswordBytes = 72
)

// TokenIssuer firma access tokens y conoce las vidas de ambos tokens.
type TokenIssuer interface {
	auth.TokenService
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// RequestMeta viaja a la auditoría.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuthResult es la respuesta de register/login/refresh.
type AuthResult struct {
	User user.Public `json:"user"`
	auth.TokenPair
}

// LogoutInput describe qué revocar.
type LogoutInput struct {
	RefreshToken string
	AllDevices   bool
	// UserID viene del bearer opcional; sin él AllDevices no aplica.
	UserID *kernel.UserID
}

// AuthService orquesta todos los flujos de credenciales de un proyecto.
type AuthService struct {
	users             user.Repository
	tokens            auth.TokenRepository
	issuer            TokenIssuer
	passwords         auth.PasswordService
	identity          auth.IdentityVerifier
	otps              *otpsrv.OTPService
	audit             auth.AuditService
	minPasswordLength int
	now               func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users user.Repository,
	tokens auth.TokenRepository,
	issuer TokenIssuer,
	passwords auth.PasswordService,
	identity auth.IdentityVerifier,
	otps *otpsrv.OTPService,
	audit auth.AuditService,
	minPasswordLength int,
) *AuthService {
	return &AuthService{
		users:             users,
		tokens:            tokens,
		issuer:            issuer,
		passwords:         passwords,
		identity:          identity,
		otps:              otps,
		audit:             audit,
		minPasswordLength: minPasswordLength,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// ============================================================================
// Password
// ============================================================================

// Register crea un usuario con contraseña y devuelve su primer par de tokens.
func (s *AuthService) Register(ctx context.Context, projectID kernel.ProjectID, email, password string, meta RequestMeta) (*AuthResult, error) {
	email = user.NormalizeEmail(email)
	if len(password) < s.minPasswordLength {
		return nil, errx.Validation(fmt.Sprintf("password must be at least %d characters", s.minPasswordLength)).
			WithDetail("field", "password")
	}
	if len(password) > maxPasswordBytes {
		return nil, errx.Validation(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)).
			WithDetail("field", "password")
	}

	if _, err := s.users.FindByEmail(ctx, projectID, email); err == nil {
		return nil, user.ErrDuplicateUser().WithDetail("email", email)
	} else if !user.CodeUserNotFound.Is(err) {
		return nil, errx.Storage(err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	u := user.NewUser(projectID, email)
	u.SetPasswordHash(hash)
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errx.Storage(err)
	}

	result, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}

	s.audit.LogAccountCreated(ctx, u.ID, projectID, methodPassword, meta.IP)
	return result, nil
}

// Login valida email y contraseña. Los tres casos de fallo son indistinguibles,
// incluido el tiempo: sin usuario se compara contra un hash de relleno.
func (s *AuthService) Login(ctx context.Context, projectID kernel.ProjectID, email, password string, meta RequestMeta) (*AuthResult, error) {
	email = user.NormalizeEmail(email)

	u, err := s.users.FindByEmail(ctx, projectID, email)
	if err != nil && !user.CodeUserNotFound.Is(err) {
		return nil, errx.Storage(err)
	}

	if u == nil || !u.HasPassword() {
		s.passwords.Compare(s.timingHash(), password)
		s.audit.LogLoginAttempt(ctx, "", projectID, methodPassword, false, meta.IP, meta.UserAgent)
		return nil, auth.ErrInvalidCredentials()
	}

	if !s.passwords.Compare(*u.PasswordHash, password) {
		s.audit.LogLoginAttempt(ctx, u.ID, projectID, methodPassword, false, meta.IP, meta.UserAgent)
		return nil, auth.ErrInvalidCredentials()
	}

	result, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}

	s.audit.LogLoginAttempt(ctx, u.ID, projectID, methodPassword, true, meta.IP, meta.UserAgent)
	return result, nil
}

func (s *AuthService) timingHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.passwords.Hash(kernel.NewID())
	})
	return s.dummyHash
}

// ============================================================================
// Federated
// ============================================================================

// GoogleLogin verifica el ID token, busca o crea el usuario por email y vincula la identidad.
func (s *AuthService) GoogleLogin(ctx context.Context, projectID kernel.ProjectID, idToken string, meta RequestMeta) (*AuthResult, error) {
	identity, err := s.identity.Verify(ctx, idToken)
	if err != nil {
		s.audit.LogLoginAttempt(ctx, "", projectID, methodGoogle, false, meta.IP, meta.UserAgent)
		if auth.CodeInvalidAssertion.Is(err) {
			return nil, err
		}
		return nil, errx.Storage(err)
	}

	u, created, err := s.findOrCreate(ctx, projectID, identity.Email)
	if err != nil {
		return nil, err
	}

	if !u.IsLinkedTo(identity.Provider, identity.Subject) {
		u.LinkFederated(identity.Provider, identity.Subject)
		if err := s.users.Update(ctx, u); err != nil {
			return nil, errx.Storage(err)
		}
		if !created {
			s.audit.LogAccountLinked(ctx, u.ID, projectID, methodGoogle, meta.IP)
		}
	}

	result, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}

	if created {
		s.audit.LogAccountCreated(ctx, u.ID, projectID, methodGoogle, meta.IP)
	}
	s.audit.LogLoginAttempt(ctx, u.ID, projectID, methodGoogle, true, meta.IP, meta.UserAgent)
	return result, nil
}

// ============================================================================
// OTP
// ============================================================================

// SendOTP emite un código nuevo. Solo falla si el storage falla.
func (s *AuthService) SendOTP(ctx context.Context, projectID kernel.ProjectID, email string) error {
	_, err := s.otps.GenerateOTP(ctx, projectID, user.NormalizeEmail(email))
	return err
}

// VerifyOTP consume el código y entra (o crea) al usuario con email verificado.
func (s *AuthService) VerifyOTP(ctx context.Context, projectID kernel.ProjectID, email, code string, meta RequestMeta) (*AuthResult, error) {
	email = user.NormalizeEmail(email)

	if _, err := s.otps.VerifyOTP(ctx, projectID, email, code); err != nil {
		s.audit.LogOTPVerification(ctx, projectID, email, false, meta.IP)
		return nil, err
	}
	s.audit.LogOTPVerification(ctx, projectID, email, true, meta.IP)

	u, created, err := s.findOrCreate(ctx, projectID, email)
	if err != nil {
		return nil, err
	}
	if !u.EmailVerified {
		u.MarkEmailVerified()
		if err := s.users.Update(ctx, u); err != nil {
			return nil, errx.Storage(err)
		}
	}

	result, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}

	if created {
		s.audit.LogAccountCreated(ctx, u.ID, projectID, methodOTP, meta.IP)
	}
	s.audit.LogLoginAttempt(ctx, u.ID, projectID, methodOTP, true, meta.IP, meta.UserAgent)
	return result, nil
}

// ============================================================================
// Session
// ============================================================================

// Refresh rota el refresh token: el viejo se revoca con compare-and-set y solo
// una rotación concurrente obtiene un par nuevo.
func (s *AuthService) Refresh(ctx context.Context, projectID kernel.ProjectID, refreshToken string, meta RequestMeta) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, auth.ErrInvalidRefreshToken()
	}
	hash := auth.HashRefreshToken(refreshToken)
	now := s.now()

	record, err := s.tokens.FindRefreshToken(ctx, hash)
	if err != nil {
		return nil, errx.Storage(err)
	}
	if record.ProjectID != projectID || !record.IsValid(now) {
		return nil, auth.ErrInvalidRefreshToken()
	}

	revoked, err := s.tokens.RevokeIfActive(ctx, hash, now)
	if err != nil {
		return nil, errx.Storage(err)
	}
	if !revoked {
		return nil, auth.ErrInvalidRefreshToken()
	}

	u, err := s.users.FindByID(ctx, projectID, record.UserID)
	if err != nil {
		if user.CodeUserNotFound.Is(err) {
			return nil, auth.ErrInvalidRefreshToken()
		}
		return nil, errx.Storage(err)
	}

	result, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}

	s.audit.LogTokenRefresh(ctx, u.ID, projectID, meta.IP)
	return result, nil
}

// Logout revoca el refresh token dado. Es idempotente: tokens desconocidos,
// ya revocados o de otro proyecto no producen error.
func (s *AuthService) Logout(ctx context.Context, projectID kernel.ProjectID, in LogoutInput, meta RequestMeta) error {
	userID := ptrx.Value(in.UserID, "")

	if in.RefreshToken != "" {
		hash := auth.HashRefreshToken(in.RefreshToken)
		record, err := s.tokens.FindRefreshToken(ctx, hash)
		switch {
		case err == nil && record.ProjectID == projectID:
			if err := s.tokens.RevokeRefreshToken(ctx, hash); err != nil {
				return errx.Storage(err)
			}
			if userID.IsEmpty() {
				userID = record.UserID
			}
		case err != nil && !auth.CodeInvalidRefreshToken.Is(err):
			return errx.Storage(err)
		}
	}

	if in.AllDevices && in.UserID != nil {
		if err := s.tokens.RevokeAllUserTokens(ctx, projectID, *in.UserID); err != nil {
			return errx.Storage(err)
		}
	}

	if !userID.IsEmpty() {
		s.audit.LogLogout(ctx, userID, projectID, meta.IP)
	}
	return nil
}

// Me devuelve la proyección del usuario autenticado.
func (s *AuthService) Me(ctx context.Context, projectID kernel.ProjectID, userID kernel.UserID) (*user.Public, error) {
	u, err := s.users.FindByID(ctx, projectID, userID)
	if err != nil {
		if user.CodeUserNotFound.Is(err) {
			return nil, iam.ErrUnauthenticated().WithDetail("reason", "user no longer exists")
		}
		return nil, errx.Storage(err)
	}
	public := u.ToPublic()
	return &public, nil
}

// ============================================================================
// Helpers
// ============================================================================

// findOrCreate busca por (proyecto, email) y crea el usuario si no existe.
// Si otra request lo crea en paralelo se relee el existente.
func (s *AuthService) findOrCreate(ctx context.Context, projectID kernel.ProjectID, email string) (*user.User, bool, error) {
	email = user.NormalizeEmail(email)

	u, err := s.users.FindByEmail(ctx, projectID, email)
	if err == nil {
		return u, false, nil
	}
	if !user.CodeUserNotFound.Is(err) {
		return nil, false, errx.Storage(err)
	}

	u = user.NewUser(projectID, email)
	u.EmailVerified = true
	if err := s.users.Create(ctx, u); err != nil {
		if user.CodeDuplicateUser.Is(err) {
			existing, findErr := s.users.FindByEmail(ctx, projectID, email)
			if findErr != nil {
				return nil, false, errx.Storage(findErr)
			}
			return existing, false, nil
		}
		return nil, false, errx.Storage(err)
	}
	return u, true, nil
}

// issue firma un access token y persiste el hash de un refresh token nuevo.
func (s *AuthService) issue(ctx context.Context, u *user.User) (*AuthResult, error) {
	accessToken, err := s.issuer.IssueAccessToken(u.ID, u.ProjectID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := auth.RefreshToken{
		ID:        kernel.NewID(),
		TokenHash: auth.HashRefreshToken(refreshToken),
		UserID:    u.ID,
		ProjectID: u.ProjectID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.issuer.RefreshTokenTTL()),
	}
	if err := s.tokens.SaveRefreshToken(ctx, record); err != nil {
		return nil, errx.Storage(err)
	}

	return &AuthResult{
		User: u.ToPublic(),
		TokenPair: auth.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    tokenTypeBearer,
			ExpiresIn:    int64(s.issuer.AccessTokenTTL().Seconds()),
		},
	}, nil
}
