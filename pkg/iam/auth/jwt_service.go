package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 32

// JWTService implementación del TokenService usando JWT HS256
type JWTService struct {
	secretKey       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
	leeway          time.Duration
	now             func() time.Time
}

// NewJWTService crea una nueva instancia del servicio JWT
func NewJWTService(secretKey string, accessTokenTTL, refreshTokenTTL time.Duration, issuer string, leeway time.Duration) *JWTService {
	if accessTokenTTL == 0 {
		accessTokenTTL = 15 * time.Minute // Por defecto 15 minutos
	}
	if refreshTokenTTL == 0 {
		refreshTokenTTL = 30 * 24 * time.Hour // Por defecto 30 días
	}
	if issuer == "" {
		issuer = "monarch"
	}

	return &JWTService{
		secretKey:       []byte(secretKey),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		issuer:          issuer,
		leeway:          leeway,
		now:             time.Now,
	}
}

// Claims personalizados para JWT
type JWTClaims struct {
	UserID    kernel.UserID    `json:"user_id"`
	ProjectID kernel.ProjectID `json:"project_id"`
	jwt.RegisteredClaims
}

// AccessTokenTTL devuelve la vida del access token.
func (j *JWTService) AccessTokenTTL() time.Duration { return j.accessTokenTTL }

// RefreshTokenTTL devuelve la vida del refresh token.
func (j *JWTService) RefreshTokenTTL() time.Duration { return j.refreshTokenTTL }

// IssueAccessToken genera un token de acceso JWT.
// No se emite nbf; iat y exp salen del mismo reloj.
func (j *JWTService) IssueAccessToken(userID kernel.UserID, projectID kernel.ProjectID) (string, error) {
	now := j.now()

	claims := JWTClaims{
		UserID:    userID,
		ProjectID: projectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithCause(err)
	}
	return tokenString, nil
}

// VerifyAccessToken valida y decodifica un token de acceso.
// La tolerancia de reloj aplica solo a exp.
func (j *JWTService) VerifyAccessToken(tokenString string) (*TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithLeeway(j.leeway),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)

	var claims JWTClaims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return j.secretKey, nil
	})
	if err != nil {
		return nil, classifyJWTError(err)
	}

	if claims.UserID.IsEmpty() || claims.ProjectID.IsEmpty() {
		return nil, iam.ErrMalformedToken().WithDetail("reason", "missing identity claims")
	}

	out := &TokenClaims{
		UserID:    claims.UserID,
		ProjectID: claims.ProjectID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return iam.ErrExpiredToken()
	case errors.Is(err, jwt.ErrTokenMalformed):
		return iam.ErrMalformedToken()
	default:
		// firma inválida, algoritmo no permitido, issuer distinto
		return iam.ErrInvalidToken().WithCause(err)
	}
}

// GenerateRefreshToken genera un refresh token opaco (32 bytes, base64url).
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", ErrTokenGenerationFailed().WithCause(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashRefreshToken devuelve el SHA-256 hex usado como clave de búsqueda.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
