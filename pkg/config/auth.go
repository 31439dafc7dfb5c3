package config

import "time"

const (
	OTPDeliveryDirect = "direct"
	OTPDeliveryQueue  = "queue"
)

// AuthConfig groups every credential setting.
type AuthConfig struct {
	JWT      JWTConfig
	Password PasswordConfig
	OTP      OTPConfig
	Google   GoogleConfig
	APIKey   APIKeyConfig

	// CleanupInterval is how often expired refresh records are purged; 0 disables it.
	CleanupInterval time.Duration `env:"AUTH_CLEANUP_INTERVAL" envDefault:"1h"`
}

// JWTConfig configures access and refresh token lifetimes.
type JWTConfig struct {
	SecretKey       string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	Issuer          string        `env:"JWT_ISSUER" envDefault:"monarch"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
	// ClockSkew is tolerated on the exp claim only.
	ClockSkew time.Duration `env:"JWT_CLOCK_SKEW" envDefault:"30s"`
}

// PasswordConfig configures password hashing.
type PasswordConfig struct {
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
	MinLength  int `env:"PASSWORD_MIN_LENGTH" envDefault:"6"`
}

// OTPConfig configures one-time codes.
type OTPConfig struct {
	TTL         time.Duration `env:"OTP_TTL" envDefault:"10m"`
	MaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	// Delivery is "direct" (send inline) or "queue" (jobx worker).
	Delivery string `env:"OTP_DELIVERY" envDefault:"direct"`
}

// GoogleConfig configures federated login.
type GoogleConfig struct {
	ClientID string `env:"GOOGLE_CLIENT_ID"`
}

// APIKeyConfig configures project API keys.
type APIKeyConfig struct {
	Prefix   string        `env:"API_KEY_PREFIX" envDefault:"mk_live_"`
	CacheTTL time.Duration `env:"PROJECT_CACHE_TTL" envDefault:"5m"`
}
