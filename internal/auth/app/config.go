package app

import (
	"os"
	"strconv"
	"time"

	"github.com/forrrest/auth/pkg/jwtx"
)

type Config struct {
	Issuer   string // Issuer claim for tokens
	Audience string // Audience claim stamped into first-party tokens

	Algorithm  string // JWT signing algorithm (EdDSA, RS256) (default: EdDSA)
	SigningKID string // Key id for the active signing key (default: generated)
	SigningKey string // Optional: path to a PEM signing key; ephemeral when unset
	RSABits    int    // RSA key size for ephemeral RS256 keys (default: 2048)

	// External audience for encrypted profile transfer tokens. Transfer
	// issuance is disabled when the public key path is unset.
	ExternalAudience      string
	ExternalPublicKeyPath string
	ExternalPrivateKey    string // Optional: enables transfer-token validation
	TransferTokenTTL      time.Duration

	UserAccessTTL     time.Duration
	UserRefreshTTL    time.Duration
	ProfileAccessTTL  time.Duration
	ProfileRefreshTTL time.Duration

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	PepperFile   string // Path to password-hashing pepper file (default: ./pepper)

	Env                 string // Environment (dev, staging, prod) (default: dev)
	LogLevel            string // Log level (debug, info, warn, error) (default: info)
	LogFormat           string // Log format (json, text) (default: json)
	Port                int    // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:   getEnvOrDefault("AUTH_ISSUER", "forrrest-auth"),
		Audience: getEnvOrDefault("AUTH_AUDIENCE", "forrrest"),

		Algorithm:  getEnvOrDefault("AUTH_ALGORITHM", "EdDSA"),
		SigningKID: os.Getenv("AUTH_SIGNING_KID"),
		SigningKey: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		RSABits:    getEnvIntOrDefault("AUTH_RSA_BITS", 2048),

		ExternalAudience:      getEnvOrDefault("AUTH_EXTERNAL_AUDIENCE", "forrrest-service"),
		ExternalPublicKeyPath: os.Getenv("AUTH_EXTERNAL_PUBLIC_KEY_FILE"),
		ExternalPrivateKey:    os.Getenv("AUTH_EXTERNAL_PRIVATE_KEY_FILE"),
		TransferTokenTTL:      getEnvDurationOrDefault("AUTH_TRANSFER_TOKEN_TTL", 5*time.Minute),

		UserAccessTTL:     getEnvDurationOrDefault("AUTH_USER_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		UserRefreshTTL:    getEnvDurationOrDefault("AUTH_USER_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		ProfileAccessTTL:  getEnvDurationOrDefault("AUTH_PROFILE_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		ProfileRefreshTTL: getEnvDurationOrDefault("AUTH_PROFILE_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

// Policy builds the per-kind TTL policy from the configured lifetimes.
func (c Config) Policy() jwtx.Policy {
	return jwtx.NewPolicy(map[jwtx.TokenKind]time.Duration{
		jwtx.KindUserAccess:     c.UserAccessTTL,
		jwtx.KindUserRefresh:    c.UserRefreshTTL,
		jwtx.KindProfileAccess:  c.ProfileAccessTTL,
		jwtx.KindProfileRefresh: c.ProfileRefreshTTL,
	})
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
