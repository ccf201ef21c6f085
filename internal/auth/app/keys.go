package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/forrrest/auth/pkg/cryptox"
	"github.com/forrrest/auth/pkg/idx"
	"github.com/forrrest/auth/pkg/jwtx"
)

// InitAuthKeys builds the active signer and the verification key set.
//
// With AUTH_SIGNING_KEY_FILE set the PEM key is loaded from disk and tokens
// survive restarts. Without it an ephemeral key is generated on startup and
// every outstanding token dies with the process.
func InitAuthKeys(cfg Config, logger *slog.Logger) (jwtx.Signer, *jwtx.KeySet, error) {
	kid := cfg.SigningKID
	if kid == "" {
		kid = idx.New().String()
	}

	pemKey, err := loadOrGenerateKey(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var signer jwtx.Signer
	switch cfg.Algorithm {
	case "RS256":
		signer, err = jwtx.NewSignerRS256(kid, pemKey)
	case "EdDSA", "":
		signer, err = jwtx.NewSignerEdDSA(kid, pemKey)
	default:
		return nil, nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("initialize signer: %w", err)
	}

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)

	logger.Info("signing key loaded",
		"algorithm", signer.Alg(),
		"kid", signer.KID(),
		"ephemeral", cfg.SigningKey == "",
	)

	return signer, keys, nil
}

func loadOrGenerateKey(cfg Config, logger *slog.Logger) ([]byte, error) {
	if cfg.SigningKey != "" {
		pemKey, err := os.ReadFile(cfg.SigningKey)
		if err != nil {
			return nil, fmt.Errorf("read signing key: %w", err)
		}
		return pemKey, nil
	}

	logger.Warn("no signing key configured, generating ephemeral key")

	if cfg.Algorithm == "RS256" {
		return cryptox.GenerateRSAKey(cfg.RSABits)
	}
	return cryptox.GenerateEd25519Key()
}

// InitTransferKeys loads the external audience's RSA keys. The public key
// enables minting transfer tokens; the private key, normally held only by
// the external service, additionally enables validating them here.
func InitTransferKeys(cfg Config, logger *slog.Logger) (*jwtx.Encrypter, *jwtx.Decrypter, error) {
	if cfg.ExternalPublicKeyPath == "" {
		logger.Info("no external audience key configured, transfer tokens disabled")
		return nil, nil, nil
	}

	pemPub, err := os.ReadFile(cfg.ExternalPublicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read external public key: %w", err)
	}

	pub, err := cryptox.ParseRSAPublicKey(pemPub)
	if err != nil {
		return nil, nil, fmt.Errorf("parse external public key: %w", err)
	}

	encrypter := jwtx.NewEncrypter(pub)

	var decrypter *jwtx.Decrypter
	if cfg.ExternalPrivateKey != "" {
		pemPriv, err := os.ReadFile(cfg.ExternalPrivateKey)
		if err != nil {
			return nil, nil, fmt.Errorf("read external private key: %w", err)
		}

		priv, err := cryptox.ParseRSAPrivateKey(pemPriv)
		if err != nil {
			return nil, nil, fmt.Errorf("parse external private key: %w", err)
		}
		decrypter = jwtx.NewDecrypter(priv)
	}

	logger.Info("transfer token keys loaded",
		"audience", cfg.ExternalAudience,
		"can_decrypt", decrypter != nil,
	)

	return encrypter, decrypter, nil
}
