package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
)

const SignatureHeader = "x-alert-signature"

var ErrInvalidSignature = errors.New("invalid signature")

// Signer produces HMAC-SHA256 signatures over published alert envelopes.
type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

// NewSigner returns nil for an empty key; a nil *Signer signs nothing.
func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if secretKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Enabled() bool {
	return s != nil
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(data []byte, signature string) error {
	if !hmac.Equal([]byte(s.Sign(data)), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.Int("payload_bytes", len(data)))
		return ErrInvalidSignature
	}
	return nil
}
