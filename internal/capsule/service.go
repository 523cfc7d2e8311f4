// Package capsule implements the core of timecapsule: sealing a message
// under a password so it can only be opened after a chosen date, and the
// Store contract for persisting the resulting envelopes.
package capsule

import (
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"timecapsule/internal/crypto"
)

// Service seals and opens envelopes. The clock is injected so the unlock
// gate is deterministic in tests.
type Service struct {
	clock Clock
}

// NewService creates a Service using the given clock.
func NewService(clock Clock) *Service {
	return &Service{clock: clock}
}

// Seal encrypts content under a password, gated until unlockDate.
//
// Two independent random salts are generated per envelope: one embedded in
// the PHC password record, one persisted in the Salt field for key
// derivation. Keeping the verifier and the encryption key on separate salts
// preserves their cryptographic independence.
func (s *Service) Seal(content, password string, unlockDate time.Time, label string) (*Envelope, error) {
	verifierSalt, err := crypto.RandomBytes(crypto.SaltSize)
	if err != nil {
		return nil, fmt.Errorf("generating verifier salt: %w", err)
	}
	record, err := crypto.HashPassword([]byte(password), verifierSalt)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	kdfSalt, err := crypto.RandomBytes(crypto.SaltSize)
	if err != nil {
		return nil, fmt.Errorf("generating key salt: %w", err)
	}
	saltText := crypto.EncodeSalt(kdfSalt)
	key, err := crypto.DeriveKey([]byte(password), saltText)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	nonce, err := crypto.RandomBytes(crypto.NonceSize)
	if err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	ciphertext, err := crypto.Encrypt(key, nonce, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("encrypting content: %w", err)
	}

	return &Envelope{
		EncryptedContent: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:            base64.StdEncoding.EncodeToString(nonce),
		Salt:             saltText,
		PasswordHash:     record,
		UnlockDate:       unlockDate.UTC(),
		Label:            label,
		CreatedAt:        s.clock.Now().UTC(),
	}, nil
}

// Open recovers the plaintext from an envelope.
//
// The password is verified before the time gate is consulted: an incorrect
// password reports ErrPasswordMismatch even when the capsule is still
// locked. With the correct password before the unlock date, Open returns a
// StillLockedError carrying the remaining duration.
func (s *Service) Open(env *Envelope, password string) (string, error) {
	ok, err := crypto.VerifyPassword(env.PasswordHash, []byte(password))
	if err != nil {
		return "", fmt.Errorf("verifying password record: %w", err)
	}
	if !ok {
		return "", ErrPasswordMismatch
	}

	now := s.clock.Now()
	if !env.Unlockable(now) {
		return "", &StillLockedError{UnlockDate: env.UnlockDate, Remaining: env.Remaining(now)}
	}

	key, err := crypto.DeriveKey([]byte(password), env.Salt)
	if err != nil {
		return "", fmt.Errorf("deriving key: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.EncryptedContent)
	if err != nil {
		return "", fmt.Errorf("decoding encrypted content: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return "", fmt.Errorf("decoding nonce: %w", err)
	}

	plaintext, err := crypto.Decrypt(key, nonce, ciphertext)
	if err != nil {
		// The verifier accepted the password, so a tag failure means the
		// record was corrupted or tampered with.
		return "", fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	if !utf8.Valid(plaintext) {
		return "", ErrInvalidContent
	}
	return string(plaintext), nil
}
