// Package crypto implements the password-based primitives behind capsules:
// Argon2id key derivation, PHC-format password records, and AES-256-GCM
// sealing of message content.
package crypto

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. They are fixed so that key derivation is
// deterministic across Seal and Open; changing them breaks every stored
// capsule.
const (
	argonTime    = 2
	argonMemory  = 19 * 1024 // KiB
	argonThreads = 1
)

const (
	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32
	// SaltSize is the raw salt length in bytes.
	SaltSize = 16
)

// b64 is the PHC alphabet for salts and hashes: standard base64, no padding.
var b64 = base64.RawStdEncoding

// EncodeSalt renders raw salt bytes in the PHC text form used by the
// envelope's salt field and by password records.
func EncodeSalt(salt []byte) string { return b64.EncodeToString(salt) }

// DeriveKey stretches a password into a 32-byte AES key with Argon2id.
// salt must be in the PHC text form produced by EncodeSalt; a salt that does
// not decode is an error. Identical inputs always yield identical output.
func DeriveKey(password []byte, salt string) ([]byte, error) {
	raw, err := b64.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("key derivation: decoding salt: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("key derivation: empty salt")
	}
	return argon2.IDKey(password, raw, argonTime, argonMemory, argonThreads, KeySize), nil
}
