package crypto

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// HashPassword produces a self-contained PHC password record:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
//
// The record embeds the algorithm, its parameters, the salt, and the digest,
// so verification needs no external state.
func HashPassword(password, salt []byte) (string, error) {
	if len(salt) == 0 {
		return "", fmt.Errorf("hashing password: empty salt")
	}
	hash := argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, KeySize)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		b64.EncodeToString(salt), b64.EncodeToString(hash)), nil
}

// VerifyPassword checks a password against a PHC record. A wrong password
// returns (false, nil); only a malformed record is an error. The record's own
// parameters are honored, so records written with older cost settings keep
// verifying. Comparison is constant-time.
func VerifyPassword(record string, password []byte) (bool, error) {
	parts := strings.Split(record, "$")
	if len(parts) != 6 || parts[0] != "" {
		return false, fmt.Errorf("malformed password record")
	}
	if parts[1] != "argon2id" {
		return false, fmt.Errorf("unsupported hash algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("malformed version field %q: %w", parts[2], err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false, fmt.Errorf("malformed parameter field %q: %w", parts[3], err)
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decoding record salt: %w", err)
	}
	want, err := b64.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decoding record hash: %w", err)
	}
	if len(want) == 0 {
		return false, fmt.Errorf("empty record hash")
	}

	got := argon2.IDKey(password, salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
