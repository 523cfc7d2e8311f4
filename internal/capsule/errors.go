package capsule

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPasswordMismatch is returned by Open when the password fails the
	// verifier pre-check. No decryption is attempted and the time gate is
	// not consulted.
	ErrPasswordMismatch = errors.New("password does not match")

	// ErrAuthenticationFailed is returned by Open when the AEAD tag does not
	// verify. Since the password already passed the pre-check, this signals
	// a corrupted or tampered record.
	ErrAuthenticationFailed = errors.New("ciphertext authentication failed")

	// ErrInvalidContent is returned by Open when the decrypted bytes are not
	// valid UTF-8 text.
	ErrInvalidContent = errors.New("decrypted content is not valid text")

	// ErrNotFound is returned by stores when no record exists for an
	// identifier or location.
	ErrNotFound = errors.New("capsule not found")
)

// StillLockedError is returned by Open when the password is correct but the
// unlock date has not passed yet.
type StillLockedError struct {
	UnlockDate time.Time
	Remaining  time.Duration
}

func (e *StillLockedError) Error() string {
	return fmt.Sprintf("still locked until %s (%s remaining)",
		e.UnlockDate.UTC().Format(time.RFC3339), e.Remaining)
}
