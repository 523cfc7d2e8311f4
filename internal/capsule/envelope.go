package capsule

import "time"

// Envelope is the persisted unit: the AES-256-GCM ciphertext of a message
// plus everything needed to open it again — the AEAD nonce, the key
// derivation salt, a self-contained password record for the cheap pre-check,
// and the unlock gate. Envelopes are immutable after Seal; there is no
// update, only create, read, and (externally) delete.
type Envelope struct {
	EncryptedContent string    `json:"encrypted_content"`
	Nonce            string    `json:"nonce"`
	Salt             string    `json:"salt"`
	PasswordHash     string    `json:"password_hash"`
	UnlockDate       time.Time `json:"unlock_date"`
	Label            string    `json:"label,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Unlockable reports whether the time gate has passed at the given instant.
// Unlock state is always derived from the clock, never stored.
func (e *Envelope) Unlockable(now time.Time) bool {
	return !now.Before(e.UnlockDate)
}

// Remaining returns how long until the envelope becomes unlockable,
// or zero if the gate has already passed.
func (e *Envelope) Remaining(now time.Time) time.Duration {
	if e.Unlockable(now) {
		return 0
	}
	return e.UnlockDate.Sub(now)
}
