package capsule

// Store persists envelopes as individually addressable records under one
// configured root (a directory, a database, or a bucket prefix).
// Implementations are not synchronized across processes: two Save calls are
// safe because identifiers are independently random, but a SaveTo/LoadFrom
// pair racing on the same explicit location is not.
type Store interface {
	// Save serializes the envelope as a new record under a freshly minted
	// identifier and returns that identifier. It must not silently overwrite
	// an existing record.
	Save(env *Envelope) (ID, error)

	// SaveTo writes the envelope to an explicit caller-given location,
	// bypassing identifier minting. An existing record at that location is
	// replaced.
	SaveTo(env *Envelope, location string) error

	// Load reads and deserializes the record for the given identifier.
	// Returns ErrNotFound if no such record exists.
	Load(id ID) (*Envelope, error)

	// LoadFrom reads and deserializes the record at an explicit location.
	LoadFrom(location string) (*Envelope, error)

	// List enumerates all records under the root. A record that fails to
	// read or parse is skipped with a warning rather than failing the call,
	// so one corrupt record cannot hide the rest of the archive.
	List() (map[ID]*Envelope, error)
}
