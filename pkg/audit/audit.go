package audit

// SensitiveDataHasher defines the interface for hashing sensitive identifiers
// (user/session IDs) before they are persisted, so audit records can still be
// correlated without storing the raw identifier.
type SensitiveDataHasher interface {
	Hash(data string) string
}
