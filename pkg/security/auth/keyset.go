package auth

// KeySet is an immutable set of accepted API keys. It is built once from
// configuration and shared read-only across all concurrent requests; a
// configuration reload builds a new KeySet and swaps the active reference.
type KeySet struct {
	keys map[string]struct{}
}

// NewKeySet creates a key set from the configured keys. Empty strings are
// ignored so an empty presented key can never authenticate.
func NewKeySet(keys []string) *KeySet {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}

	return &KeySet{keys: set}
}

// Authenticate reports whether the presented key is a member of the set.
//
// A missing key, an empty key, and an unknown key all take the same single
// rejection path: callers get one bit and nothing that distinguishes why the
// key was rejected. The map lookup hashes the full presented key, so no
// per-character prefix comparison is observable.
func (s *KeySet) Authenticate(presented string) bool {
	if presented == "" {
		return false
	}
	_, ok := s.keys[presented]
	return ok
}

// Len returns the number of configured keys.
func (s *KeySet) Len() int {
	return len(s.keys)
}
