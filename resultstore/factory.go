package resultstore

import "github.com/pkg/errors"

// NewStore returns a store of the given kind: "memory", "gobdir" (location
// is a directory) or "sqlite" (location is a database file).
func NewStore(kind, location string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "gobdir":
		return NewGobDirStore(location), nil
	case "sqlite":
		return NewSQLiteStore(location), nil
	default:
		return nil, errors.Errorf("unsupported store backend: %s", kind)
	}
}
