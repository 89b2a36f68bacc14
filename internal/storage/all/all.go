// Package all wires every built-in storage backend into the storage registry.
//
// It exists purely for side effects: a blank import runs the init functions
// of each concrete backend, which register their factories with the storage
// package. Importing it makes the following format kinds available:
//
//   - "csv"      (wikietl/internal/storage/csvstore)
//   - "json"     (wikietl/internal/storage/jsonstore)
//   - "sqlite"   (wikietl/internal/storage/sqlitestore)
//   - "postgres" (wikietl/internal/storage/pgstore)
//
// Binaries that want only a subset can import the individual backend
// packages instead.
package all

import (
	_ "wikietl/internal/storage/csvstore"
	_ "wikietl/internal/storage/jsonstore"
	_ "wikietl/internal/storage/pgstore"
	_ "wikietl/internal/storage/sqlitestore"
)
