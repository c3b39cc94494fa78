// Package store keeps named relations in a SQLite database.
//
// The store is an import/export collaborator: queries always run over the
// in-memory environment, and the store only saves and restores it.
//
// # Layout
//
//   - relations: one row per saved relation, its attribute type tags as a
//     JSON object and the sequence number of the save that wrote it
//   - tuples: one row per member, keyed by the tuple's SHA-256 hash and
//     holding the workspace JSON encoding of the tuple
//
// Saving a relation replaces every tuple it had before. Deleting a
// relation cascades to its tuples.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce the tuples -> relations cascade
//
// ImportTable reads any other table of the database (one not owned by the
// store) as a relation, which lets plain SQLite files be queried.
package store
