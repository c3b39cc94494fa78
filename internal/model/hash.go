package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for structural hashes.
// Version suffix enables future encoding migration.
const (
	DomainTuple    = "codd/tuple/v1"
	DomainRelation = "codd/relation/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the structural hash of the tuple.
// Equal tuples always hash identically.
func (t Tuple) Hash() string {
	return hashWithDomain(DomainTuple, t.Key())
}

// Hash returns the structural hash of the relation, covering its heading
// and member tuples. Equal relations always hash identically.
func (r *Relation) Hash() string {
	return hashWithDomain(DomainRelation, r.key)
}
