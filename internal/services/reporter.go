package services

import (
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ReporterDigester derives the value stamped on each report in place of the
// reporter's principal id. Without the pepper the digest cannot be linked
// back to a user.
type ReporterDigester struct {
	key [32]byte
}

func NewReporterDigester(pepper string) *ReporterDigester {
	return &ReporterDigester{key: blake2b.Sum256([]byte(pepper))}
}

func (d *ReporterDigester) Digest(reporterID uuid.UUID) string {
	h, _ := blake2b.New256(d.key[:]) // only errors for keys over 64 bytes
	h.Write(reporterID[:])
	return hex.EncodeToString(h.Sum(nil))
}
