package record

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// newRecordID derives a record identifier from the creation inputs, a
// monotonic sequence number, the timestamp, and 16 random bytes, all folded
// through SHA-256. The random component keeps ids unpredictable; the sequence
// number keeps them unique even when timestamps collide.
func newRecordID(patientID, creatorID string, seq int64, at time.Time) (string, error) {
	var nonce [16]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("read random nonce: %w", err)
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|", patientID, creatorID, seq, at.UnixNano())
	h.Write(nonce[:])
	return hex.EncodeToString(h.Sum(nil)), nil
}
