// internal/pickup/otp.go
package pickup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/circulation"
)

// The pickup code is derived, not stored: the same reservation yields the
// same 6-digit code for the whole current hour bucket, on any server
// instance. The window is aligned to hour boundaries, not rolling — a code
// fetched at minute 59 stops working at the top of the hour. That is the
// price of keeping the terminal handshake stateless.

const (
	codeLength    = 6
	bucketSeconds = 3600
)

// hourBucket is the number of whole hours since the Unix epoch.
func hourBucket(now time.Time) int64 {
	return now.UTC().Unix() / bucketSeconds
}

// bucketEnd is the instant the given bucket's codes stop being valid.
func bucketEnd(bucket int64) time.Time {
	return time.Unix((bucket+1)*bucketSeconds, 0).UTC()
}

// Code derives the 6-digit pickup code for a reservation at the given
// instant: SHA-256 over the concatenated reservation, user and book IDs
// plus the hour bucket, reduced to six decimal digits.
func Code(r *circulation.Reservation, now time.Time) string {
	seed := fmt.Sprintf("%d%d%d%d", r.ID, r.UserID, r.BookID, hourBucket(now))
	sum := sha256.Sum256([]byte(seed))
	prefix := hex.EncodeToString(sum[:])[:12]
	v, err := strconv.ParseUint(prefix, 16, 64)
	if err != nil {
		// 12 hex digits always parse; reachable only if the digest
		// slicing above changes.
		panic(fmt.Sprintf("otp: parse digest prefix: %v", err))
	}
	return fmt.Sprintf("%0*d", codeLength, v%1_000_000)
}

// wellFormed reports whether input looks like a pickup code: exactly six
// ASCII digits. Checked before any store access.
func wellFormed(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
