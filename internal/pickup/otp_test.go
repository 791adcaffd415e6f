// internal/pickup/otp_test.go
package pickup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/circulation"
)

var otpNow = time.Date(2026, time.March, 10, 12, 30, 0, 0, time.UTC)

func TestCodeGoldenValues(t *testing.T) {
	// Independently computed from the derivation rule: SHA-256 over
	// "1" + "7" + "42" + hour bucket, first 12 hex digits mod 1e6.
	res := &circulation.Reservation{ID: 1, UserID: 7, BookID: 42}

	assert.Equal(t, "043385", Code(res, otpNow))
	assert.Equal(t, "102847", Code(res, otpNow.Add(time.Hour)))

	other := &circulation.Reservation{ID: 2, UserID: 3, BookID: 5}
	assert.Equal(t, "579381", Code(other, otpNow))
}

func TestCodeDeterministicWithinBucket(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		res := &circulation.Reservation{
			ID:     rapid.Int64Range(1, 1<<40).Draw(t, "reservationID"),
			UserID: rapid.Int64Range(1, 1<<40).Draw(t, "userID"),
			BookID: rapid.Int64Range(1, 1<<40).Draw(t, "bookID"),
		}
		offset := time.Duration(rapid.Int64Range(0, 3599).Draw(t, "offsetSeconds")) * time.Second
		base := otpNow.Truncate(time.Hour)

		first := Code(res, base)
		second := Code(res, base.Add(offset))
		if first != second {
			t.Fatalf("code changed within one hour bucket: %s vs %s", first, second)
		}
		if !wellFormed(first) {
			t.Fatalf("derived code %q is not six digits", first)
		}
	})
}

func TestCodeRotatesAcrossBuckets(t *testing.T) {
	// No collision guarantee is claimed for a single tuple, but codes
	// cannot be stable across buckets for a whole population.
	changed := 0
	for id := int64(1); id <= 64; id++ {
		res := &circulation.Reservation{ID: id, UserID: id + 100, BookID: id + 200}
		if Code(res, otpNow) != Code(res, otpNow.Add(time.Hour)) {
			changed++
		}
	}
	assert.Greater(t, changed, 32, "hour rotation should change most codes")
}

func TestBucketEndIsNextHourBoundary(t *testing.T) {
	end := bucketEnd(hourBucket(otpNow))
	assert.Equal(t, time.Date(2026, time.March, 10, 13, 0, 0, 0, time.UTC), end)

	// Minute 59 still maps to the same boundary: the window is aligned,
	// not rolling.
	late := time.Date(2026, time.March, 10, 12, 59, 59, 0, time.UTC)
	assert.Equal(t, end, bucketEnd(hourBucket(late)))
}

func TestWellFormed(t *testing.T) {
	cases := []struct {
		code string
		ok   bool
	}{
		{"043385", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12a456", false},
		{"12 456", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, wellFormed(tc.code), "code %q", tc.code)
	}
}

func TestSlotFor(t *testing.T) {
	assert.Equal(t, "A3", slotFor(42, DefaultSlotCount))
	assert.Equal(t, "A1", slotFor(5, DefaultSlotCount))
	assert.Equal(t, "A5", slotFor(4, DefaultSlotCount))

	// Unrelated books can land in the same cell.
	assert.Equal(t, slotFor(7, DefaultSlotCount), slotFor(12, DefaultSlotCount))
}
