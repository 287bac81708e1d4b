package helpers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

func IsContextDone(ctx context.Context) bool {
	if ctx == nil {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
	}
	return false
}

// AddBusinessDays moves the date forward by n week days, skipping weekends.
// Used to derive the manager verification deadline from the start date.
func AddBusinessDays(from time.Time, days int) time.Time {
	result := from
	for days > 0 {
		result = result.AddDate(0, 0, 1)
		switch result.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		days--
	}
	return result
}

// PayloadHash returns a deterministic sha256 over the payload's key-value
// pairs in key order. Identical payloads always hash identically, which is
// what makes repeated step completion a no-op.
func PayloadHash(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(payload[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TextHash is used for legal attestation text fingerprints.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
