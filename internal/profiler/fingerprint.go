package profiler

import (
	"crypto/sha256"
	"encoding/hex"
)

// profileSchemaVersion participates in the fingerprint so a schema change
// invalidates old cache entries by construction instead of ever rewriting
// them in place.
const profileSchemaVersion = "profile-v1"

// Fingerprint is the stable cache key for one fan's profiled text window:
// hash over schema version, fan identifier and the exact text. Any change to
// the input yields a new fingerprint and therefore a new profile.
func Fingerprint(fanCreatorID, text string) string {
	h := sha256.New()
	h.Write([]byte(profileSchemaVersion))
	h.Write([]byte{0})
	h.Write([]byte(fanCreatorID))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
