package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefix for derived trade-link identity. The version suffix allows
// the derivation to change without colliding with old identifiers.
const domainTradeLink = "emtab/tradelink/v1"

// linkIDLen is the hex length of a derived link identifier.
const linkIDLen = 12

// LinkID derives a stable trade-link identifier from the region pair and
// commodity. The pair is sorted before hashing so both directions of a
// bidirectional link share one identifier, and recompiling the same model
// always yields the same value.
func LinkID(regionA, regionB, commodity string) string {
	a, b := regionA, regionB
	if b < a {
		a, b = b, a
	}

	h := sha256.New()
	h.Write([]byte(domainTradeLink))
	h.Write([]byte{0x00}) // null separator avoids boundary ambiguity
	h.Write([]byte(a))
	h.Write([]byte{0x00})
	h.Write([]byte(b))
	h.Write([]byte{0x00})
	h.Write([]byte(commodity))

	return hex.EncodeToString(h.Sum(nil))[:linkIDLen]
}
