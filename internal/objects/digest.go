package objects

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for digests. The version suffix allows the encoding to
// change without old journals colliding with new ones.
const (
	DomainResearchState = "osr/research-state/v1"
	DomainPlan          = "osr/plan/v1"
	DomainOptions       = "osr/options/v1"
	DomainResult        = "osr/result/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest hashes v under the given domain using canonical JSON.
func Digest(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, data), nil
}

// ResearchItemsValue converts research entries to a canonical value.
func ResearchItemsValue(items []ResearchItem) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = map[string]any{
			"kind":      item.Kind.String(),
			"object":    item.Object,
			"category":  item.Category,
			"ride_type": item.RideType,
		}
	}
	return out
}
