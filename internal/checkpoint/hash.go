package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/arota-dev/pipeflow/internal/model"
)

// SampleHash returns a deterministic content hash of a sample's fields: hex
// of a SHA-256 digest over the canonical JSON form. Its only purpose is
// detecting that the caller has not silently swapped the test set between a
// checkpointed run and a resumed one — it is not a security boundary.
//
// encoding/json sorts map[string]any keys when marshalling, so the digest
// is stable across process runs regardless of Go map iteration order.
func SampleHash(fields map[string]model.Value) (string, error) {
	raw := make(map[string]any, len(fields))
	for k, v := range fields {
		raw[k] = v.ToAny()
	}
	canonical, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("hashing sample: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
