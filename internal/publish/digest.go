package publish

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Digest hashes the JSON encoding of v with xxhash64. encoding/json sorts map
// keys, so equal records always produce equal digests.
func Digest(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode record for digest: %w", err)
	}
	return digestBytes(data), nil
}

func digestBytes(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
