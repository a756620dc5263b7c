package translation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Seed keys written into every new resource file.
const (
	SeedKeyFileName = "FileName"
	SeedKeyType     = "Type"
)

// IsSeedKey reports whether key is one of the bookkeeping entries of a new file.
func IsSeedKey(key string) bool {
	return key == SeedKeyFileName || key == SeedKeyType
}

// document is the on-disk shape of a resource file.
type document struct {
	Translations map[string]string `json:"Translations"`
}

// encode renders translations as indented JSON. encoding/json writes map keys in ascending
// byte order, which keeps the files stable between saves.
func encode(translations map[string]string) ([]byte, error) {
	if translations == nil {
		translations = map[string]string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{Translations: translations}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode parses a resource document. Content that does not carry a translations object is
// reported as ErrResourceCorrupt.
func decode(data []byte) (map[string]string, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCorrupt, err)
	}
	if doc.Translations == nil {
		return nil, fmt.Errorf("%w: missing Translations object", ErrResourceCorrupt)
	}
	return doc.Translations, nil
}

// isBlank reports whether a freshly read file has no content worth parsing.
func isBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}
