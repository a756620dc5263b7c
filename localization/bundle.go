package localization

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/pitabwire/langstore/translation"
)

// Bundle loads the translations of stores into a go-i18n bundle, one language per store.
// Pass-through stores contribute nothing.
func Bundle(stores ...*translation.Store) (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, store := range stores {
		if store.PassThrough() {
			continue
		}

		tag, err := language.Parse(store.CultureCode())
		if err != nil {
			return nil, fmt.Errorf("culture %q of %s: %w", store.CultureCode(), store.Path(), err)
		}

		var messages []*i18n.Message
		for _, entry := range store.Entries() {
			if translation.IsSeedKey(entry.Key) {
				continue
			}
			messages = append(messages, &i18n.Message{ID: entry.Key, Other: entry.Value})
		}

		if err = bundle.AddMessages(tag, messages...); err != nil {
			return nil, err
		}
	}

	return bundle, nil
}

// MessageFileName is the go-i18n file name of a culture, e.g. messages.fr.toml.
func MessageFileName(cultureCode string) string {
	return fmt.Sprintf("messages.%s.toml", cultureCode)
}

// WriteTOML writes the translations of store as a go-i18n message file.
func WriteTOML(w io.Writer, store *translation.Store) error {
	messages := make(map[string]string)
	for _, entry := range store.Entries() {
		if translation.IsSeedKey(entry.Key) {
			continue
		}
		messages[entry.Key] = entry.Value
	}

	return toml.NewEncoder(w).Encode(messages)
}
