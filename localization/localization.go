// Package localization connects request handling to translation stores: it carries the
// requested languages through contexts and picks the store to translate with.
package localization

import (
	"context"
	"net/http"
	"strings"

	"github.com/pitabwire/util"
	"golang.org/x/text/language"
	"google.golang.org/grpc/metadata"

	"github.com/pitabwire/langstore/scope"
	"github.com/pitabwire/langstore/translation"
)

type contextKey string

func (c contextKey) String() string {
	return "langstore/localization/" + string(c)
}

const ctxKeyLanguage = contextKey("languageKey")

// ToContext adds language to the current supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts language from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

func ToMap(m map[string]string, lang []string) map[string]string {
	m["lang"] = strings.Join(lang, ",")
	return m
}

func FromMap(m map[string]string) []string {
	lang, ok := m["lang"]
	if !ok {
		return nil
	}
	return strings.Split(lang, ",")
}

// StoreProvider opens the translation store of an owner type for a culture.
type StoreProvider interface {
	Translator(ctx context.Context, ownerType scope.TypeRef, cultureCode string) (*translation.Store, error)
}

type Manager interface {
	// Culture picks the culture code requested by request.
	Culture(ctx context.Context, request any) (string, bool)
	// Translate looks key up in the store owning ownerType for the requested culture.
	// Any failure returns key.
	Translate(ctx context.Context, request any, ownerType scope.TypeRef, key string) string
}

type managerImpl struct {
	provider StoreProvider
}

// NewManager creates a manager reading stores from provider.
func NewManager(provider StoreProvider) Manager {
	return &managerImpl{provider: provider}
}

// Culture accepts an *http.Request, a context, a string or a []string. A nil request reads
// the languages stored in ctx.
func (m *managerImpl) Culture(ctx context.Context, request any) (string, bool) {
	var languageSlice []string

	switch v := request.(type) {
	case nil:
		languageSlice = FromContext(ctx)

	case *http.Request:
		languageSlice = ExtractLanguageFromHTTPRequest(v)

	case context.Context:
		languageSlice = FromContext(v)
		if len(languageSlice) == 0 {
			languageSlice = ExtractLanguageFromGrpcRequest(v)
		}

	case string:
		languageSlice = []string{v}

	case []string:
		languageSlice = v

	default:
		return "", false
	}

	return firstCulture(languageSlice)
}

func (m *managerImpl) Translate(ctx context.Context, request any, ownerType scope.TypeRef, key string) string {
	culture, ok := m.Culture(ctx, request)
	if !ok {
		util.Log(ctx).WithField("key", key).
			Warn("Translate -- no valid request object found, use string, []string, context or http.Request")
		return key
	}

	store, err := m.provider.Translator(ctx, ownerType, culture)
	if err != nil {
		util.Log(ctx).WithError(err).
			WithField("owner", ownerType.String()).
			WithField("culture", culture).
			Error("Translate -- could not open translation store")
		return key
	}

	return store.Get(ctx, key)
}

// firstCulture returns the first usable language tag. Unparseable entries are skipped;
// "*" selects the base culture.
func firstCulture(languages []string) (string, bool) {
	for _, raw := range languages {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if raw == "*" {
			return translation.BaseLocale, true
		}

		tag, err := language.Parse(raw)
		if err != nil {
			continue
		}
		return tag.String(), true
	}
	return "", false
}

// ExtractLanguageFromHTTPRequest returns the lang form value followed by the
// Accept-Language preferences.
func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	lang := req.FormValue("lang")

	acceptedLang := ExtractLanguageFromHTTPHeader(req.Header)

	var languages []string
	if lang != "" {
		languages = append(languages, lang)
	}

	return append(languages, acceptedLang...)
}

// ExtractLanguageFromHTTPHeader parses Accept-Language, most preferred first.
func ExtractLanguageFromHTTPHeader(header http.Header) []string {
	acceptLanguageHeader := header.Get("Accept-Language")
	if acceptLanguageHeader == "" {
		return nil
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguageHeader)
	if err != nil {
		return nil
	}

	languages := make([]string, 0, len(tags))
	for _, tag := range tags {
		languages = append(languages, tag.String())
	}
	return languages
}

func ExtractLanguageFromGrpcRequest(ctx context.Context) []string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	header, ok := md["accept-language"]
	if !ok || len(header) == 0 {
		return nil
	}

	return ExtractLanguageFromHTTPHeader(http.Header{"Accept-Language": header[:1]})
}
