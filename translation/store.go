package translation

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/langstore/scope"
)

// BaseLocale is the identity culture. Stores for it never touch the disk.
const BaseLocale = "en"

// IsBaseLocale reports whether cultureCode selects the pass-through behaviour.
func IsBaseLocale(cultureCode string) bool {
	return cultureCode == "" || strings.EqualFold(cultureCode, BaseLocale)
}

// Resolver finds the owner whose resource file holds the translations of a type.
type Resolver interface {
	Resolve(t scope.TypeRef) (scope.Owner, error)
}

// Option configures a Store at construction.
type Option func(*Store)

// WithNotifier reports self-healing inserts to n.
func WithNotifier(n MissingKeyNotifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithLocks makes the store serialize file access through l instead of the process wide
// registry.
func WithLocks(l *Locks) Option {
	return func(s *Store) {
		if l != nil {
			s.locks = l
		}
	}
}

// Store is the translation map of one (owner, culture) pair mirrored to its resource file.
// A Store may be shared between goroutines.
type Store struct {
	cultureCode string
	passThrough bool
	owner       scope.Owner
	fileName    string
	path        string

	locks    *Locks
	notifier MissingKeyNotifier

	mu           sync.Mutex
	translations map[string]string
	// dirty tracks keys changed since the last load or save. true marks an explicit Set,
	// false a placeholder that must not replace a translation found on disk.
	dirty map[string]bool
}

// Open resolves the owner of ownerType and loads its resource file for cultureCode,
// creating and seeding the file when needed. Base culture stores skip both steps.
func Open(ctx context.Context, resolver Resolver, ownerType scope.TypeRef, cultureCode string, opts ...Option) (*Store, error) {
	if IsBaseLocale(cultureCode) {
		return newStore(cultureCode, opts...), nil
	}

	owner, err := resolver.Resolve(ownerType)
	if err != nil {
		return nil, err
	}

	return OpenOwner(ctx, owner, cultureCode, opts...)
}

// OpenOwner loads the resource file of an already resolved owner.
func OpenOwner(ctx context.Context, owner scope.Owner, cultureCode string, opts ...Option) (*Store, error) {
	s := newStore(cultureCode, opts...)
	if s.passThrough {
		return s, nil
	}

	if err := validateCulture(cultureCode); err != nil {
		return nil, err
	}

	s.owner = owner
	s.fileName = ResourceFileName(owner, cultureCode)
	s.path = ResourcePath(owner, cultureCode)

	ctx, span := startSpan(ctx, "translation.Open", s)
	err := s.load(ctx)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func newStore(cultureCode string, opts ...Option) *Store {
	s := &Store{
		cultureCode:  cultureCode,
		passThrough:  IsBaseLocale(cultureCode),
		locks:        defaultLocks,
		translations: map[string]string{},
		dirty:        map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateCulture(cultureCode string) error {
	if strings.ContainsAny(cultureCode, `/\`) || strings.Contains(cultureCode, "..") || strings.TrimSpace(cultureCode) != cultureCode {
		return fmt.Errorf("%w: %q", ErrInvalidCulture, cultureCode)
	}
	return nil
}

// CultureCode is the culture the store was opened for.
func (s *Store) CultureCode() string {
	return s.cultureCode
}

// PassThrough reports whether the store returns keys unchanged without any file.
func (s *Store) PassThrough() bool {
	return s.passThrough
}

// Owner is the resolved owner. It is zero for pass-through stores.
func (s *Store) Owner() scope.Owner {
	return s.owner
}

// Path is the resource file location. It is empty for pass-through stores.
func (s *Store) Path() string {
	return s.path
}

// FileName is the base name of the resource file.
func (s *Store) FileName() string {
	return s.fileName
}

// Get returns the translation of key. Unknown keys are stored as their own translation and
// returned unchanged; failures never leave Get, they degrade to returning key.
func (s *Store) Get(ctx context.Context, key string) string {
	return s.Lookup(ctx, key).Value
}

// Lookup is Get with the outcome spelled out.
func (s *Store) Lookup(ctx context.Context, key string) Result {
	if s.passThrough || key == "" {
		return Result{Value: key}
	}

	normalized := normalize(key)

	s.mu.Lock()
	if value, ok := s.translations[normalized]; ok {
		s.mu.Unlock()
		return Result{Value: value, Found: true}
	}

	s.translations[normalized] = key
	s.dirty[normalized] = false

	onDisk, err := s.persistLocked(ctx)
	_, existed := onDisk[normalized]
	value, inserted := s.translations[normalized], !existed
	s.mu.Unlock()

	if err != nil {
		util.Log(ctx).WithError(err).
			WithField("path", s.path).
			WithField("key", key).
			Warn("translation lookup fell back to the key")
		return Result{Value: key, Err: err}
	}

	if !inserted {
		return Result{Value: value, Found: true}
	}

	missingKeyCounter.Add(ctx, 1, storeAttributes(s))
	s.notify(ctx, key, normalized)

	return Result{Value: key, Inserted: true}
}

// Set stores value under key in memory; Save writes it out. A key already present is
// overwritten in place.
func (s *Store) Set(key, value string) {
	if s.passThrough || key == "" {
		return
	}

	normalized := normalize(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.translations[normalized] = value
	s.dirty[normalized] = true
}

// Save rewrites the resource file in ascending key order. Keys another store wrote to the
// same file since this one loaded it are kept; keys set here win over them.
func (s *Store) Save(ctx context.Context) error {
	if s.passThrough {
		return nil
	}

	ctx, span := startSpan(ctx, "translation.Save", s)

	s.mu.Lock()
	_, err := s.persistLocked(ctx)
	s.mu.Unlock()

	endSpan(span, err)
	return err
}

// Reload discards unsaved changes and reads the resource file again.
func (s *Store) Reload(ctx context.Context) error {
	if s.passThrough {
		return nil
	}

	ctx, span := startSpan(ctx, "translation.Reload", s)
	err := s.load(ctx)
	endSpan(span, err)
	return err
}

// LoadAll returns a copy of every translation held by the store.
func (s *Store) LoadAll() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.translations)
}

// Entries returns the translations sorted by key.
func (s *Store) Entries() []Entry {
	all := s.LoadAll()

	entries := make([]Entry, 0, len(all))
	for _, key := range slices.Sorted(maps.Keys(all)) {
		entries = append(entries, Entry{Key: key, Value: all[key]})
	}
	return entries
}

// load reads the resource file under the path lock, seeding it when it is empty. Locks are
// taken in the same order as persistLocked: s.mu first, then the path lock.
func (s *Store) load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pathLock := s.locks.For(s.path)
	pathLock.Lock()
	defer pathLock.Unlock()

	if err := ensureFile(s.path); err != nil {
		return err
	}

	data, err := readFile(s.path)
	if err != nil {
		return err
	}

	var translations map[string]string
	if isBlank(data) {
		translations = map[string]string{
			SeedKeyFileName: s.fileName,
			SeedKeyType:     s.owner.Type.Name,
		}

		data, err = encode(translations)
		if err != nil {
			return fmt.Errorf("%w: encode seed of %s: %w", ErrResourceIO, s.path, err)
		}
		if err = writeFile(s.path, data); err != nil {
			persistFailCounter.Add(ctx, 1, storeAttributes(s))
			return err
		}

		util.Log(ctx).WithField("path", s.path).Debug("created translation resource file")
	} else {
		translations, err = decode(data)
		if err != nil {
			return fmt.Errorf("%s: %w", s.path, err)
		}
	}

	s.translations = translations
	s.dirty = map[string]bool{}

	return nil
}

// persistLocked merges the in-memory changes into the current file content and writes the
// result. It returns the file content it merged with. The caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context) (map[string]string, error) {
	pathLock := s.locks.For(s.path)
	pathLock.Lock()
	defer pathLock.Unlock()

	merged, onDisk, err := s.mergeWithDisk()
	if err != nil {
		persistFailCounter.Add(ctx, 1, storeAttributes(s))
		return nil, err
	}

	data, err := encode(merged)
	if err != nil {
		persistFailCounter.Add(ctx, 1, storeAttributes(s))
		return nil, fmt.Errorf("%w: encode %s: %w", ErrResourceIO, s.path, err)
	}

	if err = writeFile(s.path, data); err != nil {
		persistFailCounter.Add(ctx, 1, storeAttributes(s))
		return nil, err
	}

	s.translations = merged
	s.dirty = map[string]bool{}
	return onDisk, nil
}

func (s *Store) mergeWithDisk() (map[string]string, map[string]string, error) {
	data, err := readFile(s.path)
	if err != nil {
		return nil, nil, err
	}

	merged := maps.Clone(s.translations)
	if isBlank(data) {
		return merged, nil, nil
	}

	onDisk, err := decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s.path, err)
	}

	for key, value := range onDisk {
		if explicit, changed := s.dirty[key]; changed && explicit {
			continue
		}
		merged[key] = value
	}
	return merged, onDisk, nil
}

func (s *Store) notify(ctx context.Context, key, normalized string) {
	if s.notifier == nil {
		return
	}

	event := MissingKey{
		Unit:       s.owner.Unit.Name,
		Owner:      s.owner.Type.Name,
		Culture:    s.cultureCode,
		Key:        key,
		Normalized: normalized,
		Path:       s.path,
		OccurredAt: time.Now().UTC(),
	}

	if err := s.notifier.NotifyMissingKey(ctx, event); err != nil {
		util.Log(ctx).WithError(err).WithField("key", key).Warn("could not report missing translation key")
	}
}

func normalize(key string) string {
	return strings.ToLower(key)
}
