package translation_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/langstore/scope"
	"github.com/pitabwire/langstore/translation"
)

const blogUnitPath = "example.com/plugins/blog"

var (
	blogModule     = scope.TypeRef{Unit: blogUnitPath, Name: "BlogModule"}
	postController = scope.TypeRef{Unit: blogUnitPath, Name: "PostController"}
)

// StoreTestSuite exercises the store against a plugin unit deployed in a temporary directory.
type StoreTestSuite struct {
	suite.Suite

	dir      string
	registry *scope.Registry
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{})
}

func (s *StoreTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.registry = scope.NewRegistry()

	s.Require().NoError(s.registry.AddUnit(scope.Unit{Path: blogUnitPath, Name: "Blog", Dir: s.dir}))
	s.Require().NoError(s.registry.Declare(postController, scope.CapabilityRequestHandler))
	s.Require().NoError(s.registry.Declare(blogModule, scope.CapabilityModule))
}

func (s *StoreTestSuite) open(culture string, opts ...translation.Option) *translation.Store {
	store, err := translation.Open(s.T().Context(), s.registry, postController, culture, opts...)
	s.Require().NoError(err)
	return store
}

func (s *StoreTestSuite) resourcePath(culture string) string {
	return filepath.Join(s.dir, "Resources", "Blog."+culture+".lang")
}

func (s *StoreTestSuite) TestPassThrough() {
	for _, culture := range []string{"", "en", "EN"} {
		s.Run("culture "+culture, func() {
			ctx := s.T().Context()
			store := s.open(culture)

			s.True(store.PassThrough())
			s.Equal("Hello World", store.Get(ctx, "Hello World"))

			store.Set("Hello World", "Bonjour")
			s.Equal("Hello World", store.Get(ctx, "Hello World"))
			s.Empty(store.LoadAll())
			s.Empty(store.Path())
			s.Require().NoError(store.Save(ctx))
			s.Require().NoError(store.Reload(ctx))

			s.NoDirExists(filepath.Join(s.dir, "Resources"))
		})
	}
}

func (s *StoreTestSuite) TestPassThroughSkipsResolution() {
	store, err := translation.Open(s.T().Context(), scope.NewRegistry(), scope.TypeRef{Unit: "nowhere", Name: "X"}, "en")
	s.Require().NoError(err)
	s.True(store.PassThrough())
}

func (s *StoreTestSuite) TestConstructionSeedsFile() {
	store := s.open("fr")

	s.Equal(s.resourcePath("fr"), store.Path())
	s.Equal("Blog.fr.lang", store.FileName())
	s.Equal("BlogModule", store.Owner().Type.Name)
	s.Equal("fr", store.CultureCode())
	s.Equal(map[string]string{"FileName": "Blog.fr.lang", "Type": "BlogModule"}, store.LoadAll())

	data, err := os.ReadFile(store.Path())
	s.Require().NoError(err)
	goldie.New(s.T()).Assert(s.T(), "seed_file", data)
}

func (s *StoreTestSuite) TestBlankFileIsSeeded() {
	s.Require().NoError(os.MkdirAll(filepath.Dir(s.resourcePath("fr")), 0o755))
	s.Require().NoError(os.WriteFile(s.resourcePath("fr"), []byte("  \n"), 0o644))

	store := s.open("fr")
	s.Equal("Blog.fr.lang", store.LoadAll()["FileName"])
}

func (s *StoreTestSuite) TestCaseNormalization() {
	ctx := s.T().Context()
	store := s.open("fr")

	store.Set("Hello", "X")
	s.Equal("X", store.Get(ctx, "hello"))
	s.Equal("X", store.Get(ctx, "HELLO"))

	store.Set("HELLO", "Y")
	s.Equal("Y", store.Get(ctx, "Hello"))
	s.Equal("Y", store.LoadAll()["hello"])
}

func (s *StoreTestSuite) TestSelfHealingInsert() {
	ctx := s.T().Context()
	store := s.open("fr")

	res := store.Lookup(ctx, "Greeting")
	s.Equal("Greeting", res.Value)
	s.True(res.Inserted)
	s.Require().NoError(res.Err)

	res = store.Lookup(ctx, "greeting")
	s.True(res.Found)
	s.Equal("Greeting", res.Value)

	reopened := s.open("fr")
	s.Equal("Greeting", reopened.LoadAll()["greeting"])
}

func (s *StoreTestSuite) TestEmptyKey() {
	ctx := s.T().Context()
	store := s.open("fr")

	s.Empty(store.Get(ctx, ""))
	store.Set("", "value")
	s.NotContains(store.LoadAll(), "")
}

func (s *StoreTestSuite) TestRoundTrip() {
	ctx := s.T().Context()
	store := s.open("de")

	store.Set("Save", "Speichern")
	store.Set("Cancel", "Abbrechen")
	s.Require().NoError(store.Save(ctx))

	reopened := s.open("de")
	s.Equal("Speichern", reopened.Get(ctx, "save"))
	s.Equal("Abbrechen", reopened.Get(ctx, "CANCEL"))
}

func (s *StoreTestSuite) TestSetDoesNotPersist() {
	ctx := s.T().Context()
	store := s.open("fr")

	store.Set("draft", "Brouillon")

	reopened := s.open("fr")
	s.NotContains(reopened.LoadAll(), "draft")

	s.Require().NoError(store.Reload(ctx))
	s.NotContains(store.LoadAll(), "draft")
}

func (s *StoreTestSuite) TestDeterministicOrdering() {
	store := s.open("fr")

	store.Set("zebra", "Zèbre")
	store.Set("Mango <b>", "Mangue & co")
	store.Set("apple", "Pomme")
	s.Require().NoError(store.Save(s.T().Context()))

	data, err := os.ReadFile(store.Path())
	s.Require().NoError(err)
	goldie.New(s.T()).Assert(s.T(), "ordered_file", data)

	entries := store.Entries()
	for i := 1; i < len(entries); i++ {
		s.Less(entries[i-1].Key, entries[i].Key)
	}
}

func (s *StoreTestSuite) TestLoadAllReturnsCopy() {
	ctx := s.T().Context()
	store := s.open("fr")

	all := store.LoadAll()
	all["injected"] = "value"
	delete(all, "FileName")

	s.NotContains(store.LoadAll(), "injected")
	s.Contains(store.LoadAll(), "FileName")
	s.Equal("injected", store.Get(ctx, "injected"))
}

func (s *StoreTestSuite) TestCorruptFileFailsLoudly() {
	for name, content := range map[string]string{
		"invalid json":       "{not json",
		"missing object":     "{}",
		"null translations":  `{"Translations": null}`,
		"wrong value shapes": `{"Translations": {"a": ["b"]}}`,
	} {
		s.Run(name, func() {
			path := s.resourcePath("fr")
			s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
			s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

			_, err := translation.Open(s.T().Context(), s.registry, postController, "fr")
			s.Require().ErrorIs(err, translation.ErrResourceCorrupt)
			s.NotErrorIs(err, translation.ErrResourceIO)

			data, readErr := os.ReadFile(path)
			s.Require().NoError(readErr)
			s.Equal(content, string(data), "corrupt files are left for manual repair")
		})
	}
}

func (s *StoreTestSuite) TestUnwritableResourcesDirectory() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "Resources"), []byte("not a directory"), 0o644))

	_, err := translation.Open(s.T().Context(), s.registry, postController, "fr")
	s.Require().ErrorIs(err, translation.ErrResourceIO)
	s.NotErrorIs(err, translation.ErrResourceCorrupt)
}

func (s *StoreTestSuite) TestGetNeverFails() {
	ctx := s.T().Context()
	store := s.open("fr")

	s.Require().NoError(os.RemoveAll(filepath.Join(s.dir, "Resources")))
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "Resources"), []byte("blocked"), 0o644))

	res := store.Lookup(ctx, "Unreachable")
	s.Equal("Unreachable", res.Value)
	s.False(res.Inserted)
	s.Require().ErrorIs(res.Err, translation.ErrResourceIO)

	s.Equal("Other", store.Get(ctx, "Other"))
	s.Require().ErrorIs(store.Save(ctx), translation.ErrResourceIO)
}

func (s *StoreTestSuite) TestNoOwnerFound() {
	reg := scope.NewRegistry()
	s.Require().NoError(reg.AddUnit(scope.Unit{Path: "example.com/plain", Name: "Plain", Dir: s.dir}))
	s.Require().NoError(reg.Declare(scope.TypeRef{Unit: "example.com/plain", Name: "Helper"}, 0))

	_, err := translation.Open(s.T().Context(), reg, scope.TypeRef{Unit: "example.com/plain", Name: "Helper"}, "fr")
	s.Require().ErrorIs(err, scope.ErrNoOwnerFound)
	s.NoDirExists(filepath.Join(s.dir, "Resources"))
}

func (s *StoreTestSuite) TestInvalidCulture() {
	for _, culture := range []string{"../fr", "fr/CA", " fr"} {
		_, err := translation.Open(s.T().Context(), s.registry, postController, culture)
		s.Require().ErrorIs(err, translation.ErrInvalidCulture, culture)
	}
}

func (s *StoreTestSuite) TestStoresSharingAFileKeepEachOthersInserts() {
	ctx := s.T().Context()
	first := s.open("fr")
	second := s.open("fr")

	s.Equal("alpha", first.Get(ctx, "alpha"))
	s.Equal("beta", second.Get(ctx, "beta"))

	reopened := s.open("fr")
	s.Contains(reopened.LoadAll(), "alpha")
	s.Contains(reopened.LoadAll(), "beta")
	s.Contains(second.LoadAll(), "alpha", "save adopts keys written by other stores")
}

func (s *StoreTestSuite) TestPlaceholderDoesNotOverwriteTranslation() {
	ctx := s.T().Context()
	translator := s.open("fr")
	reader := s.open("fr")

	translator.Set("Title", "Titre")
	s.Require().NoError(translator.Save(ctx))

	res := reader.Lookup(ctx, "Title")
	s.Equal("Titre", res.Value)
	s.False(res.Inserted)

	s.Equal("Titre", s.open("fr").Get(ctx, "title"))
}

func (s *StoreTestSuite) TestExplicitSetWinsOverDisk() {
	ctx := s.T().Context()
	first := s.open("fr")
	second := s.open("fr")

	first.Set("title", "Titre")
	s.Require().NoError(first.Save(ctx))

	second.Set("title", "Intitulé")
	s.Require().NoError(second.Save(ctx))

	s.Equal("Intitulé", s.open("fr").Get(ctx, "title"))
}

func (s *StoreTestSuite) TestConcurrentMisses() {
	ctx := s.T().Context()
	const workers = 8

	stores := make([]*translation.Store, workers)
	for i := range stores {
		stores[i] = s.open("fr")
	}

	var wg sync.WaitGroup
	for i, store := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i))
			store.Get(ctx, key)
			store.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	all := s.open("fr").LoadAll()
	for i := range workers {
		s.Contains(all, string(rune('a'+i)))
	}
	s.Equal("shared", all["shared"])
}

func (s *StoreTestSuite) TestConcurrentMissOfSameKeyReportedOnce() {
	ctx := s.T().Context()
	const workers = 8

	var (
		mu     sync.Mutex
		events []translation.MissingKey
	)
	notifier := translation.MissingKeyNotifierFunc(func(_ context.Context, event translation.MissingKey) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		return nil
	})

	locks := translation.NewLocks()
	stores := make([]*translation.Store, workers)
	for i := range stores {
		stores[i] = s.open("fr", translation.WithNotifier(notifier), translation.WithLocks(locks))
	}

	results := make([]translation.Result, workers)
	var wg sync.WaitGroup
	for i, store := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = store.Lookup(ctx, "Read more")
		}()
	}
	wg.Wait()

	inserted := 0
	for _, res := range results {
		s.NoError(res.Err)
		s.Equal("Read more", res.Value)
		if res.Inserted {
			inserted++
		} else {
			s.True(res.Found)
		}
	}
	s.Equal(1, inserted)
	s.Len(events, 1)
}

func (s *StoreTestSuite) TestNotifier() {
	ctx := s.T().Context()

	var (
		mu     sync.Mutex
		events []translation.MissingKey
	)
	notifier := translation.MissingKeyNotifierFunc(func(_ context.Context, event translation.MissingKey) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		return nil
	})

	store := s.open("fr", translation.WithNotifier(notifier), translation.WithLocks(translation.NewLocks()))
	store.Get(ctx, "New Key")
	store.Get(ctx, "new key")
	store.Set("other", "Autre")
	store.Get(ctx, "other")

	s.Require().Len(events, 1)
	s.Equal("New Key", events[0].Key)
	s.Equal("new key", events[0].Normalized)
	s.Equal("Blog", events[0].Unit)
	s.Equal("BlogModule", events[0].Owner)
	s.Equal("fr", events[0].Culture)
	s.Equal(store.Path(), events[0].Path)
	s.False(events[0].OccurredAt.IsZero())
}

func (s *StoreTestSuite) TestEndToEnd() {
	ctx := s.T().Context()

	store := s.open("fr")
	s.FileExists(filepath.Join(s.dir, "Resources", "Blog.fr.lang"))
	s.Contains(store.LoadAll(), "FileName")
	s.Contains(store.LoadAll(), "Type")

	s.Equal("post title", store.Get(ctx, "post title"))
	s.Equal("post title", s.open("fr").LoadAll()["post title"])

	store.Set("post title", "Titre de l'article")
	s.Require().NoError(store.Save(ctx))

	fresh := s.open("fr")
	s.Equal("Titre de l'article", fresh.Get(ctx, "post title"))
	s.Equal("Titre de l'article", fresh.Get(ctx, "Post Title"))
}
