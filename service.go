// Package langstore wires plugin modules, scope resolution and translation stores into a
// service that hands out per-module, per-culture translators.
package langstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pitabwire/util"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pitabwire/langstore/config"
	"github.com/pitabwire/langstore/events"
	"github.com/pitabwire/langstore/localization"
	"github.com/pitabwire/langstore/scope"
	"github.com/pitabwire/langstore/translation"
	"github.com/pitabwire/langstore/workerpool"
)

type contextKey string

func (c contextKey) String() string {
	return "langstore/" + string(c)
}

const ctxKeyService = contextKey("serviceKey")

// Service holds together the components serving translations. One instance is expected to
// live for the lifetime of the application.
type Service struct {
	name          string
	configuration any
	logger        *util.LogEntry
	logOptions    []util.Option

	scopes  *scope.Registry
	modules *ModuleRegistry
	locks   *translation.Locks

	stores  *lru.Cache[string, *translation.Store]
	opening singleflight.Group

	publisher   *events.Publisher
	eventsMutex sync.RWMutex
	pool        workerpool.WorkerPool
	notifier    *events.AsyncNotifier

	setupErrors []error
	stopMutex   sync.Mutex
}

type Option func(ctx context.Context, service *Service)

// NewService creates a new instance of Service with the name and supplied options.
func NewService(name string, opts ...Option) (context.Context, *Service) {
	return NewServiceWithContext(context.Background(), name, opts...)
}

// NewServiceWithContext creates a new instance of Service with context, name and supplied
// options. Option failures are reported by Start.
func NewServiceWithContext(ctx context.Context, name string, opts ...Option) (context.Context, *Service) {
	defaultLogger := util.Log(ctx)
	ctx = util.ContextWithLogger(ctx, defaultLogger)

	defaultCfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		defaultLogger.WithError(err).Warn("could not read configuration from environment, using defaults")
	}

	service := &Service{
		name:    name,
		logger:  defaultLogger,
		scopes:  scope.NewRegistry(),
		modules: NewModuleRegistry(),
		locks:   translation.NewLocks(),
	}

	// environment defaults first so explicit options override them
	opts = append([]Option{WithConfig(&defaultCfg)}, opts...)
	service.Init(ctx, opts...)

	if service.stores == nil {
		WithStoreCacheSize(0)(ctx, service)
	}

	ctx = SvcToContext(ctx, service)
	ctx = config.ToContext(ctx, service.Config())
	ctx = util.ContextWithLogger(ctx, service.logger)
	return ctx, service
}

// SvcToContext pushes a service instance into the supplied context for easier propagation.
func SvcToContext(ctx context.Context, service *Service) context.Context {
	return context.WithValue(ctx, ctxKeyService, service)
}

// Svc obtains a service instance being propagated through the context.
func Svc(ctx context.Context) *Service {
	service, ok := ctx.Value(ctxKeyService).(*Service)
	if !ok {
		return nil
	}

	return service
}

// Name gets the name of the service.
func (s *Service) Name() string {
	return s.name
}

// WithName specifies the name the service will utilize.
func WithName(name string) Option {
	return func(_ context.Context, s *Service) {
		s.name = name
	}
}

// Init evaluates the options provided as arguments and supplies them to the service object.
func (s *Service) Init(ctx context.Context, opts ...Option) {
	for _, opt := range opts {
		opt(ctx, s)
	}
}

func (s *Service) addSetupError(err error) {
	s.setupErrors = append(s.setupErrors, err)
}

// Scopes is the capability table used to resolve owners.
func (s *Service) Scopes() *scope.Registry {
	return s.scopes
}

// Modules is the plugin registry of the service.
func (s *Service) Modules() *ModuleRegistry {
	return s.modules
}

// Localization returns a manager translating through this service's stores.
func (s *Service) Localization() localization.Manager {
	return localization.NewManager(s)
}

// Start initializes the missing key publisher and every registered module.
func (s *Service) Start(ctx context.Context) error {
	if len(s.setupErrors) > 0 {
		return errors.Join(s.setupErrors...)
	}

	if s.publisher != nil {
		if err := s.startMissingKeyEvents(ctx); err != nil {
			return err
		}
	}

	if err := s.modules.Initialize(ctx, s); err != nil {
		return err
	}

	s.Log(ctx).WithField("modules", s.modules.List()).Info("translation service started")
	return nil
}

func (s *Service) startMissingKeyEvents(ctx context.Context) error {
	if err := s.publisher.Init(ctx); err != nil {
		return fmt.Errorf("could not open missing key topic %s: %w", s.publisher.URL(), err)
	}

	poolOpts := []workerpool.Option{workerpool.WithPoolLogger(s.logger)}
	retries := 0
	if cfg, ok := s.Config().(config.ConfigurationWorkerPool); ok {
		poolOpts = append(poolOpts,
			workerpool.WithSinglePoolCapacity(cfg.GetCapacity()),
			workerpool.WithPoolCount(cfg.GetCount()),
			workerpool.WithPoolExpiryDuration(cfg.GetExpiryDuration()))
	}
	if cfg, ok := s.Config().(config.ConfigurationEvents); ok {
		retries = cfg.GetEventsRetries()
	}

	s.eventsMutex.Lock()
	defer s.eventsMutex.Unlock()

	if s.pool != nil {
		return nil
	}

	pool, err := workerpool.New(ctx, poolOpts...)
	if err != nil {
		return fmt.Errorf("could not create missing key worker pool: %w", err)
	}

	s.pool = pool
	s.notifier = events.NewAsyncNotifier(pool, s.publisher, events.WithRetries(retries))
	return nil
}

// Stop drops cached stores, waits for queued missing key events and shuts the publisher
// down. Stores already handed out stay usable.
func (s *Service) Stop(ctx context.Context) error {
	s.stopMutex.Lock()
	defer s.stopMutex.Unlock()

	s.stores.Purge()

	s.eventsMutex.Lock()
	pool, notifier := s.pool, s.notifier
	s.pool, s.notifier = nil, nil
	s.eventsMutex.Unlock()

	var errs []error
	if notifier != nil {
		if err := notifier.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("missing key events still pending: %w", err))
		}
	}
	if pool != nil {
		if err := pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// storeOptions hands every store the same forwarding notifier, so stores opened before
// Start or kept across a restart report to whichever notifier is current.
func (s *Service) storeOptions() []translation.Option {
	opts := []translation.Option{translation.WithLocks(s.locks)}
	if s.publisher != nil {
		opts = append(opts, translation.WithNotifier(missingKeyForwarder{svc: s}))
	}
	return opts
}

// missingKeyForwarder passes events to the service's current async notifier. Events raised
// while missing key delivery is not running are dropped.
type missingKeyForwarder struct {
	svc *Service
}

func (f missingKeyForwarder) NotifyMissingKey(ctx context.Context, event translation.MissingKey) error {
	// held while queueing so Stop cannot close the notifier under us
	f.svc.eventsMutex.RLock()
	defer f.svc.eventsMutex.RUnlock()

	if f.svc.notifier == nil {
		util.Log(ctx).WithField("key", event.Key).Debug("missing key event raised while events are stopped")
		return nil
	}
	return f.svc.notifier.NotifyMissingKey(ctx, event)
}

// Translator returns the store of the owner of ownerType for cultureCode. Stores are cached
// per resource file, so callers asking for the same file share one handle.
func (s *Service) Translator(ctx context.Context, ownerType scope.TypeRef, cultureCode string) (*translation.Store, error) {
	if translation.IsBaseLocale(cultureCode) {
		return translation.Open(ctx, s.scopes, ownerType, cultureCode, s.storeOptions()...)
	}

	owner, err := s.scopes.Resolve(ownerType)
	if err != nil {
		return nil, err
	}

	path := translation.ResourcePath(owner, cultureCode)
	if store, ok := s.stores.Get(path); ok {
		return store, nil
	}

	v, err, _ := s.opening.Do(path, func() (any, error) {
		if store, ok := s.stores.Get(path); ok {
			return store, nil
		}

		store, openErr := translation.OpenOwner(ctx, owner, cultureCode, s.storeOptions()...)
		if openErr != nil {
			return nil, openErr
		}

		s.stores.Add(path, store)
		return store, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*translation.Store), nil
}

// Preload opens the store of every registered module for cultureCode, reporting every
// module whose resource file could not be loaded.
func (s *Service) Preload(ctx context.Context, cultureCode string) error {
	concurrency := 0
	if cfg, ok := s.Config().(config.ConfigurationStore); ok {
		concurrency = cfg.PreloadConcurrency()
	}

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	for _, name := range s.modules.List() {
		module := s.modules.Get(name)
		g.Go(func() error {
			if _, err := s.Translator(ctx, ModuleRef(module), cultureCode); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("module %s: %w", name, err))
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()

	if len(errs) > 0 {
		s.Log(ctx).WithField("culture", cultureCode).WithField("failures", len(errs)).
			Error("could not preload translation stores")
	}
	return errors.Join(errs...)
}
