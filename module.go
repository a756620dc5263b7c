package langstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/pitabwire/langstore/scope"
)

// ModuleStatus represents the current state of a module.
type ModuleStatus string

const (
	ModuleStatusUnloaded    ModuleStatus = "unloaded"
	ModuleStatusInitialized ModuleStatus = "initialized"
	ModuleStatusError       ModuleStatus = "error"
)

// Module is a plugin whose translations live in its own resource files.
type Module interface {
	// Name is the package name used in resource file names, e.g. "Blog".
	Name() string

	// Version returns the module version.
	Version() string

	// Dir is the directory the module is deployed to.
	Dir() string

	// Dependencies lists the names of modules that must be initialized first.
	Dependencies() []string

	// Initialize prepares the module. Request handlers of the module are usually declared
	// here through Service.Scopes.
	Initialize(ctx context.Context, svc *Service) error
}

// UnitPather is implemented by modules whose unit key differs from their Go import path.
type UnitPather interface {
	UnitPath() string
}

// ModuleRef returns the type reference a module is registered under.
func ModuleRef(module Module) scope.TypeRef {
	ref := scope.TypeOfValue(reflect.TypeOf(module))
	if up, ok := module.(UnitPather); ok && up.UnitPath() != "" {
		ref.Unit = up.UnitPath()
	}
	return ref
}

// ModuleRegistry keeps the modules of a service and initializes them in dependency order.
type ModuleRegistry struct {
	// initMutex serializes Initialize runs; mutex only guards the maps below.
	initMutex sync.Mutex

	mutex   sync.RWMutex
	modules map[string]Module
	order   []string
	status  map[string]ModuleStatus
}

// NewModuleRegistry creates a new module registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		modules: make(map[string]Module),
		status:  make(map[string]ModuleStatus),
	}
}

// Register adds a module to the registry.
func (r *ModuleRegistry) Register(module Module) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := module.Name()
	if name == "" {
		return fmt.Errorf("module %s has no name", ModuleRef(module))
	}
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module %s is already registered", name)
	}

	r.modules[name] = module
	r.order = append(r.order, name)
	r.status[name] = ModuleStatusUnloaded
	return nil
}

// Get retrieves a module by name, returns nil if not found.
func (r *ModuleRegistry) Get(name string) Module {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.modules[name]
}

// List returns module names in registration order.
func (r *ModuleRegistry) List() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Status returns the state of the named module.
func (r *ModuleRegistry) Status(name string) ModuleStatus {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	status, ok := r.status[name]
	if !ok {
		return ModuleStatusUnloaded
	}
	return status
}

// Initialize registers every module's unit with the scope registry and initializes the
// modules once all of their dependencies are initialized. Modules may use the registry from
// their own Initialize.
func (r *ModuleRegistry) Initialize(ctx context.Context, svc *Service) error {
	r.initMutex.Lock()
	defer r.initMutex.Unlock()

	r.mutex.RLock()
	order := make([]string, len(r.order))
	copy(order, r.order)
	modules := make(map[string]Module, len(r.modules))
	initialized := make(map[string]bool)
	for _, name := range order {
		modules[name] = r.modules[name]
		if r.status[name] == ModuleStatusInitialized {
			initialized[name] = true
		}
	}
	r.mutex.RUnlock()

	for len(initialized) < len(modules) {
		progress := false

		for _, name := range order {
			if initialized[name] {
				continue
			}
			module := modules[name]

			canInitialize := true
			for _, dep := range module.Dependencies() {
				if !initialized[dep] {
					canInitialize = false
					break
				}
			}
			if !canInitialize {
				continue
			}

			if err := r.initializeModule(ctx, svc, module); err != nil {
				r.setStatus(name, ModuleStatusError)
				return fmt.Errorf("failed to initialize module %s: %w", name, err)
			}

			r.setStatus(name, ModuleStatusInitialized)
			initialized[name] = true
			progress = true
		}

		if !progress {
			return fmt.Errorf("circular dependency detected or missing dependencies")
		}
	}

	return nil
}

func (r *ModuleRegistry) setStatus(name string, status ModuleStatus) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.status[name] = status
}

func (r *ModuleRegistry) initializeModule(ctx context.Context, svc *Service, module Module) error {
	ref := ModuleRef(module)

	err := svc.Scopes().AddUnit(scope.Unit{Path: ref.Unit, Name: module.Name(), Dir: module.Dir()})
	if err != nil {
		return err
	}

	if err = svc.Scopes().Declare(ref, scope.CapabilityModule); err != nil {
		return err
	}

	if err = module.Initialize(ctx, svc); err != nil {
		return err
	}

	svc.Log(ctx).
		WithField("module", module.Name()).
		WithField("version", module.Version()).
		Debug("module initialized")
	return nil
}
