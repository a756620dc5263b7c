package langstore

import "context"

// WithModules registers plugin modules. They are initialized by Start.
func WithModules(modules ...Module) Option {
	return func(_ context.Context, s *Service) {
		for _, module := range modules {
			if err := s.modules.Register(module); err != nil {
				s.addSetupError(err)
			}
		}
	}
}
