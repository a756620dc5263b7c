package scope

import "errors"

// ErrNoOwnerFound is returned when neither a module nor a request handler is declared in
// the unit of the requested type.
var ErrNoOwnerFound = errors.New("no resource owner found")
