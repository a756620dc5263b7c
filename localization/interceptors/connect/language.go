package connect

import (
	"context"

	"connectrpc.com/connect"

	"github.com/pitabwire/langstore/localization"
)

// NewLanguageInterceptor puts the Accept-Language preferences of unary requests into the
// handler context.
func NewLanguageInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if l := localization.ExtractLanguageFromHTTPHeader(req.Header()); l != nil {
				ctx = localization.ToContext(ctx, l)
			}

			return next(ctx, req)
		}
	}
}
