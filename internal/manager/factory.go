package manager

import (
	"context"
	"fmt"
)

// Routes maps an algorithm id or family name to the factory that builds it.
// Algorithm ids take precedence over families.
type Routes map[string]ProviderFactory

// RouteFactory returns a ProviderFactory that dispatches on r.Algorithm, then
// r.Family, then fallback. A nil fallback fails unrouted algorithms.
func RouteFactory(routes Routes, fallback ProviderFactory) ProviderFactory {
	return func(ctx context.Context, r Recipe) (Provider, error) {
		if f, ok := routes[r.Algorithm]; ok && f != nil {
			return f(ctx, r)
		}
		if f, ok := routes[string(r.Family)]; ok && f != nil {
			return f(ctx, r)
		}
		if fallback != nil {
			return fallback(ctx, r)
		}
		return nil, fmt.Errorf("no backend configured for %s", r.Algorithm)
	}
}
