package geography

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rep-ingest/internal/model"
)

// ChainResolver tries each resolver in order. A not-found outcome moves on to
// the next resolver; any other error is returned immediately.
type ChainResolver struct {
	resolvers []Resolver
}

// NewChainResolver creates a resolver that consults resolvers in order.
func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{resolvers: resolvers}
}

// Resolve implements Resolver.
func (c *ChainResolver) Resolve(ctx context.Context, zip string) (*model.Geography, error) {
	if err := ValidateZIP(zip); err != nil {
		return nil, err
	}
	for i, r := range c.resolvers {
		geo, err := r.Resolve(ctx, zip)
		if err == nil {
			return geo, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
		zap.L().Debug("geography resolver miss", zap.String("zip", zip), zap.Int("resolver", i))
	}
	return nil, eris.Wrapf(ErrNotFound, "geography: %s", zip)
}
