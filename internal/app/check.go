package app

import (
	"context"
	"fmt"

	"github.com/dev-tams/assetsweep/internal/config"
)

type CheckResult struct {
	Store  string `json:"store"`
	Prefix string `json:"prefix"`
	Keys   int    `json:"keys"`
}

// Check opens the store and lists the asset prefix without reading records.
func Check(ctx context.Context, cfg *config.Config, rt Runtime) (*CheckResult, error) {
	st, err := rt.open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer rt.closeStore(st)

	keys, err := st.List(ctx, cfg.Store.Prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list %q: %w", ErrStoreUnavailable, cfg.Store.Prefix, err)
	}

	rt.Log.Info().Str("store", st.Name()).Str("prefix", cfg.Store.Prefix).Int("keys", len(keys)).Msg("store reachable")
	return &CheckResult{Store: st.Name(), Prefix: cfg.Store.Prefix, Keys: len(keys)}, nil
}
