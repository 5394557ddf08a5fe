// Package catalog walks the asset namespace of a store one record at a time.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dev-tams/assetsweep/internal/asset"
	"github.com/dev-tams/assetsweep/internal/compression"
	"github.com/dev-tams/assetsweep/internal/storage"
)

// Reader is the read side of storage.Store.
type Reader interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

type Record struct {
	Key   string
	Asset *asset.Asset
}

// ListError marks a failure to enumerate the namespace. Nothing has been
// scanned when it is returned.
type ListError struct {
	Prefix string
	Err    error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list assets under %q: %v", e.Prefix, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

type Stats struct {
	Listed  int
	Scanned int
	// Skipped counts keys whose value was missing, null or malformed.
	Skipped int
}

// Scan lists keys under prefix and calls fn for every record that decodes.
// Gzip-compressed values are inflated first. Unreadable records are skipped. An error from fn or a cancelled context
// stops the scan.
func Scan(ctx context.Context, r Reader, prefix string, log zerolog.Logger, fn func(Record) error) (Stats, error) {
	var st Stats

	keys, err := r.List(ctx, prefix)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return st, ctxErr
		}
		return st, &ListError{Prefix: prefix, Err: err}
	}
	st.Listed = len(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		raw, err := r.Get(ctx, key)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return st, ctxErr
			}
			st.Skipped++
			if errors.Is(err, storage.ErrNotFound) {
				log.Debug().Str("key", key).Msg("scan: key vanished, skipped")
			} else {
				log.Warn().Err(err).Str("key", key).Msg("scan: read failed, skipped")
			}
			continue
		}

		raw, err = compression.Inflate(raw)
		if err != nil {
			st.Skipped++
			log.Debug().Err(err).Str("key", key).Msg("scan: corrupt compressed record, skipped")
			continue
		}

		a, err := asset.Decode(raw)
		if err != nil {
			st.Skipped++
			log.Debug().Err(err).Str("key", key).Msg("scan: unreadable record, skipped")
			continue
		}

		st.Scanned++
		if err := fn(Record{Key: key, Asset: a}); err != nil {
			return st, err
		}
	}
	return st, nil
}
