// Package badger stores asset records as values in a BadgerDB keyspace.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/dev-tams/assetsweep/internal/storage"
)

type Options struct {
	Name     string
	Path     string
	InMemory bool
}

type Storage struct {
	name string
	db   *badger.DB
	owns bool
}

// Open opens (or creates) the database at opt.Path, or an in-memory one.
func Open(opt Options) (*Storage, error) {
	var bopts badger.Options
	if opt.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opt.Path == "" {
			return nil, fmt.Errorf("badger: path is required")
		}
		if err := os.MkdirAll(opt.Path, 0o755); err != nil {
			return nil, fmt.Errorf("badger: create dir: %w", err)
		}
		bopts = badger.DefaultOptions(opt.Path)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	return &Storage{name: opt.Name, db: db, owns: true}, nil
}

// Wrap uses an already opened database. Close leaves it open.
func Wrap(name string, db *badger.DB) *Storage {
	return &Storage{name: name, db: db}
}

func (s *Storage) Name() string { return s.name }

// DB exposes the underlying handle, mainly for seeding and maintenance tools.
func (s *Storage) DB() *badger.DB { return s.db }

func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: list %q: %w", prefix, err)
	}
	return keys, nil
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("badger: get %s: %w", key, err)
	}
	return out, nil
}

// Put writes a raw value. The cleanup engine never calls it; it exists for seeding.
func (s *Storage) Put(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *Storage) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger: delete %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Close() error {
	if s.db == nil || !s.owns {
		return nil
	}
	return s.db.Close()
}
