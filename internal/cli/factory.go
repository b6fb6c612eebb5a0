// Package cli assembles editors from the configuration file with the
// conventions shared by every command.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/adapters/file"
	redisstore "github.com/aretw0/flowcanvas/internal/adapters/redis"
	"github.com/aretw0/flowcanvas/internal/config"
	"github.com/aretw0/flowcanvas/pkg/adapters/catalog"
	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	redislock "github.com/aretw0/flowcanvas/pkg/adapters/redis"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/aretw0/flowcanvas/pkg/persistence/middleware"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// Stack is the set of adapters described by a configuration.
type Stack struct {
	Config  config.Config
	Store   ports.SnapshotStore
	Locker  ports.DistributedLocker
	Catalog ports.DefinitionCatalog
	Metrics *observability.Metrics
	Logger  *slog.Logger

	closers []func() error
}

// Build validates cfg and opens the adapters it names.
func Build(cfg config.Config, logger *slog.Logger) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Stack{
		Config:  cfg,
		Metrics: observability.NewMetrics(),
		Logger:  logger,
	}

	store, err := s.openStore()
	if err != nil {
		return nil, err
	}
	s.Store, err = s.wrapStore(store)
	if err != nil {
		s.Close()
		return nil, err
	}

	if cfg.Catalog.Path != "" {
		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		s.Catalog = cat
		logger.Debug("catalog loaded", "path", cfg.Catalog.Path)
	} else {
		s.Catalog, _ = memory.NewCatalog()
	}
	return s, nil
}

func (s *Stack) openStore() (ports.SnapshotStore, error) {
	cfg := s.Config.Store
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendFile:
		return file.New(cfg.Path), nil
	case config.BackendRedis:
		ttl, err := s.Config.RedisTTL()
		if err != nil {
			return nil, err
		}
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, client.Close)

		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = redisstore.DefaultPrefix
		}
		if cfg.Lock {
			s.Locker = redislock.NewLocker(client, prefix)
		}
		return redisstore.NewFromClient(client, redisstore.WithPrefix(prefix), redisstore.WithTTL(ttl)), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// wrapStore applies redaction before encryption, so secrets never reach the
// ciphertext either.
func (s *Stack) wrapStore(store ports.SnapshotStore) (ports.SnapshotStore, error) {
	var mws []middleware.Middleware
	if len(s.Config.Security.Redact) > 0 {
		mws = append(mws, middleware.NewRedactMiddleware(s.Config.Security.Redact))
	}
	key, err := s.Config.EncryptionKey()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(store, mws...), nil
}

// NewEditor opens an editor on docID, or on the configured document when
// docID is empty.
func (s *Stack) NewEditor(docID string) (*flowcanvas.Editor, error) {
	if docID == "" {
		docID = s.Config.Document
	}
	opts := []flowcanvas.Option{
		flowcanvas.WithStore(s.Store),
		flowcanvas.WithCatalog(s.Catalog),
		flowcanvas.WithMetrics(s.Metrics),
		flowcanvas.WithHistorySize(s.Config.History.MaxSize),
		flowcanvas.WithLogger(s.Logger),
	}
	if s.Locker != nil {
		opts = append(opts, flowcanvas.WithLocker(s.Locker))
	}
	return flowcanvas.New(docID, opts...)
}

// Close releases connections opened by Build.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
