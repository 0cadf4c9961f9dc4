package backend

import (
	"context"
	"fmt"

	applog "tithe/internal/log"
	"tithe/internal/storage"
	"tithe/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	version, _, err := storage.SchemaVersion(config.SQLiteDBPath)
	if err != nil {
		f.logger.WarnContext(ctx, "Could not read schema version", "error", err)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"schema_version", version)

	return &BackendResult{
		Type:     SQLiteBackend,
		Members:  repo.Members(),
		Payments: repo.Payments(),
		Ping:     repo.Ping,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var (
		members  *memory.MemberRepository
		payments *memory.PaymentRepository
	)
	if config.DataDirectory == "" {
		members = memory.NewMemberRepository()
		payments = memory.NewPaymentRepository()
	} else {
		var err error
		members, payments, err = memory.NewFromFiles(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory backend seed: %w", err)
		}
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", config.DataDirectory)

	return &BackendResult{
		Type:     MemoryBackend,
		Members:  members,
		Payments: payments,
		Ping:     func(context.Context) error { return nil },
	}, nil
}
