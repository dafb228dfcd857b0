// Package backend wires a session store and an optional event publisher
// into a LedgerService according to configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	"expenseadvisor/internal/amqp"
	applog "expenseadvisor/internal/log"
	"expenseadvisor/internal/services"
	"expenseadvisor/internal/sessions"
	"expenseadvisor/internal/sessions/memory"
	"expenseadvisor/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the service and the function releasing its resources.
type BackendResult struct {
	Service *services.LedgerService
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentSession),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{}
	if publisher := f.createPublisher(ctx, config); publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}

	svc := services.NewLedgerService(store, opts...)
	return &BackendResult{
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (sessions.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSessionStore(config.SQLiteDSN, config.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite session store: %w", err)
		}
		dsn := config.SQLiteDSN
		if dsn == "" {
			dsn = storage.DefaultDSN
		}
		f.logger.Info("Initialized SQLite session store", "dsn", dsn, "session_ttl", config.SessionTTL,
			"schema_version", store.SchemaVersion())
		return store, nil

	case MemoryBackend:
		store := memory.New(memory.Config{
			MaxSessions: config.MaxSessions,
			IdleTTL:     config.SessionTTL,
		}, memory.WithEvictHook(func(id string) {
			f.logger.Debug("Session evicted", applog.FieldSessionID, id)
		}))
		f.logger.Info("Initialized memory session store",
			"max_sessions", config.MaxSessions,
			"session_ttl", config.SessionTTL)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createPublisher connects to the broker when configured. A broker that
// cannot be reached disables events instead of failing startup.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}

	wait := config.AMQPWait
	if wait <= 0 {
		wait = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	client, err := amqp.WaitReady(cctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WithComponent(applog.ComponentAMQP).Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		return nil
	}

	f.logger.WithComponent(applog.ComponentAMQP).Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
