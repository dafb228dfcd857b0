package backend

import (
	"fmt"
	"time"

	"expenseadvisor/internal/config"
)

// BackendType names a session store implementation.
type BackendType string

const (
	MemoryBackend BackendType = config.BackendMemory
	SQLiteBackend BackendType = config.BackendSQLite
)

func (t BackendType) IsValid() bool {
	return t == MemoryBackend || t == SQLiteBackend
}

// Config holds configuration for backend creation
type Config struct {
	Type        BackendType
	SQLiteDSN   string
	SessionTTL  time.Duration
	MaxSessions int

	// Events are published only when AMQPURL is set
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	AMQPWait     time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.SessionBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.SessionBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDSN:    appConfig.SQLiteDSN,
		SessionTTL:   appConfig.SessionTTL,
		MaxSessions:  appConfig.MaxSessions,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		AMQPWait:     10 * time.Second,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Type == MemoryBackend && c.MaxSessions < 1 {
		return fmt.Errorf("max sessions must be at least 1 for memory backend")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}
