package datasource

import (
	"context"
	"sort"
	"sync"

	"github.com/ekaya-inc/author-merge/pkg/config"
)

// DatasourceAdapterInfo describes a registered adapter.
type DatasourceAdapterInfo struct {
	Type        string // "mysql", "postgres", "sqlserver", "sqlite"
	DisplayName string // "MySQL", "Microsoft SQL Server"
	Description string
}

// HandleFactory opens one connection pool from the database section of the config.
type HandleFactory func(ctx context.Context, cfg config.DatabaseConfig) (Handle, error)

// DatasourceAdapterRegistration contains info, dialect and handle factory for one store type.
type DatasourceAdapterRegistration struct {
	Info          DatasourceAdapterInfo
	Dialect       Dialect
	HandleFactory HandleFactory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DatasourceAdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg DatasourceAdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []DatasourceAdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasourceAdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetHandleFactory returns the handle factory for a datasource type.
// Returns nil if type is not registered.
func GetHandleFactory(dsType string) HandleFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dsType]; ok {
		return reg.HandleFactory
	}
	return nil
}

// GetDialect returns the dialect for a datasource type.
// Returns nil if type is not registered.
func GetDialect(dsType string) Dialect {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dsType]; ok {
		return reg.Dialect
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(dsType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dsType]
	return ok
}
