package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"market-collector/src/data_source/aktools"
	"market-collector/src/helpers"
	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/metrics"
	"market-collector/src/models"
)

// ProviderManager aggregates the configured providers and routes each provider
// function to one of them. Functions without a route go to the primary provider,
// which is the first one added.
type ProviderManager struct {
	Logger *logger.Logger

	mu      sync.RWMutex
	sources map[string]interfaces.IDataProvider
	order   []string
	routes  map[string]string // function prefix -> provider name
}

// -----------------------------------------------------------------------------

func NewProviderManager(sources []interfaces.IDataProvider, log *logger.Logger) *ProviderManager {
	if log == nil {
		log = logger.NewLogger(nil, "ProviderManager")
	}
	m := &ProviderManager{
		Logger:  log,
		sources: make(map[string]interfaces.IDataProvider),
		routes:  make(map[string]string),
	}
	for _, s := range sources {
		if err := m.AddSource(s); err != nil {
			m.Logger.Warning("Skipping provider: %v", err)
		}
	}
	return m
}

// -----------------------------------------------------------------------------

// FromConfig builds one provider per configured source.
func FromConfig(cfg models.MDataSourceConfig, netMgr interfaces.INetworkManager, m *metrics.Metrics, log *logger.Logger) (*ProviderManager, error) {
	pm := NewProviderManager(nil, log)
	for _, sc := range cfg.Sources {
		src, err := BuildSource(sc, netMgr, m)
		if err != nil {
			return nil, err
		}
		if err := pm.AddSource(src); err != nil {
			return nil, helpers.NewConfigurationError("invalid data_source section", err)
		}
	}
	return pm, nil
}

// BuildSource creates the provider described by one source entry.
func BuildSource(sc models.MSourceConfig, netMgr interfaces.INetworkManager, m *metrics.Metrics) (interfaces.IDataProvider, error) {
	if strings.TrimSpace(sc.Name) == "" {
		return nil, helpers.NewConfigurationError("source name cannot be empty", nil)
	}
	switch strings.ToLower(sc.Type) {
	case "aktools", "":
		return aktools.NewSource(sc, netMgr, m), nil
	}
	return nil, helpers.NewConfigurationError(fmt.Sprintf("source %s has unsupported type %q", sc.Name, sc.Type), nil)
}

// -----------------------------------------------------------------------------

// AddSource registers a provider under its name.
func (m *ProviderManager) AddSource(source interfaces.IDataProvider) error {
	if source == nil {
		return fmt.Errorf("nil source")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	name := source.Name()
	if _, exists := m.sources[name]; exists {
		return fmt.Errorf("source %s already exists", name)
	}

	m.sources[name] = source
	m.order = append(m.order, name)
	m.Logger.Info("Added source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// RemoveSource drops a provider and every route pointing to it.
func (m *ProviderManager) RemoveSource(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}

	delete(m.sources, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	for prefix, target := range m.routes {
		if target == name {
			delete(m.routes, prefix)
		}
	}
	m.Logger.Info("Removed source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

func (m *ProviderManager) GetSource(name string) (interfaces.IDataProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	source, exists := m.sources[name]
	if !exists {
		return nil, fmt.Errorf("source %s not found", name)
	}
	return source, nil
}

// -----------------------------------------------------------------------------

// ListSources returns the provider names in the order they were added.
func (m *ProviderManager) ListSources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// -----------------------------------------------------------------------------

// Route sends every function starting with prefix to the named provider.
func (m *ProviderManager) Route(prefix, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}
	m.routes[prefix] = name
	return nil
}

// -----------------------------------------------------------------------------

func (m *ProviderManager) Name() string {
	return "ProviderManager"
}

// -----------------------------------------------------------------------------

// Fetch forwards the call to the provider routed for function.
func (m *ProviderManager) Fetch(ctx context.Context, function string, params map[string]string) (models.MProviderResult, error) {
	src, err := m.pick(function)
	if err != nil {
		return models.MProviderResult{}, err
	}
	return src.Fetch(ctx, function, params)
}

// pick uses the longest matching route prefix.
func (m *ProviderManager) pick(function string) (interfaces.IDataProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefixes := make([]string, 0, len(m.routes))
	for p := range m.routes {
		if strings.HasPrefix(function, p) {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) > 0 {
		sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
		return m.sources[m.routes[prefixes[0]]], nil
	}

	if len(m.order) == 0 {
		return nil, helpers.NewConfigurationError("no data provider configured", nil)
	}
	return m.sources[m.order[0]], nil
}
