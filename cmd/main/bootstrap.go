package main

import (
	"context"
	"fmt"

	"market-collector/src/collections"
	"market-collector/src/config"
	datasource "market-collector/src/data_source"
	"market-collector/src/handlers"
	"market-collector/src/interfaces"
	"market-collector/src/legacy"
	"market-collector/src/logger"
	"market-collector/src/metrics"
	"market-collector/src/network"
	"market-collector/src/orchestrator"
	"market-collector/src/persistence"
	"market-collector/src/resolver"
	"market-collector/src/storage"
	"market-collector/src/tasks"
	"market-collector/src/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds every wired component of one process.
type app struct {
	Config     *config.Config
	ConfigPath string
	Logger     *logger.Logger

	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Store       interfaces.IStore
	Persistence *persistence.Persistence
	Network     *network.AsyncNetworkManager
	Providers   *datasource.ProviderManager
	Tasks       *tasks.Manager
	Calendar    *utils.TradingCalendar
	Orch        *orchestrator.Orchestrator
}

// -----------------------------------------------------------------------------

// bootstrap wires config -> logger -> store -> persistence -> providers ->
// tasks -> handlers -> resolver -> legacy -> orchestrator.
func bootstrap(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return nil, err
	}
	appLogger := logger.NewLogger(cfg.MConfig, cfg.Name)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, err := storage.NewStore(cfg.MConfig, appLogger.Named("Storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	p := persistence.New(store, cfg.Storage.TimestampField,
		persistence.WithMetrics(m),
		persistence.WithLogger(appLogger.Named("Persistence")),
	)

	netMgr := network.NewAsyncNetworkManager(cfg.Network, appLogger.Named("Network"))
	providers, err := datasource.FromConfig(cfg.DataSource, netMgr, m, appLogger.Named("ProviderManager"))
	if err != nil {
		store.Close()
		return nil, err
	}

	tm := tasks.NewManager(cfg.TaskRetention(), appLogger.Named("Tasks"), tasks.WithMetrics(m))
	calendar := utils.GetCalendar(utils.DefaultMIC)
	registry := collections.Default()

	deps := handlers.Deps{
		Registry:    registry,
		Persistence: p,
		Provider:    providers,
		Tracker:     tm,
		Calendar:    calendar,
		Pool:        handlers.Pool{Concurrency: cfg.Batch.Concurrency, Delay: cfg.BatchDelay()},
		Logger:      appLogger.Named("Handlers"),
	}
	res := resolver.New(handlers.Catalog(deps), appLogger.Named("Resolver"))
	legacySvc := legacy.NewOptionDataService(p, providers, calendar, appLogger.Named("Legacy"))

	orch := orchestrator.New(registry, res, p,
		orchestrator.WithLegacy(legacySvc),
		orchestrator.WithTracker(tm),
		orchestrator.WithMetrics(m),
		orchestrator.WithLogger(appLogger.Named("Orchestrator")),
	)

	return &app{
		Config:      cfg,
		ConfigPath:  configPath,
		Logger:      appLogger,
		Registry:    reg,
		Metrics:     m,
		Store:       store,
		Persistence: p,
		Network:     netMgr,
		Providers:   providers,
		Tasks:       tm,
		Calendar:    calendar,
		Orch:        orch,
	}, nil
}

// -----------------------------------------------------------------------------

func (a *app) Close() {
	a.Orch.Wait()
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("Failed to close store: %v", err)
	}
	logger.Sync()
}
