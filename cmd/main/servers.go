package main

import (
	"context"
	"fmt"
	"time"

	datasource "market-collector/src/data_source"
	"market-collector/src/grpc_control"
	"market-collector/src/interfaces"
	"market-collector/src/models"
	"market-collector/src/scheduler"
	"market-collector/src/server"
	"market-collector/src/utils"
)

const taskCleanupInterval = 5 * time.Minute

// -----------------------------------------------------------------------------

// startServers starts the HTTP API, the gRPC control server, the scheduler and
// the task janitor. The returned func stops them all.
func startServers(ctx context.Context, a *app) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	// 1. HTTP API + task stream
	var api interfaces.IDataExchanger = server.NewAPIServer(a.Config.MConfig, a.Logger.Named("APIServer"), a.Orch, a.Tasks, a.Providers, a.Registry)
	go func() {
		if err := api.Start(); err != nil {
			a.Logger.Critical("Server failed: %v", err)
		}
	}()

	// 2. gRPC Control Server
	var grpcSrv *grpc_control.Server
	if a.Config.GrpcPort != 0 {
		build := func(sc models.MSourceConfig) (interfaces.IDataProvider, error) {
			return datasource.BuildSource(sc, a.Network, a.Metrics)
		}
		svc := grpc_control.NewControlService(a.Config, a.ConfigPath, a.Orch, a.Tasks, a.Providers, build, a.Logger.Named("ControlService"))
		grpcSrv = grpc_control.NewServer(fmt.Sprintf("%s:%d", a.Config.GrpcHost, a.Config.GrpcPort), svc, a.Logger.Named("gRPC"))
		go func() {
			if err := grpcSrv.Start(); err != nil {
				a.Logger.Critical("failed to serve gRPC: %v", err)
			}
		}()
	}

	// 3. Scheduled refreshes
	jobs, err := scheduler.JobsFromConfig(a.Config.Schedules)
	if err != nil {
		cancel()
		api.Stop()
		return nil, err
	}
	gate := utils.NewMarketScheduler([]string{utils.DefaultMIC, utils.MICForExchange("szse")}, a.Logger.Named("MarketScheduler"))
	go scheduler.New(jobs, a.Orch, a.Tasks, gate, a.Logger.Named("Scheduler")).Run(ctx)

	// 4. Finished task cleanup
	go a.Tasks.RunCleanup(ctx, taskCleanupInterval)

	return func() {
		cancel()
		if grpcSrv != nil {
			grpcSrv.Stop()
		}
		if err := api.Stop(); err != nil {
			a.Logger.Error("Server shutdown: %v", err)
		}
	}, nil
}
