package grpc_control

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"market-collector/src/config"
	datasource "market-collector/src/data_source"
	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/models"
	"market-collector/src/orchestrator"
	"market-collector/src/tasks"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// SourceBuilder creates a provider from a source entry.
type SourceBuilder func(models.MSourceConfig) (interfaces.IDataProvider, error)

// ControlService implements ControlServer on top of the orchestrator, the
// task manager and the provider manager.
type ControlService struct {
	Config     *config.Config
	ConfigPath string
	Orch       *orchestrator.Orchestrator
	Tasks      *tasks.Manager
	Providers  *datasource.ProviderManager
	Build      SourceBuilder
	Logger     *logger.Logger

	cfgMu sync.Mutex
}

var _ ControlServer = (*ControlService)(nil)

// NewControlService creates a new instance of ControlService
func NewControlService(
	cfg *config.Config,
	cfgPath string,
	orch *orchestrator.Orchestrator,
	tm *tasks.Manager,
	providers *datasource.ProviderManager,
	build SourceBuilder,
	log *logger.Logger,
) *ControlService {
	if log == nil {
		log = logger.NewLogger(nil, "ControlService")
	}
	return &ControlService{
		Config:     cfg,
		ConfigPath: cfgPath,
		Orch:       orch,
		Tasks:      tm,
		Providers:  providers,
		Build:      build,
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

// RefreshCollection expects {collection, mode, params} and answers {success, task_id}.
func (s *ControlService) RefreshCollection(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()
	name := str(fields, "collection")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "collection is required")
	}
	if _, ok := s.Orch.GetCollectionConfig(name); !ok {
		return nil, status.Errorf(codes.NotFound, "unknown collection: %s", name)
	}

	modeStr := str(fields, "mode")
	if modeStr == "" {
		modeStr = string(models.ModeSingle)
	}
	mode, err := orchestrator.ParseMode(modeStr)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	params := models.MParams{}
	if raw, ok := fields["params"].(map[string]any); ok {
		for k, v := range raw {
			params[k] = models.ScalarString(v)
		}
	}

	task, err := s.Orch.RefreshAsync(ctx, s.Tasks, name, mode, params)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.Logger.Info("gRPC: refresh of %s (%s) queued as task %s", name, mode, task.ID)
	return toStruct(map[string]any{"success": true, "task_id": task.ID})
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListCollections(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(map[string]any{"collections": s.Orch.ListSupportedCollections()})
}

// -----------------------------------------------------------------------------

// GetTask expects {task_id} and answers with the task.
func (s *ControlService) GetTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := str(req.AsMap(), "task_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "task_id is required")
	}
	task, ok := s.Tasks.Get(id)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "task %s not found", id)
	}
	return toStruct(task)
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListProviders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(map[string]any{"providers": s.Providers.ListSources()})
}

// -----------------------------------------------------------------------------

// AddSource expects {name, type, base_url} and persists the new source.
func (s *ControlService) AddSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()
	sourceCfg := models.MSourceConfig{
		Name:    str(fields, "name"),
		Type:    str(fields, "type"),
		BaseURL: str(fields, "base_url"),
	}
	if sourceCfg.Name == "" || sourceCfg.BaseURL == "" {
		return nil, status.Error(codes.InvalidArgument, "name and base_url are required")
	}
	if _, err := s.Providers.GetSource(sourceCfg.Name); err == nil {
		return nil, status.Errorf(codes.AlreadyExists, "source %s already exists", sourceCfg.Name)
	}

	src, err := s.Build(sourceCfg)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Providers.AddSource(src); err != nil {
		s.Logger.Error("Failed to add source: %v", err)
		return toStruct(map[string]any{"success": false, "message": fmt.Sprintf("Failed to add source: %v", err)})
	}

	s.updateConfig(func(c *config.Config) {
		c.DataSource.Sources = append(c.DataSource.Sources, sourceCfg)
	})
	return toStruct(map[string]any{"success": true, "message": fmt.Sprintf("Added source %s", sourceCfg.Name)})
}

// -----------------------------------------------------------------------------

// RemoveSource expects {name}.
func (s *ControlService) RemoveSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := str(req.AsMap(), "name")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	if err := s.Providers.RemoveSource(name); err != nil {
		return toStruct(map[string]any{"success": false, "message": fmt.Sprintf("Failed to remove source: %v", err)})
	}

	s.updateConfig(func(c *config.Config) {
		kept := []models.MSourceConfig{}
		for _, src := range c.DataSource.Sources {
			if src.Name != name {
				kept = append(kept, src)
			}
		}
		c.DataSource.Sources = kept
	})
	return toStruct(map[string]any{"success": true, "message": fmt.Sprintf("Removed source %s", name)})
}

// -----------------------------------------------------------------------------

// updateConfig applies fn in memory and writes the file when a path is known.
func (s *ControlService) updateConfig(fn func(*config.Config)) {
	if s.Config == nil {
		return
	}
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	fn(s.Config)
	if s.ConfigPath == "" {
		return
	}
	if err := s.Config.Save(s.ConfigPath); err != nil {
		s.Logger.Error("gRPC: failed to save config: %v", err)
	}
}

// -----------------------------------------------------------------------------

func str(fields map[string]any, key string) string {
	return models.ScalarString(fields[key])
}

// toStruct converts any JSON-encodable value to a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
