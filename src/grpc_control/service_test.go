package grpc_control

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"market-collector/src/collections"
	"market-collector/src/config"
	datasource "market-collector/src/data_source"
	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/models"
	"market-collector/src/orchestrator"
	"market-collector/src/persistence"
	"market-collector/src/resolver"
	"market-collector/src/storage"
	"market-collector/src/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type namedProvider string

func (p namedProvider) Name() string { return string(p) }
func (p namedProvider) Fetch(context.Context, string, map[string]string) (models.MProviderResult, error) {
	return models.MProviderResult{}, nil
}

type doneHandler struct{}

func (doneHandler) Name() string { return "X" }
func (doneHandler) UpdateSingle(context.Context, models.MParams, string) (models.MUpdateResult, error) {
	return models.Success("ok", 2), nil
}
func (doneHandler) UpdateBatch(context.Context, models.MParams, string) (models.MUpdateResult, error) {
	return models.Success("ok", 2), nil
}
func (doneHandler) Clear(context.Context) (int64, error)            { return 0, nil }
func (doneHandler) Overview(context.Context) (int64, string, error) { return 0, "", nil }

type harness struct {
	client *ControlClient
	orch   *orchestrator.Orchestrator
	cfg    *config.Config
	path   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	registry := collections.New([]models.MCollectionDescriptor{
		{Name: "X", DisplayName: "X data", SingleUpdate: models.MUpdateModeConfig{Enabled: true}},
	})
	res := resolver.New([]resolver.Declaration{{
		Name:    "X",
		Factory: func() (interfaces.IUpdateHandler, error) { return doneHandler{}, nil },
	}}, nil)
	tm := tasks.NewManager(time.Hour, nil)
	orch := orchestrator.New(registry, res, persistence.New(storage.NewMemoryStore(), ""), orchestrator.WithTracker(tm))

	providers := datasource.NewProviderManager([]interfaces.IDataProvider{namedProvider("aktools")}, logger.NewNopLogger())
	cfg := &config.Config{MConfig: &models.MConfig{
		Name: "collector",
		DataSource: models.MDataSourceConfig{Sources: []models.MSourceConfig{
			{Name: "aktools", Type: "aktools", BaseURL: "http://127.0.0.1:8080"},
		}},
	}}
	path := filepath.Join(t.TempDir(), "config.yaml")
	build := func(sc models.MSourceConfig) (interfaces.IDataProvider, error) { return namedProvider(sc.Name), nil }

	svc := NewControlService(cfg, path, orch, tm, providers, build, logger.NewNopLogger())
	srv := NewServer("bufnet", svc, logger.NewNopLogger())

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &harness{client: NewControlClient(conn), orch: orch, cfg: cfg, path: path}
}

// -----------------------------------------------------------------------------

func TestRefreshAndGetTask(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.client.Call(ctx, "RefreshCollection", map[string]any{
		"collection": "X",
		"params":     map[string]any{"symbol": "10002530"},
	})
	require.NoError(t, err)
	assert.Equal(t, true, out["success"])
	id, _ := out["task_id"].(string)
	require.NotEmpty(t, id)

	h.orch.Wait()
	task, err := h.client.Call(ctx, "GetTask", map[string]any{"task_id": id})
	require.NoError(t, err)
	assert.Equal(t, "completed", task["status"])
	assert.Equal(t, 2.0, task["result"].(map[string]any)["count"])
}

func TestRefreshErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Call(ctx, "RefreshCollection", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.Call(ctx, "RefreshCollection", map[string]any{"collection": "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.Call(ctx, "RefreshCollection", map[string]any{"collection": "X", "mode": "hourly"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.Call(ctx, "GetTask", map[string]any{"task_id": "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListCollections(t *testing.T) {
	h := newHarness(t)
	out, err := h.client.Call(context.Background(), "ListCollections", map[string]any{})
	require.NoError(t, err)

	list := out["collections"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "X", list[0].(map[string]any)["name"])
}

func TestProviderManagement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.client.Call(ctx, "AddSource", map[string]any{"name": "backup", "type": "aktools", "base_url": "http://127.0.0.1:8081"})
	require.NoError(t, err)
	assert.Equal(t, true, out["success"])

	_, err = h.client.Call(ctx, "AddSource", map[string]any{"name": "backup", "base_url": "http://127.0.0.1:8081"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	out, err = h.client.Call(ctx, "ListProviders", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []any{"aktools", "backup"}, out["providers"])

	saved, err := os.ReadFile(h.path)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "base_url: http://127.0.0.1:8081")
	assert.Len(t, h.cfg.DataSource.Sources, 2)

	out, err = h.client.Call(ctx, "RemoveSource", map[string]any{"name": "aktools"})
	require.NoError(t, err)
	assert.Equal(t, true, out["success"])
	assert.Len(t, h.cfg.DataSource.Sources, 1)

	out, err = h.client.Call(ctx, "RemoveSource", map[string]any{"name": "aktools"})
	require.NoError(t, err)
	assert.Equal(t, false, out["success"])
}
