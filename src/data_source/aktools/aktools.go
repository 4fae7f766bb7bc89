// Package aktools talks to an AKTools HTTP bridge, which exposes every
// provider function at /api/public/<function> and answers with JSON.
package aktools

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"market-collector/src/helpers"
	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/metrics"
	"market-collector/src/models"
)

const publicPath = "/api/public/"

// Source implements interfaces.IDataProvider on top of a network manager.
type Source struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
	metrics      *metrics.Metrics
}

// -----------------------------------------------------------------------------

func NewSource(cfg models.MSourceConfig, netMgr interfaces.INetworkManager, m *metrics.Metrics) *Source {
	return &Source{
		SourceConfig: cfg,
		Network:      netMgr,
		Logger:       logger.NewLogger(nil, "AKTools-"+cfg.Name),
		metrics:      m,
	}
}

// -----------------------------------------------------------------------------

func (s *Source) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// Fetch calls function with params as query arguments.
func (s *Source) Fetch(ctx context.Context, function string, params map[string]string) (models.MProviderResult, error) {
	res, err := s.fetch(ctx, function, params)
	s.metrics.ObserveProvider(s.Name(), err)
	return res, err
}

func (s *Source) fetch(ctx context.Context, function string, params map[string]string) (models.MProviderResult, error) {
	if function == "" {
		return models.MProviderResult{}, helpers.NewValidationError("provider function name is empty")
	}
	query := make(map[string]string, len(params)+1)
	for k, v := range params {
		query[k] = v
	}
	if s.SourceConfig.APIKey != "" {
		query["token"] = s.SourceConfig.APIKey
	}

	url := strings.TrimRight(s.SourceConfig.BaseURL, "/") + publicPath + function
	s.Logger.Debug("GET %s %v", function, params)

	body, err := s.Network.Get(ctx, url, query)
	if err != nil {
		return models.MProviderResult{}, helpers.NewProviderError(function+" request failed", err)
	}

	res, err := Decode(body)
	if err != nil {
		return models.MProviderResult{}, helpers.NewProviderError(function+" returned an unreadable body", err)
	}
	return res, nil
}

// -----------------------------------------------------------------------------

// Decode maps an AKTools payload onto a provider result. An array of objects
// becomes rows; an array of scalars (or a tuple) and a single scalar become
// values; a lone object becomes one row. null and an empty body mean no data.
func Decode(body []byte) (models.MProviderResult, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return models.MProviderResult{}, nil
	}

	raw, err := models.DecodeJSON(body)
	if err != nil {
		return models.MProviderResult{}, err
	}

	switch v := raw.(type) {
	case nil:
		return models.MProviderResult{}, nil
	case map[string]any:
		return models.MProviderResult{Rows: []models.MRecord{v}}, nil
	case []any:
		return decodeArray(v)
	default:
		return models.MProviderResult{Values: []any{v}}, nil
	}
}

func decodeArray(items []any) (models.MProviderResult, error) {
	if len(items) == 0 {
		return models.MProviderResult{}, nil
	}
	if _, isRow := items[0].(map[string]any); isRow {
		rows := make([]models.MRecord, 0, len(items))
		for i, it := range items {
			row, ok := it.(map[string]any)
			if !ok {
				return models.MProviderResult{}, fmt.Errorf("item %d is %T in a row-set", i, it)
			}
			rows = append(rows, row)
		}
		return models.MProviderResult{Rows: rows}, nil
	}
	for i, it := range items {
		switch it.(type) {
		case map[string]any, []any:
			return models.MProviderResult{}, fmt.Errorf("item %d is %T in a value list", i, it)
		}
	}
	return models.MProviderResult{Values: items}, nil
}
