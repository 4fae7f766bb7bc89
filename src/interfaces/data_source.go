package interfaces

import (
	"context"

	"market-collector/src/models"
)

// -----------------------------------------------------------------------------
// IDataProvider is the outbound contract towards an external market-data provider.
// -----------------------------------------------------------------------------

type IDataProvider interface {

	// Name returns the unique identifier of the provider
	Name() string

	// -----------------------------------------------------------------------------

	// Fetch calls a named provider function with keyword params.
	// The result is either a row-set or a plain list of scalar values.
	Fetch(ctx context.Context, function string, params map[string]string) (models.MProviderResult, error)
}
