// Package handlers implements the per-collection update handlers: fetch from a
// data provider, normalize into records and persist idempotently.
package handlers

import (
	"time"

	"market-collector/src/collections"
	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/persistence"
	"market-collector/src/utils"
)

const DefaultConcurrency = 3

// Pool bounds batch sub-requests.
type Pool struct {
	Concurrency int
	Delay       time.Duration // Minimum spacing between provider calls
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	Registry    *collections.Registry
	Persistence *persistence.Persistence
	Provider    interfaces.IDataProvider
	Tracker     interfaces.ITaskTracker
	Calendar    *utils.TradingCalendar
	Pool        Pool
	Logger      *logger.Logger
	Now         func() time.Time
}

// -----------------------------------------------------------------------------

func (d Deps) withDefaults() Deps {
	if d.Registry == nil {
		d.Registry = collections.Default()
	}
	if d.Calendar == nil {
		d.Calendar = utils.GetCalendar(utils.DefaultMIC)
	}
	if d.Pool.Concurrency < 1 {
		d.Pool.Concurrency = DefaultConcurrency
	}
	if d.Logger == nil {
		d.Logger = logger.NewNopLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
