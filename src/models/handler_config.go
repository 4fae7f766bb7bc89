package models

// MHandlerConfig is the immutable wiring of one collection handler: which
// provider function it calls, how request params map onto provider kwargs and
// record fields, and which fields identify a record.
type MHandlerConfig struct {
	Collection string
	Function   string   // Provider function; defaults to Collection
	UniqueKeys []string // Empty means plain inserts

	// Params the single update needs; defaults to the required params of the
	// collection's single mode.
	Params []string

	// Kwargs maps provider kwarg -> request param. When nil every entry of
	// Params is passed under its own name.
	Kwargs map[string]string

	// Translate rewrites kwarg values: kwarg -> request value -> provider value.
	Translate map[string]map[string]string

	// Fixed kwargs sent on every call.
	Fixed map[string]string

	// Attach copies request params into every record: field -> request param.
	Attach map[string]string

	// AttachKwargs copies final provider kwargs into every record: field -> kwarg.
	AttachKwargs map[string]string

	// Batch pool overrides; zero uses the shared defaults.
	Concurrency int
	DelayMs     int
}

// -----------------------------------------------------------------------------

// ProviderFunction returns the provider function name.
func (c MHandlerConfig) ProviderFunction() string {
	if c.Function != "" {
		return c.Function
	}
	return c.Collection
}
