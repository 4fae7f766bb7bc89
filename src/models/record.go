package models

// MRecord is one normalized document, stored verbatim.
type MRecord map[string]any

// MParams is the opaque name -> value mapping passed through to handlers.
type MParams map[string]string

// -----------------------------------------------------------------------------

// Clone returns a shallow copy of the record.
func (r MRecord) Clone() MRecord {
	out := make(MRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------

// Get returns the value of a param, empty when absent.
func (p MParams) Get(name string) string {
	if p == nil {
		return ""
	}
	return p[name]
}

// Missing lists the names whose values are absent or empty.
func (p MParams) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if p.Get(n) == "" {
			missing = append(missing, n)
		}
	}
	return missing
}

// With returns a copy of the params with extra values set.
func (p MParams) With(kv map[string]string) MParams {
	out := make(MParams, len(p)+len(kv))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range kv {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------

// MProviderResult is what a data provider returns: either a row-set or a plain
// list of scalar values (identifiers, months, ...).
type MProviderResult struct {
	Rows   []MRecord
	Values []any
}

// Empty reports whether the provider returned nothing.
func (r MProviderResult) Empty() bool {
	return len(r.Rows) == 0 && len(r.Values) == 0
}

// Strings returns the scalar values formatted as strings.
func (r MProviderResult) Strings() []string {
	out := make([]string, 0, len(r.Values))
	for _, v := range r.Values {
		out = append(out, ScalarString(v))
	}
	return out
}

// -----------------------------------------------------------------------------
// Store operations
// -----------------------------------------------------------------------------

// MSortField orders a find by one field; Descending flips the order.
type MSortField struct {
	Field      string
	Descending bool
}

// MFindOptions configures a find against the store.
type MFindOptions struct {
	Filter MRecord
	Sort   []MSortField
	Skip   int64
	Limit  int64
	// Newest breaks ties (or orders unsorted results) by latest insertion first.
	Newest bool
}

// MUpdateOutcome mirrors the result of a single upsert.
type MUpdateOutcome struct {
	Matched  int64
	Modified int64
	Upserted bool
}

// MWriteOp is one operation of a bulk write: an upsert when Filter is non-empty,
// a plain insert otherwise.
type MWriteOp struct {
	Filter MRecord
	Doc    MRecord
}

// MBulkOutcome aggregates a bulk write.
type MBulkOutcome struct {
	Inserted int64
	Matched  int64
	Modified int64
}

// MUpsertSummary is returned by the persistence contract.
type MUpsertSummary struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Add accumulates another summary.
func (s *MUpsertSummary) Add(o MUpsertSummary) {
	s.Inserted += o.Inserted
	s.Updated += o.Updated
	s.Unchanged += o.Unchanged
}
