package storage

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strings"

	"market-collector/src/models"
)

var collectionNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// -----------------------------------------------------------------------------

// ValidateCollection rejects names that cannot be used as a table name.
func ValidateCollection(name string) error {
	if !collectionNameRe.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}

// -----------------------------------------------------------------------------

// normalize round-trips a document through JSON so that values compare the way
// they will once stored (numbers as float64 or json.Number, nested structs as maps).
func normalize(doc models.MRecord) (models.MRecord, error) {
	if doc == nil {
		return models.MRecord{}, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return decode(raw)
}

// -----------------------------------------------------------------------------

func decode(raw []byte) (models.MRecord, error) {
	v, err := models.DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode document: %T is not an object", v)
	}
	return doc, nil
}

// -----------------------------------------------------------------------------

// merge applies $set semantics: every key of set overwrites base.
func merge(base, set models.MRecord) models.MRecord {
	out := base.Clone()
	for k, v := range set {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------

// sameDocument compares two normalized documents. json.Marshal sorts map keys,
// so the encoded form is canonical.
func sameDocument(a, b models.MRecord) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ra) == string(rb)
}

// -----------------------------------------------------------------------------

// matches reports whether every filter field equals the document field.
// Both sides must be normalized.
func matches(doc, filter models.MRecord) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !sameValue(got, want) {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------

func sameValue(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ra) == string(rb)
}

// -----------------------------------------------------------------------------

// compareValues orders JSON values: null < numbers < strings < bools < others.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case float64, json.Number:
		fa, fb := number(a), number(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, b.(string))
	case bool:
		y := b.(bool)
		if x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	}
	return 0
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case float64, json.Number:
		return 1
	case string:
		return 2
	case bool:
		return 3
	}
	return 4
}

func number(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case json.Number:
		f, _ := t.Float64()
		return f
	}
	return 0
}

// -----------------------------------------------------------------------------

// sortedKeys returns filter keys in a stable order for query building.
func sortedKeys(r models.MRecord) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keySetHash names the index of one key set.
func keySetHash(keys []string) uint32 {
	h := fnv.New32a()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	return h.Sum32()
}
