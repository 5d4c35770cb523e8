// Package monitor snapshots the structural shape of the remote catalog and
// detects schema drift between snapshots. It is a batch job beside the CLI:
// the catalog's shape is not contractually guaranteed, so drift here is the
// early warning that the core's normalization assumptions need a review.
package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// Schema captures the observed structure of a sample of service documents:
// which fields appear at each level, the declared condition-key data types,
// and the distinct field combinations. Everything is sorted so two snapshots
// of identical structure serialize identically.
type Schema struct {
	ReportID           string             `json:"report_id"`
	Timestamp          time.Time          `json:"timestamp"`
	Hash               string             `json:"schema_hash"`
	AnalyzedServices   []string           `json:"analyzed_services"`
	TopLevelFields     []string           `json:"top_level_fields"`
	ActionFields       []string           `json:"action_fields"`
	ResourceFields     []string           `json:"resource_fields"`
	ConditionKeyFields []string           `json:"condition_key_fields"`
	DataTypes          []string           `json:"data_types"`
	FieldCombinations  []FieldCombination `json:"field_combinations"`
}

// FieldCombination is one observed set of fields in a given context
// ("action", "resource", or "condition_key").
type FieldCombination struct {
	Context string   `json:"context"`
	Fields  []string `json:"fields"`
}

// Changes is the set difference between two schemas.
type Changes struct {
	HasChanges       bool                `json:"has_changes"`
	NewFields        map[string][]string `json:"new_fields,omitempty"`
	RemovedFields    map[string][]string `json:"removed_fields,omitempty"`
	NewDataTypes     []string            `json:"new_data_types,omitempty"`
	RemovedDataTypes []string            `json:"removed_data_types,omitempty"`
}

// shape accumulates field observations before they are sorted into a Schema.
type shape struct {
	topLevel      map[string]struct{}
	actionFields  map[string]struct{}
	resourceField map[string]struct{}
	keyFields     map[string]struct{}
	dataTypes     map[string]struct{}
	combinations  map[string]FieldCombination
}

func newShape() *shape {
	return &shape{
		topLevel:      make(map[string]struct{}),
		actionFields:  make(map[string]struct{}),
		resourceField: make(map[string]struct{}),
		keyFields:     make(map[string]struct{}),
		dataTypes:     make(map[string]struct{}),
		combinations:  make(map[string]FieldCombination),
	}
}

// observe folds one raw service document into the shape.
func (s *shape) observe(doc map[string]interface{}) {
	for field := range doc {
		s.topLevel[field] = struct{}{}
	}

	if actions, ok := doc["Actions"].([]interface{}); ok {
		for _, entry := range actions {
			if action, ok := entry.(map[string]interface{}); ok {
				s.record("action", action, s.actionFields)
			}
		}
	}

	switch resources := doc["Resources"].(type) {
	case []interface{}:
		for _, entry := range resources {
			if resource, ok := entry.(map[string]interface{}); ok {
				s.record("resource", resource, s.resourceField)
			}
		}
	case map[string]interface{}:
		for _, entry := range resources {
			if resource, ok := entry.(map[string]interface{}); ok {
				s.record("resource", resource, s.resourceField)
			}
		}
	}

	if keys, ok := doc["ConditionKeys"].([]interface{}); ok {
		for _, entry := range keys {
			key, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			s.record("condition_key", key, s.keyFields)
			if types, ok := key["Types"].([]interface{}); ok {
				for _, t := range types {
					if name, ok := t.(string); ok {
						s.dataTypes[name] = struct{}{}
					}
				}
			}
		}
	}
}

// record tracks the fields of one record and the combination they form.
func (s *shape) record(context string, record map[string]interface{}, into map[string]struct{}) {
	fields := make([]string, 0, len(record))
	for field := range record {
		into[field] = struct{}{}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	combo := FieldCombination{Context: context, Fields: fields}
	s.combinations[comboKey(combo)] = combo
}

func comboKey(combo FieldCombination) string {
	key := combo.Context
	for _, field := range combo.Fields {
		key += "|" + field
	}
	return key
}

// schema flattens the shape into a sorted Schema. Identity fields (report
// ID, timestamp, hash) are left for the caller to stamp.
func (s *shape) schema(services []string) *Schema {
	sorted := append([]string(nil), services...)
	sort.Strings(sorted)

	combos := make([]FieldCombination, 0, len(s.combinations))
	for _, combo := range s.combinations {
		combos = append(combos, combo)
	}
	sort.Slice(combos, func(i, j int) bool {
		if combos[i].Context != combos[j].Context {
			return combos[i].Context < combos[j].Context
		}
		return comboKey(combos[i]) < comboKey(combos[j])
	})

	return &Schema{
		AnalyzedServices:   sorted,
		TopLevelFields:     setToSlice(s.topLevel),
		ActionFields:       setToSlice(s.actionFields),
		ResourceFields:     setToSlice(s.resourceField),
		ConditionKeyFields: setToSlice(s.keyFields),
		DataTypes:          setToSlice(s.dataTypes),
		FieldCombinations:  combos,
	}
}

// HashSchema computes a deterministic digest of the schema structure.
// Identity fields and the analyzed-service sample do not participate, so the
// hash compares structure, not which services happened to be sampled.
func HashSchema(schema *Schema) string {
	canonical := *schema
	canonical.ReportID = ""
	canonical.Timestamp = time.Time{}
	canonical.Hash = ""
	canonical.AnalyzedServices = nil

	data, err := json.Marshal(&canonical)
	if err != nil {
		// Schema is plain data; marshaling cannot fail in practice.
		return ""
	}
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// Compare diffs two schemas field-collection by field-collection. The diff
// is pure set subtraction in both directions.
func Compare(old, current *Schema) Changes {
	changes := Changes{
		NewFields:     make(map[string][]string),
		RemovedFields: make(map[string][]string),
	}

	collections := []struct {
		name    string
		old     []string
		current []string
	}{
		{"top_level_fields", old.TopLevelFields, current.TopLevelFields},
		{"action_fields", old.ActionFields, current.ActionFields},
		{"resource_fields", old.ResourceFields, current.ResourceFields},
		{"condition_key_fields", old.ConditionKeyFields, current.ConditionKeyFields},
	}

	for _, collection := range collections {
		added := subtract(collection.current, collection.old)
		removed := subtract(collection.old, collection.current)
		if len(added) > 0 {
			changes.NewFields[collection.name] = added
			changes.HasChanges = true
		}
		if len(removed) > 0 {
			changes.RemovedFields[collection.name] = removed
			changes.HasChanges = true
		}
	}

	changes.NewDataTypes = subtract(current.DataTypes, old.DataTypes)
	changes.RemovedDataTypes = subtract(old.DataTypes, current.DataTypes)
	if len(changes.NewDataTypes) > 0 || len(changes.RemovedDataTypes) > 0 {
		changes.HasChanges = true
	}

	return changes
}

// subtract returns the sorted elements of a not present in b.
func subtract(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, item := range b {
		exclude[item] = struct{}{}
	}

	var diff []string
	for _, item := range a {
		if _, ok := exclude[item]; !ok {
			diff = append(diff, item)
		}
	}
	sort.Strings(diff)
	return diff
}

func setToSlice(set map[string]struct{}) []string {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}
