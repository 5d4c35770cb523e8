package monitor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawDoc(t *testing.T, payload string) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &doc))
	return doc
}

func TestShapeObserve(t *testing.T) {
	observed := newShape()
	observed.observe(rawDoc(t, `{
		"Name": "s3",
		"Actions": [
			{"Name": "GetObject", "Resources": [], "ActionConditionKeys": []},
			{"Name": "ListAllMyBuckets"}
		],
		"Resources": {
			"object": {"ARNFormats": [], "ConditionKeys": []}
		},
		"ConditionKeys": [
			{"Name": "s3:prefix", "Types": ["String", "ArrayOfString"]}
		]
	}`))

	schema := observed.schema([]string{"s3"})

	assert.Equal(t, []string{"Actions", "ConditionKeys", "Name", "Resources"}, schema.TopLevelFields)
	assert.Equal(t, []string{"ActionConditionKeys", "Name", "Resources"}, schema.ActionFields)
	assert.Equal(t, []string{"ARNFormats", "ConditionKeys"}, schema.ResourceFields)
	assert.Equal(t, []string{"Name", "Types"}, schema.ConditionKeyFields)
	assert.Equal(t, []string{"ArrayOfString", "String"}, schema.DataTypes)
}

func TestShapeObserveResourcesArrayEncoding(t *testing.T) {
	observed := newShape()
	observed.observe(rawDoc(t, `{
		"Resources": [{"Name": "object", "ARNFormats": []}]
	}`))

	schema := observed.schema(nil)
	assert.Equal(t, []string{"ARNFormats", "Name"}, schema.ResourceFields)
}

func TestShapeFieldCombinations(t *testing.T) {
	observed := newShape()
	observed.observe(rawDoc(t, `{
		"Actions": [
			{"Name": "A"},
			{"Name": "B"},
			{"Name": "C", "Resources": []}
		]
	}`))

	schema := observed.schema(nil)

	// Two actions with the same field set collapse to one combination.
	assert.Equal(t, []FieldCombination{
		{Context: "action", Fields: []string{"Name"}},
		{Context: "action", Fields: []string{"Name", "Resources"}},
	}, schema.FieldCombinations)
}

func TestHashSchemaIgnoresIdentityFields(t *testing.T) {
	observed := newShape()
	observed.observe(rawDoc(t, `{"Actions": [{"Name": "A"}]}`))

	first := observed.schema([]string{"svc-a"})
	first.ReportID = "one"
	first.Hash = HashSchema(first)

	second := observed.schema([]string{"svc-b", "svc-c"})
	second.ReportID = "two"
	second.Hash = HashSchema(second)

	assert.Equal(t, first.Hash, second.Hash,
		"same structure must hash the same regardless of report identity or sample")
}

func TestHashSchemaDetectsStructuralChange(t *testing.T) {
	base := newShape()
	base.observe(rawDoc(t, `{"Actions": [{"Name": "A"}]}`))

	drifted := newShape()
	drifted.observe(rawDoc(t, `{"Actions": [{"Name": "A", "NewField": 1}]}`))

	assert.NotEqual(t, HashSchema(base.schema(nil)), HashSchema(drifted.schema(nil)))
}

func TestCompare(t *testing.T) {
	old := &Schema{
		TopLevelFields: []string{"Actions", "Name"},
		ActionFields:   []string{"Name", "Resources"},
		DataTypes:      []string{"String"},
	}

	t.Run("no changes", func(t *testing.T) {
		changes := Compare(old, old)
		assert.False(t, changes.HasChanges)
		assert.Empty(t, changes.NewFields)
		assert.Empty(t, changes.RemovedFields)
	})

	t.Run("added and removed fields", func(t *testing.T) {
		current := &Schema{
			TopLevelFields: []string{"Actions", "Name", "Version"},
			ActionFields:   []string{"Name"},
			DataTypes:      []string{"String", "Bool"},
		}

		changes := Compare(old, current)
		assert.True(t, changes.HasChanges)
		assert.Equal(t, []string{"Version"}, changes.NewFields["top_level_fields"])
		assert.Equal(t, []string{"Resources"}, changes.RemovedFields["action_fields"])
		assert.Equal(t, []string{"Bool"}, changes.NewDataTypes)
		assert.Empty(t, changes.RemovedDataTypes)
	})

	t.Run("data type removal alone flags changes", func(t *testing.T) {
		current := &Schema{
			TopLevelFields: old.TopLevelFields,
			ActionFields:   old.ActionFields,
			DataTypes:      nil,
		}

		changes := Compare(old, current)
		assert.True(t, changes.HasChanges)
		assert.Equal(t, []string{"String"}, changes.RemovedDataTypes)
	})
}

func TestFormatReport(t *testing.T) {
	t.Run("no changes", func(t *testing.T) {
		assert.Equal(t, "No schema changes detected.", FormatReport(Changes{}))
	})

	t.Run("changes are listed by collection", func(t *testing.T) {
		report := FormatReport(Changes{
			HasChanges:   true,
			NewFields:    map[string][]string{"action_fields": {"NewField"}},
			NewDataTypes: []string{"Bool"},
		})
		assert.Contains(t, report, "Schema changes detected!")
		assert.Contains(t, report, "action_fields: NewField")
		assert.Contains(t, report, "New data types: Bool")
	})
}
