package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionKeys(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		global   []string
		specific []string
	}{
		{
			name:     "mixed keys split by prefix",
			keys:     []string{"s3:prefix", "aws:TagKeys", "aws:ResourceTag", "s3:delimiter"},
			global:   []string{"aws:ResourceTag", "aws:TagKeys"},
			specific: []string{"s3:delimiter", "s3:prefix"},
		},
		{
			name:     "all global",
			keys:     []string{"aws:SourceIp"},
			global:   []string{"aws:SourceIp"},
			specific: []string{},
		},
		{
			name:     "empty input",
			keys:     nil,
			global:   []string{},
			specific: []string{},
		},
		{
			name:     "prefix match is exact, not fuzzy",
			keys:     []string{"awslike:key"},
			global:   []string{},
			specific: []string{"awslike:key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partition := PartitionKeys(tt.keys)
			assert.Equal(t, tt.global, partition.GlobalKeys)
			assert.Equal(t, tt.specific, partition.ServiceKeys)
		})
	}
}

func TestDetailForResource(t *testing.T) {
	t.Run("empty ARN list degrades to sentinel", func(t *testing.T) {
		detail := detailForResource(&Resource{Name: "thing"})
		assert.Equal(t, []string{ARNUnknown}, detail.ARNFormats)
		assert.Equal(t, []string{}, detail.ConditionKeys)
	})

	t.Run("populated record passes through", func(t *testing.T) {
		detail := detailForResource(&Resource{
			Name:          "thing",
			ARNFormats:    StringList{"arn:thing"},
			ConditionKeys: []string{"x:tag"},
		})
		assert.Equal(t, []string{"arn:thing"}, detail.ARNFormats)
		assert.Equal(t, []string{"x:tag"}, detail.ConditionKeys)
	})
}

func TestCollectContextKeys(t *testing.T) {
	doc := mustParseDocument(t, `{
		"Actions": [
			{"Name": "A", "ActionConditionKeys": ["x:b", "x:a"]},
			{"Name": "B", "ActionConditionKeys": ["x:a"]}
		],
		"Resources": {"r": {"ConditionKeys": ["x:c"]}},
		"ConditionKeys": [{"Name": "aws:z"}, {"Name": "x:a"}]
	}`)

	// Deduplicated across all three levels and sorted.
	assert.Equal(t, []string{"aws:z", "x:a", "x:b", "x:c"}, collectContextKeys(doc))
}
