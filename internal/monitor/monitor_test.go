package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svcref/svcref/internal/catalog"
)

type fakeSource struct {
	index   []catalog.ServiceRef
	docs    map[string]map[string]interface{}
	docErrs map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		docs:    make(map[string]map[string]interface{}),
		docErrs: make(map[string]error),
	}
}

func (f *fakeSource) addService(name string, doc map[string]interface{}) {
	url := "https://catalog.test/" + name
	f.index = append(f.index, catalog.ServiceRef{Name: name, URL: url})
	f.docs[url] = doc
}

func (f *fakeSource) FetchIndex(ctx context.Context) ([]catalog.ServiceRef, error) {
	return f.index, nil
}

func (f *fakeSource) FetchRawDocument(ctx context.Context, url string) (map[string]interface{}, error) {
	if err, ok := f.docErrs[url]; ok {
		return nil, err
	}
	doc, ok := f.docs[url]
	if !ok {
		return nil, errors.New("no such document")
	}
	return doc, nil
}

func baseSource(t *testing.T) *fakeSource {
	t.Helper()
	source := newFakeSource()
	source.addService("s3", rawDoc(t, `{
		"Name": "s3",
		"Actions": [{"Name": "GetObject", "ActionConditionKeys": []}],
		"Resources": {"object": {"ARNFormats": []}},
		"ConditionKeys": [{"Name": "s3:prefix", "Types": ["String"]}]
	}`))
	source.addService("ec2", rawDoc(t, `{
		"Name": "ec2",
		"Actions": [{"Name": "RunInstances"}]
	}`))
	return source
}

func TestSnapshot(t *testing.T) {
	m := New(baseSource(t), t.TempDir(), 10, nil)

	schema, err := m.Snapshot(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, schema.ReportID)
	assert.NotEmpty(t, schema.Hash)
	assert.Equal(t, []string{"ec2", "s3"}, schema.AnalyzedServices)
	assert.Contains(t, schema.TopLevelFields, "Actions")
	assert.Equal(t, []string{"String"}, schema.DataTypes)
	assert.Equal(t, schema.Hash, HashSchema(schema), "stamped hash matches the structure")
}

func TestSnapshotSkipsFailedDocuments(t *testing.T) {
	source := baseSource(t)
	source.docErrs["https://catalog.test/ec2"] = errors.New("status 500")
	m := New(source, t.TempDir(), 10, nil)

	schema, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s3"}, schema.AnalyzedServices)
}

func TestSnapshotAllDocumentsFail(t *testing.T) {
	source := baseSource(t)
	source.docErrs["https://catalog.test/s3"] = errors.New("status 500")
	source.docErrs["https://catalog.test/ec2"] = errors.New("status 500")
	m := New(source, t.TempDir(), 10, nil)

	_, err := m.Snapshot(context.Background())
	assert.Error(t, err)
}

func TestSnapshotRespectsSampleSize(t *testing.T) {
	source := newFakeSource()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		source.addService(name, rawDoc(t, `{"Name": "x"}`))
	}
	m := New(source, t.TempDir(), 3, nil)

	schema, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, schema.AnalyzedServices, 3)
}

func TestBaselineRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := New(baseSource(t), dir, 10, nil)

	t.Run("missing baseline is nil, not an error", func(t *testing.T) {
		baseline, err := m.LoadBaseline()
		require.NoError(t, err)
		assert.Nil(t, baseline)
	})

	schema, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.SaveBaseline(schema))

	loaded, err := m.LoadBaseline()
	require.NoError(t, err)
	assert.Equal(t, schema.Hash, loaded.Hash)
	assert.Equal(t, schema.TopLevelFields, loaded.TopLevelFields)
}

func TestCheckCreatesBaselineWhenNoneExists(t *testing.T) {
	dir := t.TempDir()
	m := New(baseSource(t), dir, 10, nil)

	result, err := m.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "baseline_created", result.Status)
	assert.False(t, result.Changes.HasChanges)
	assert.FileExists(t, filepath.Join(dir, BaselineFile))
}

func TestCheckNoDrift(t *testing.T) {
	dir := t.TempDir()
	m := New(baseSource(t), dir, 10, nil)

	_, err := m.Check(context.Background())
	require.NoError(t, err)

	result, err := m.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "analysis_complete", result.Status)
	assert.False(t, result.Changes.HasChanges)
}

func TestCheckDetectsDrift(t *testing.T) {
	dir := t.TempDir()
	source := baseSource(t)
	m := New(source, dir, 10, nil)

	_, err := m.Check(context.Background())
	require.NoError(t, err)

	// Upstream adds a field to action records.
	source.docs["https://catalog.test/ec2"] = rawDoc(t, `{
		"Name": "ec2",
		"Actions": [{"Name": "RunInstances", "Severity": "high"}]
	}`)

	result, err := m.Check(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changes.HasChanges)
	assert.Equal(t, []string{"Severity"}, result.Changes.NewFields["action_fields"])

	t.Run("drifted snapshot is archived and promoted", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)

		var archived bool
		for _, entry := range entries {
			if entry.Name() != BaselineFile {
				archived = true
			}
		}
		assert.True(t, archived, "timestamped archive expected beside the baseline")

		baseline, err := m.LoadBaseline()
		require.NoError(t, err)
		assert.Equal(t, result.Current.Hash, baseline.Hash)
	})

	t.Run("next check against promoted baseline is clean", func(t *testing.T) {
		result, err := m.Check(context.Background())
		require.NoError(t, err)
		assert.False(t, result.Changes.HasChanges)
	})
}
