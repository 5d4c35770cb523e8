package catalog

import (
	"sort"
	"strings"
)

// ARNUnknown is the sentinel ARN format for a resource the catalog
// references but does not document.
const ARNUnknown = "N/A"

// GlobalKeyPrefix marks a condition key that applies across all services.
const GlobalKeyPrefix = "aws:"

// ResourceDetail is the derived view of one resource: its addressing formats
// and the condition keys that can scope it. ARNFormats is never empty.
type ResourceDetail struct {
	Name          string   `json:"name" yaml:"name"`
	ARNFormats    []string `json:"arn_formats" yaml:"arn_formats"`
	ConditionKeys []string `json:"condition_keys" yaml:"condition_keys"`
}

// ActionDetail is the derived join of an action with the resources it
// touches. Computed on demand, never stored.
type ActionDetail struct {
	Name          string           `json:"name" yaml:"name"`
	Resources     []ResourceDetail `json:"resources" yaml:"resources"`
	ConditionKeys []string         `json:"condition_keys" yaml:"condition_keys"`
}

// KeyPartition splits a condition-key list into global (aws: prefix) and
// service-specific halves. Both halves are sorted.
type KeyPartition struct {
	GlobalKeys  []string `json:"global_keys" yaml:"global_keys"`
	ServiceKeys []string `json:"service_keys" yaml:"service_keys"`
}

// ServiceSummary is an at-a-glance view of one service, used by help output.
type ServiceSummary struct {
	Service           string   `json:"service" yaml:"service"`
	ActionCount       int      `json:"actions" yaml:"actions"`
	ResourceCount     int      `json:"resources" yaml:"resources"`
	ContextKeyCount   int      `json:"context_keys" yaml:"context_keys"`
	GlobalKeyCount    int      `json:"global_context_keys" yaml:"global_context_keys"`
	ServiceKeyCount   int      `json:"service_context_keys" yaml:"service_context_keys"`
	SampleActions     []string `json:"sample_actions" yaml:"sample_actions"`
	SampleResources   []string `json:"sample_resources" yaml:"sample_resources"`
	SampleContextKeys []string `json:"sample_context_keys" yaml:"sample_context_keys"`
}

// PartitionKeys partitions keys by the aws: naming convention. Pure function
// of its input; needs no catalog data.
func PartitionKeys(keys []string) KeyPartition {
	partition := KeyPartition{
		GlobalKeys:  []string{},
		ServiceKeys: []string{},
	}

	for _, key := range keys {
		if strings.HasPrefix(key, GlobalKeyPrefix) {
			partition.GlobalKeys = append(partition.GlobalKeys, key)
		} else {
			partition.ServiceKeys = append(partition.ServiceKeys, key)
		}
	}

	sort.Strings(partition.GlobalKeys)
	sort.Strings(partition.ServiceKeys)
	return partition
}

// detailForResource derives the ResourceDetail view of a normalized resource
// record. An empty ARN list degrades to the "N/A" sentinel.
func detailForResource(r *Resource) ResourceDetail {
	arns := []string(r.ARNFormats)
	if len(arns) == 0 {
		arns = []string{ARNUnknown}
	}

	keys := r.ConditionKeys
	if keys == nil {
		keys = []string{}
	}

	return ResourceDetail{
		Name:          r.Name,
		ARNFormats:    arns,
		ConditionKeys: keys,
	}
}

// missingResourceDetail is the degraded record for a resource an action
// references but the document does not declare.
func missingResourceDetail(name string) ResourceDetail {
	return ResourceDetail{
		Name:          name,
		ARNFormats:    []string{ARNUnknown},
		ConditionKeys: []string{},
	}
}

// wildcardResourceDetail is the implicit record for an action with no
// explicit resource list.
func wildcardResourceDetail() ResourceDetail {
	return ResourceDetail{
		Name:          "*",
		ARNFormats:    []string{"*"},
		ConditionKeys: []string{},
	}
}

// joinActionDetail computes the Actions×Resources join for one action.
// Missing resource entries degrade rather than fail.
func joinActionDetail(doc *ServiceDocument, action *Action) *ActionDetail {
	detail := &ActionDetail{
		Name:          action.Name,
		ConditionKeys: action.ConditionKeys,
	}
	if detail.ConditionKeys == nil {
		detail.ConditionKeys = []string{}
	}

	if len(action.Resources) == 0 {
		detail.Resources = []ResourceDetail{wildcardResourceDetail()}
		return detail
	}

	detail.Resources = make([]ResourceDetail, 0, len(action.Resources))
	for _, ref := range action.Resources {
		if res := doc.findResource(ref.Name); res != nil {
			detail.Resources = append(detail.Resources, detailForResource(res))
		} else {
			detail.Resources = append(detail.Resources, missingResourceDetail(ref.Name))
		}
	}
	return detail
}

// collectContextKeys gathers the union of service-level, per-action, and
// per-resource condition keys from one document, deduplicated and sorted.
func collectContextKeys(doc *ServiceDocument) []string {
	seen := make(map[string]struct{})

	for _, key := range doc.ConditionKeys {
		seen[key.Name] = struct{}{}
	}
	for _, action := range doc.Actions {
		for _, key := range action.ConditionKeys {
			seen[key] = struct{}{}
		}
	}
	for _, res := range doc.Resources {
		for _, key := range res.ConditionKeys {
			seen[key] = struct{}{}
		}
	}

	return sortedKeys(seen)
}

// sortedKeys flattens a string set into a sorted slice.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
