package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ServiceRef is one entry in the catalog index: a service name and the URL
// of its full metadata document.
type ServiceRef struct {
	Name string `json:"service" yaml:"service"`
	URL  string `json:"url" yaml:"url"`
}

// Action is a single operation a service supports. An action without an
// explicit Resources list applies to the implicit wildcard resource "*".
type Action struct {
	Name          string      `json:"Name"`
	Resources     []ActionRef `json:"Resources,omitempty"`
	ConditionKeys []string    `json:"ActionConditionKeys,omitempty"`
}

// ActionRef is a resource reference inside an action declaration.
type ActionRef struct {
	Name string `json:"Name"`
}

// Resource is the canonical (normalized) form of a resource record.
type Resource struct {
	Name          string     `json:"Name"`
	ARNFormats    StringList `json:"ARNFormats"`
	ConditionKeys []string   `json:"ConditionKeys"`
}

// ConditionKey is a condition key scoped to the whole service.
type ConditionKey struct {
	Name  string   `json:"Name"`
	Types []string `json:"Types,omitempty"`
}

// ServiceDocument is the full metadata document for one service after
// ingestion. Resources is always a name-sorted sequence regardless of how the
// upstream payload encoded it.
type ServiceDocument struct {
	Name          string
	Actions       []Action
	Resources     []Resource
	ConditionKeys []ConditionKey
}

// StringList accepts either a JSON array of strings or a single scalar
// string. The upstream catalog uses both encodings for ARNFormats.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("string or string list expected: %w", err)
	}
	if single == "" {
		*s = nil
		return nil
	}
	*s = StringList{single}
	return nil
}

// documentWire mirrors the upstream payload before normalization. Resources
// is kept raw because the catalog encodes it as either an object keyed by
// resource name or an array of records carrying their own Name.
type documentWire struct {
	Name          string          `json:"Name"`
	Actions       []Action        `json:"Actions"`
	Resources     json.RawMessage `json:"Resources"`
	ConditionKeys []ConditionKey  `json:"ConditionKeys"`
}

// resourceBody is a resource record without its name (the object encoding
// carries the name as the map key).
type resourceBody struct {
	ARNFormats    StringList `json:"ARNFormats"`
	ConditionKeys []string   `json:"ConditionKeys"`
}

// UnmarshalJSON decodes a service document and normalizes the Resources
// collection into a single canonical shape. Every downstream query sees one
// representation; the object-vs-array variance ends here.
func (d *ServiceDocument) UnmarshalJSON(data []byte) error {
	var wire documentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	resources, err := normalizeResources(wire.Resources)
	if err != nil {
		return err
	}

	d.Name = wire.Name
	d.Actions = wire.Actions
	d.Resources = resources
	d.ConditionKeys = wire.ConditionKeys
	return nil
}

// normalizeResources maps both upstream encodings of the Resources field to
// one name-sorted sequence. Sorting makes the two encodings converge, so a
// document re-encoded either way yields identical query results.
func normalizeResources(raw json.RawMessage) ([]Resource, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var asList []Resource
	if err := json.Unmarshal(raw, &asList); err == nil {
		sort.Slice(asList, func(i, j int) bool { return asList[i].Name < asList[j].Name })
		return asList, nil
	}

	var asMap map[string]resourceBody
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("resources must be an object or an array: %w", err)
	}

	resources := make([]Resource, 0, len(asMap))
	for name, body := range asMap {
		resources = append(resources, Resource{
			Name:          name,
			ARNFormats:    body.ARNFormats,
			ConditionKeys: body.ConditionKeys,
		})
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })
	return resources, nil
}

// findAction returns the named action, or nil if the document does not
// declare it.
func (d *ServiceDocument) findAction(name string) *Action {
	for i := range d.Actions {
		if d.Actions[i].Name == name {
			return &d.Actions[i]
		}
	}
	return nil
}

// findResource returns the named resource, or nil if the document does not
// declare it.
func (d *ServiceDocument) findResource(name string) *Resource {
	for i := range d.Resources {
		if d.Resources[i].Name == name {
			return &d.Resources[i]
		}
	}
	return nil
}
