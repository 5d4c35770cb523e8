// Package output renders catalog query results as tables, plain text, JSON,
// or YAML. Rendering never alters the semantics established by the core:
// deduplication and sort order are the Store's responsibility.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/svcref/svcref/internal/catalog"
	"github.com/svcref/svcref/internal/cli/ui"
)

// Format selects a rendering style.
type Format string

const (
	FormatTable Format = "table"
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (expected table, text, json, or yaml)", s)
	}
}

// Formatter writes query results in the selected format.
type Formatter struct {
	writer  io.Writer
	format  Format
	noColor bool
}

// NewFormatter creates a formatter.
func NewFormatter(w io.Writer, format Format, noColor bool) *Formatter {
	return &Formatter{writer: w, format: format, noColor: noColor}
}

// Services renders the catalog index.
func (f *Formatter) Services(refs []catalog.ServiceRef) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(refs)
	case FormatTable:
		table := ui.NewTable(f.writer, []string{"SERVICE", "URL"}, f.noColor)
		for _, ref := range refs {
			table.AddRow(ref.Name, ref.URL)
		}
		table.Render()
		return nil
	default:
		ui.Header(f.writer, fmt.Sprintf("Available services (%d)", len(refs)), f.noColor)
		list := ui.NewList(f.writer, f.noColor)
		for _, ref := range refs {
			list.AddItem(ref.Name)
		}
		list.Render()
		return nil
	}
}

// Actions renders the action names of one service.
func (f *Formatter) Actions(service string, actions []string) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(map[string]interface{}{
			"service": service,
			"actions": actions,
			"count":   len(actions),
		})
	case FormatTable:
		table := ui.NewTable(f.writer, []string{"ACTION"}, f.noColor)
		for _, action := range actions {
			table.AddRow(action)
		}
		table.Render()
		return nil
	default:
		ui.Header(f.writer, fmt.Sprintf("Actions for %s (%d)", service, len(actions)), f.noColor)
		list := ui.NewList(f.writer, f.noColor)
		for _, action := range actions {
			list.AddItem(action)
		}
		list.Render()
		return nil
	}
}

// ResourceDetails renders a list of resources with ARN formats and condition
// keys. The scope names what the list belongs to, e.g. "s3" or "s3:GetObject".
func (f *Formatter) ResourceDetails(scope string, resources []catalog.ResourceDetail) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(map[string]interface{}{
			"scope":     scope,
			"resources": resources,
			"count":     len(resources),
		})
	case FormatTable:
		table := ui.NewTable(f.writer, []string{"RESOURCE", "ARN FORMATS", "CONDITION KEYS"}, f.noColor)
		for _, res := range resources {
			table.AddRow(res.Name,
				strings.Join(res.ARNFormats, ", "),
				strings.Join(res.ConditionKeys, ", "))
		}
		table.Render()
		return nil
	default:
		ui.Header(f.writer, fmt.Sprintf("Resources for %s (%d)", scope, len(resources)), f.noColor)
		for _, res := range resources {
			fmt.Fprintf(f.writer, "  %s\n", res.Name)
			fmt.Fprintf(f.writer, "    ARN formats:    %s\n", strings.Join(res.ARNFormats, ", "))
			fmt.Fprintf(f.writer, "    Condition keys: %s\n", strings.Join(res.ConditionKeys, ", "))
		}
		return nil
	}
}

// ActionDetail renders the joined detail for one action.
func (f *Formatter) ActionDetail(service string, detail *catalog.ActionDetail) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(map[string]interface{}{
			"service": service,
			"action":  detail,
		})
	default:
		ui.Header(f.writer, fmt.Sprintf("%s:%s", service, detail.Name), f.noColor)

		kv := ui.NewKeyValueTable(f.writer, f.noColor)
		kv.AddRow("Condition keys", joinOrDash(detail.ConditionKeys))
		kv.Render()
		fmt.Fprintln(f.writer)

		f.resourceRows(detail.Resources)
		return nil
	}
}

// resourceRows renders the resource records attached to an action detail.
func (f *Formatter) resourceRows(resources []catalog.ResourceDetail) {
	table := ui.NewTable(f.writer, []string{"RESOURCE", "ARN FORMATS", "CONDITION KEYS"}, f.noColor)
	for _, res := range resources {
		table.AddRow(res.Name,
			strings.Join(res.ARNFormats, ", "),
			joinOrDash(res.ConditionKeys))
	}
	table.Render()
}

// ResourceDetail renders the detail record for one resource.
func (f *Formatter) ResourceDetail(service string, detail *catalog.ResourceDetail) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(map[string]interface{}{
			"service":  service,
			"resource": detail,
		})
	default:
		ui.Header(f.writer, fmt.Sprintf("%s resource: %s", service, detail.Name), f.noColor)
		kv := ui.NewKeyValueTable(f.writer, f.noColor)
		kv.AddRow("ARN formats", joinOrDash(detail.ARNFormats))
		kv.AddRow("Condition keys", joinOrDash(detail.ConditionKeys))
		kv.Render()
		return nil
	}
}

// Keys renders a flat condition-key list under a title.
func (f *Formatter) Keys(title string, keys []string) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(map[string]interface{}{
			"scope": title,
			"keys":  keys,
			"count": len(keys),
		})
	case FormatTable:
		table := ui.NewTable(f.writer, []string{"CONDITION KEY"}, f.noColor)
		for _, key := range keys {
			table.AddRow(key)
		}
		table.Render()
		return nil
	default:
		ui.Header(f.writer, fmt.Sprintf("Context keys for %s (%d)", title, len(keys)), f.noColor)
		list := ui.NewList(f.writer, f.noColor)
		for _, key := range keys {
			list.AddItem(key)
		}
		list.Render()
		return nil
	}
}

// KeysByService renders a service→keys mapping in service order.
func (f *Formatter) KeysByService(byService map[string][]string) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(byService)
	default:
		services := make([]string, 0, len(byService))
		for service := range byService {
			services = append(services, service)
		}
		sort.Strings(services)

		if f.format == FormatTable {
			table := ui.NewTable(f.writer, []string{"SERVICE", "CONDITION KEYS"}, f.noColor)
			for _, service := range services {
				table.AddRow(service, fmt.Sprintf("%d", len(byService[service])))
			}
			table.Render()
			return nil
		}

		for _, service := range services {
			ui.Header(f.writer, service, f.noColor)
			list := ui.NewList(f.writer, f.noColor)
			for _, key := range byService[service] {
				list.AddItem(key)
			}
			list.Render()
			fmt.Fprintln(f.writer)
		}
		return nil
	}
}

// Count renders a labeled count.
func (f *Formatter) Count(label string, count int) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(map[string]interface{}{
			"label": label,
			"count": count,
		})
	default:
		kv := ui.NewKeyValueTable(f.writer, f.noColor)
		kv.AddRow(label, fmt.Sprintf("%d", count))
		kv.Render()
		return nil
	}
}

// Summary renders the at-a-glance view of one service.
func (f *Formatter) Summary(summary *catalog.ServiceSummary) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(summary)
	default:
		ui.Header(f.writer, fmt.Sprintf("Service: %s", summary.Service), f.noColor)

		kv := ui.NewKeyValueTable(f.writer, f.noColor)
		kv.AddRow("Actions", fmt.Sprintf("%d", summary.ActionCount))
		kv.AddRow("Resources", fmt.Sprintf("%d", summary.ResourceCount))
		kv.AddRow("Context keys", fmt.Sprintf("%d (global %d, service-specific %d)",
			summary.ContextKeyCount, summary.GlobalKeyCount, summary.ServiceKeyCount))
		kv.Render()

		f.sampleSection("Sample actions", summary.SampleActions, summary.ActionCount)
		f.sampleSection("Sample resources", summary.SampleResources, summary.ResourceCount)
		f.sampleSection("Sample context keys", summary.SampleContextKeys, summary.ContextKeyCount)
		return nil
	}
}

func (f *Formatter) sampleSection(title string, samples []string, total int) {
	if len(samples) == 0 {
		return
	}
	fmt.Fprintln(f.writer)
	ui.Header(f.writer, title, f.noColor)
	list := ui.NewList(f.writer, f.noColor)
	for _, sample := range samples {
		list.AddItem(sample)
	}
	list.Render()
	if total > len(samples) {
		fmt.Fprintf(f.writer, "  ... and %d more\n", total-len(samples))
	}
}

// encode writes the value as indented JSON or YAML per the selected format.
func (f *Formatter) encode(value interface{}) error {
	if f.format == FormatYAML {
		data, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = f.writer.Write(data)
		return err
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
