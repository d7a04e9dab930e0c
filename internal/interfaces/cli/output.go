package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	exportapp "github.com/multipos/console/internal/application/export"
)

// print writes v as JSON or YAML, or as a key/value table.
func (a *app) print(v any) error {
	switch a.opts.output {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		return a.printYAML(v)
	}
	generic, err := toGeneric(v)
	if err != nil {
		return err
	}
	obj, ok := generic.(map[string]any)
	if !ok {
		_, err := fmt.Fprintln(a.out, cellString(generic))
		return err
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, cellString(obj[k]))
	}
	return tw.Flush()
}

// printTable writes a dataset as an aligned table, or data as JSON/YAML.
// The dataset drives table output so columns match the exports.
func (a *app) printTable(ds exportapp.Dataset, data any) error {
	if a.opts.output != "table" {
		return a.print(data)
	}
	if len(ds.Rows) == 0 {
		_, err := fmt.Fprintln(a.out, "No "+strings.ToLower(ds.Title)+" found.")
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(ds.Headers(), "\t")))
	for _, row := range ds.Rows {
		cells := make([]string, len(ds.Columns))
		for i, col := range ds.Columns {
			cells[i] = exportapp.Text(row[col.Key], col.Kind)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, s := range ds.Summary {
		fmt.Fprintf(a.out, "%s: %s\n", s.Label, exportapp.Text(s.Value, s.Kind))
	}
	return nil
}

// printYAML goes through JSON so keys keep their json tag names.
func (a *app) printYAML(v any) error {
	generic, err := toGeneric(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		b, _ := json.Marshal(val)
		return string(b)
	}
	return fmt.Sprint(v)
}
