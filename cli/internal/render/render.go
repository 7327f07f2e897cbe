// Package render writes command results in the selected output format.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"
)

// OutputFormat is the name of an output format.
type OutputFormat string

const (
	OutputFormatText   OutputFormat = "text"
	OutputFormatJSON   OutputFormat = "json"
	OutputFormatNDJSON OutputFormat = "ndjson"
	OutputFormatYAML   OutputFormat = "yaml"
)

func (o OutputFormat) String() string {
	return string(o)
}

// Formats lists the supported formats, text first.
func Formats() []string {
	return []string{OutputFormatText.String(), OutputFormatJSON.String(), OutputFormatNDJSON.String(), OutputFormatYAML.String()}
}

// Render writes items to writer. Text output is produced by text, the other
// formats serialize items as a list.
func Render[T any](writer io.Writer, format OutputFormat, items []T, text func(io.Writer, T) error) error {
	switch format {
	case OutputFormatText:
		for _, item := range items {
			if err := text(writer, item); err != nil {
				return err
			}
		}
	case OutputFormatJSON:
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling to JSON failed: %w", err)
		}
		data = append(data, '\n')
		if _, err = writer.Write(data); err != nil {
			return fmt.Errorf("writing JSON data to writer failed: %w", err)
		}
	case OutputFormatNDJSON:
		encoder := json.NewEncoder(writer)
		for _, item := range items {
			if err := encoder.Encode(item); err != nil {
				return fmt.Errorf("encoding to NDJSON failed: %w", err)
			}
		}
	case OutputFormatYAML:
		data, err := yaml.Marshal(items)
		if err != nil {
			return fmt.Errorf("marshalling to YAML failed: %w", err)
		}
		if _, err = writer.Write(data); err != nil {
			return fmt.Errorf("writing YAML data to writer failed: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}

// RenderTable writes items like Render, but renders text output as a table
// with header and one row per item. An empty text table is not written.
func RenderTable[T any](writer io.Writer, format OutputFormat, items []T, header table.Row, row func(T) table.Row) error {
	if format != OutputFormatText {
		return Render(writer, format, items, nil)
	}
	if len(items) == 0 {
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(writer)
	t.AppendHeader(header)
	for _, item := range items {
		t.AppendRow(row(item))
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return nil
}
