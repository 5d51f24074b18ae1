// Package output renders apductl results as text, JSON or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/gregLibert/apdu/pkg/iso7816"
	"github.com/gregLibert/apdu/pkg/tlv"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	Format(data any) string
}

// Texter is implemented by values carrying their own text rendering.
type Texter interface {
	Text() string
}

// NewFormatter returns a Formatter for the given format string.
// Supported formats: "text" (default), "json", "yaml".
func NewFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{}
	case "yaml":
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter prints reports as is and other values as aligned columns.
type TextFormatter struct{}

func (f *TextFormatter) Format(data any) string {
	if t, ok := data.(Texter); ok {
		return strings.TrimRight(t.Text(), "\n") + "\n"
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			return "Nothing found.\n"
		}
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(w, v.Index(i).Interface())
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			fmt.Fprintf(w, "%s:\t%v\n", t.Field(i).Name, v.Field(i).Interface())
		}
	default:
		fmt.Fprintln(w, data)
	}

	w.Flush()
	return buf.String()
}

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("error formatting JSON: %v\n", err)
	}
	return string(b) + "\n"
}

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any) string {
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error formatting YAML: %v\n", err)
	}
	return string(b)
}

// Exchange is one physical APDU exchange of a result.
type Exchange struct {
	Command string `json:"command" yaml:"command"`
	Ne      int    `json:"ne" yaml:"ne"`
	Status  string `json:"status" yaml:"status"`
	Length  int    `json:"length" yaml:"length"`
}

// Record is one flat TLV entry of the response data.
type Record struct {
	Tag   string `json:"tag" yaml:"tag"`
	Value string `json:"value" yaml:"value"`
}

// Result is the structured rendering of an executed operation.
type Result struct {
	Operation  string     `json:"operation" yaml:"operation"`
	Status     string     `json:"status" yaml:"status"`
	StatusText string     `json:"status_text" yaml:"status_text"`
	Data       string     `json:"data,omitempty" yaml:"data,omitempty"`
	Records    []Record   `json:"records,omitempty" yaml:"records,omitempty"`
	Exchanges  []Exchange `json:"exchanges" yaml:"exchanges"`

	report string
}

// NewResult builds a Result from the final response of an operation, the
// exchanges recorded for it and its text report.
func NewResult(operation string, resp iso7816.Response, trace iso7816.Trace, report string) Result {
	r := Result{
		Operation:  operation,
		Status:     fmt.Sprintf("%04X", uint16(resp.Status)),
		StatusText: resp.Status.Verbose(),
		Data:       fmt.Sprintf("%X", resp.Data),
		Exchanges:  make([]Exchange, 0, len(trace)),
		report:     report,
	}

	for _, tx := range trace {
		r.Exchanges = append(r.Exchanges, Exchange{
			Command: fmt.Sprintf("%s %s %02X %02X Lc=%d", tx.Command.Class, tx.Command.Instruction, tx.Command.P1, tx.Command.P2, len(tx.Command.Data)),
			Ne:      tx.Ne,
			Status:  fmt.Sprintf("%04X", uint16(tx.Status)),
			Length:  tx.DataLength,
		})
	}

	if resp.Status.IsSuccess() {
		it := tlv.NewIterator(resp.Data)
		consumed := 0
		for {
			rec, ok := it.Next()
			if !ok {
				break
			}
			consumed += 2 + len(rec.Value)
			r.Records = append(r.Records, Record{
				Tag:   fmt.Sprintf("%02X", rec.Tag),
				Value: fmt.Sprintf("%X", rec.Value),
			})
		}
		// Data that is not a flat TLV sequence is shown as raw bytes only.
		if consumed != len(resp.Data) {
			r.Records = nil
		}
	}

	return r
}

// Text returns the report the Result was built with, or a one-line summary.
func (r Result) Text() string {
	if r.report != "" {
		return r.report
	}
	return fmt.Sprintf("%s: [%s] %s %s", r.Operation, r.Status, r.StatusText, r.Data)
}
