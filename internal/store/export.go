// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/elements-sync/pkg/types"
)

// Output formats accepted by WriteCalls.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// CallEntry is the export shape of an OutboundCall.
type CallEntry struct {
	ID             string `json:"id" yaml:"id"`
	RequestURL     string `json:"request_url" yaml:"request_url"`
	ResponseStatus *int   `json:"response_status" yaml:"response_status"`
	Timestamp      string `json:"timestamp" yaml:"timestamp"`
	RetryOf        string `json:"retry_of,omitempty" yaml:"retry_of,omitempty"`
	RequestXML     string `json:"request_xml,omitempty" yaml:"request_xml,omitempty"`
	ResponseBody   string `json:"response_body,omitempty" yaml:"response_body,omitempty"`
}

func exportEntries(calls []types.OutboundCall, withBodies bool) []CallEntry {
	entries := make([]CallEntry, len(calls))
	for i, c := range calls {
		entries[i] = CallEntry{
			ID:             c.ID,
			RequestURL:     c.RequestURL,
			ResponseStatus: c.ResponseStatus,
			Timestamp:      c.Timestamp.UTC().Format(time.RFC3339),
			RetryOf:        c.RetryOf,
		}
		if withBodies {
			entries[i].RequestXML = c.RequestXML
			entries[i].ResponseBody = c.ResponseBody
		}
	}
	return entries
}

// WriteCalls renders calls to w in the given format. Request and response
// bodies are included only when withBodies is set.
func WriteCalls(w io.Writer, calls []types.OutboundCall, format string, withBodies bool) error {
	entries := exportEntries(calls, withBodies)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	case FormatYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatText, "":
		for _, e := range entries {
			status := "-"
			if e.ResponseStatus != nil {
				status = strconv.Itoa(*e.ResponseStatus)
			}
			fmt.Fprintf(w, "%s  %s  %-3s  %s", e.Timestamp, e.ID, status, e.RequestURL)
			if e.RetryOf != "" {
				fmt.Fprintf(w, "  (retry of %s)", e.RetryOf)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "\n%d calls\n", len(entries))
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json, or yaml)", format)
}
