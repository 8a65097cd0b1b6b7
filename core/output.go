package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// Printer handles all display output for the CLI.
type Printer struct {
	JSON   bool
	Writer io.Writer
}

// NewPrinter creates a Printer writing to w, or to stdout when w is nil.
func NewPrinter(jsonMode bool, w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{JSON: jsonMode, Writer: w}
}

// PrintDict renders the entries resolved for path, sorted by key.
func (p *Printer) PrintDict(path string, d Dict) {
	if p.JSON {
		type jsonEntry struct {
			Key   string `json:"key"`
			Label string `json:"label"`
			Value string `json:"value"`
		}
		out := struct {
			File    string      `json:"file"`
			Entries []jsonEntry `json:"entries"`
		}{File: path, Entries: []jsonEntry{}}
		for _, k := range sortedKeys(d) {
			out.Entries = append(out.Entries, jsonEntry{Key: k, Label: d[k].Label, Value: d[k].Value})
		}
		p.printJSON(out)
		return
	}

	fmt.Fprintf(p.Writer, "File  : %s\n", path)
	if len(d) == 0 {
		fmt.Fprintln(p.Writer, "(no metadata found)")
		return
	}
	fmt.Fprintln(p.Writer)
	for _, k := range sortedKeys(d) {
		e := d[k]
		fmt.Fprintf(p.Writer, "  %-40s %-28s %s\n", k, e.Label+":", e.Value)
	}
}

// PrintKeys renders a key listing for path.
func (p *Printer) PrintKeys(path string, keys []string) {
	if p.JSON {
		if keys == nil {
			keys = []string{}
		}
		p.printJSON(struct {
			File string   `json:"file"`
			Keys []string `json:"keys"`
		}{path, keys})
		return
	}
	for _, k := range keys {
		fmt.Fprintln(p.Writer, k)
	}
}

// PrintDate renders the creation timestamp of path.
func (p *Printer) PrintDate(path, date string) {
	if p.JSON {
		p.printJSON(struct {
			File     string `json:"file"`
			DateTime string `json:"date_time"`
		}{path, date})
		return
	}
	if date == "" {
		date = "-"
	}
	fmt.Fprintf(p.Writer, "%s\t%s\n", path, date)
}

// ProbeResult summarises one probed file.
type ProbeResult struct {
	File     string `json:"file"`
	Backend  string `json:"backend"`
	Bound    bool   `json:"bound"`
	Keys     int    `json:"keys"`
	DateTime string `json:"date_time"`
}

// Probe summarises an opened provider.
func Probe(path string, p Provider) ProbeResult {
	r := ProbeResult{File: path, Backend: p.Name(), Bound: !IsNullBacked(p), DateTime: p.DateTime()}
	for range p.Keys() {
		r.Keys++
	}
	return r
}

// PrintProbe renders one line per probed file.
func (p *Printer) PrintProbe(results []ProbeResult) {
	if p.JSON {
		if results == nil {
			results = []ProbeResult{}
		}
		p.printJSON(results)
		return
	}
	for _, r := range results {
		state := "bound"
		if !r.Bound {
			state = "null"
		}
		date := r.DateTime
		if date == "" {
			date = "-"
		}
		fmt.Fprintf(p.Writer, "%-40s %-14s %-5s %4d keys  %s\n", r.File, r.Backend, state, r.Keys, date)
	}
}

func (p *Printer) printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(p.Writer, string(b))
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, "✓ "+msg)
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}

func sortedKeys(d Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
