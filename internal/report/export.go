package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crucial707/asset-audit/internal/audit"
)

// Format is an output encoding for the summary.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPDF  Format = "pdf"
)

var extensions = map[Format]string{
	FormatText: ".txt",
	FormatJSON: ".json",
	FormatYAML: ".yaml",
	FormatPDF:  ".pdf",
}

// ParseFormats reads a comma-separated list such as "text,json". Text is
// always included and duplicates are dropped.
func ParseFormats(s string) ([]Format, error) {
	out := []Format{FormatText}
	seen := map[Format]bool{FormatText: true}
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" || seen[f] {
			continue
		}
		if _, ok := extensions[f]; !ok {
			return nil, fmt.Errorf("unknown report format %q (want text, json, yaml or pdf)", part)
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// PathFor swaps the extension of the text report path for format f. When
// the text path already carries f's extension the sibling extension is
// appended to the full name instead, so the text report is never replaced.
func PathFor(textPath string, f Format) string {
	if f == FormatText {
		return textPath
	}
	ext := filepath.Ext(textPath)
	if strings.EqualFold(ext, extensions[f]) {
		return textPath + extensions[f]
	}
	return strings.TrimSuffix(textPath, ext) + extensions[f]
}

// Encode renders the summary in one format.
func Encode(s audit.Summary, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		var buf bytes.Buffer
		if err := WriteText(&buf, s); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(b, '\n'), nil
	case FormatYAML:
		b, err := yaml.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return b, nil
	case FormatPDF:
		return NewPDFExporter().Export(s)
	default:
		return nil, fmt.Errorf("unknown report format %q", f)
	}
}

// WriteFiles writes the summary once per format, next to textPath, replacing
// any previous file. It returns the written paths in format order.
func WriteFiles(textPath string, formats []Format, s audit.Summary) ([]string, error) {
	if dir := filepath.Dir(textPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report dir: %w", err)
		}
	}

	var paths []string
	for _, f := range formats {
		data, err := Encode(s, f)
		if err != nil {
			return paths, err
		}
		path := PathFor(textPath, f)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
