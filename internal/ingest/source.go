// Package ingest loads raw material for decomposition from files, URLs
// and standard input, sniffs the payload format and parses it into a
// value the domain algorithms can work on.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ltikhonov/primordia/internal/model"
)

// Payload formats recognized by the loader.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHTML = "html"
	FormatText = "text"
)

// Input is a loaded source ready for decomposition.
type Input struct {
	Source string            // the source argument as given
	Format string            // sniffed payload format
	Raw    []byte            // raw bytes as read
	Value  any               // parsed value handed to the engine
	Meta   *model.SourceMeta // HTTP metadata, nil for local sources
}

// Loader reads sources from files, URLs or stdin.
type Loader struct {
	fetcher *Fetcher
	stdin   io.Reader
}

// NewLoader creates a Loader with the given HTTP configuration
func NewLoader(cfg model.HTTPConfig) *Loader {
	return &Loader{
		fetcher: NewFetcher(cfg),
		stdin:   os.Stdin,
	}
}

// Load reads the source and parses it into an Input. The source may be
// a local file path, an http(s) URL, or "-" for standard input.
func (l *Loader) Load(ctx context.Context, source string) (*Input, error) {
	switch {
	case source == "-":
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return buildInput(source, "", "", data, nil)

	case isRemote(source):
		result, err := l.fetcher.FetchWithRetry(ctx, source)
		if err != nil {
			return nil, err
		}
		return buildInput(source, "", result.Meta.ContentType, result.Body, &result.Meta)

	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		return buildInput(source, filepath.Ext(source), "", data, nil)
	}
}

// isRemote reports whether the source is an http(s) URL
func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func buildInput(source, ext, contentType string, data []byte, meta *model.SourceMeta) (*Input, error) {
	format := SniffFormat(ext, contentType, data)
	value, err := ParseValue(format, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &Input{
		Source: source,
		Format: format,
		Raw:    data,
		Value:  value,
		Meta:   meta,
	}, nil
}

// SniffFormat determines the payload format from the file extension,
// the Content-Type header and finally the content itself. YAML is only
// recognized by extension or header since almost any text parses as YAML.
func SniffFormat(ext, contentType string, data []byte) string {
	switch strings.ToLower(ext) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".html", ".htm":
		return FormatHTML
	case ".txt", ".md":
		return FormatText
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return FormatJSON
	case strings.Contains(ct, "yaml"):
		return FormatYAML
	case strings.Contains(ct, "html"):
		return FormatHTML
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed) {
		return FormatJSON
	}
	if looksLikeHTML(trimmed) {
		return FormatHTML
	}
	return FormatText
}

// looksLikeHTML checks the leading bytes for an HTML document marker
func looksLikeHTML(data []byte) bool {
	head := strings.ToLower(string(data[:min(len(data), 256)]))
	return strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html")
}

// ParseValue parses raw bytes into the value handed to the engine.
// JSON and YAML yield their decoded structures, HTML yields its visible
// text, and plain text passes through as a string.
func ParseValue(format string, data []byte) (any, error) {
	switch format {
	case FormatJSON:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return v, nil
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return v, nil
	case FormatHTML:
		text, err := VisibleText(data)
		if err != nil {
			return nil, err
		}
		return text, nil
	default:
		return string(data), nil
	}
}
