package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name        string
		ext         string
		contentType string
		data        string
		want        string
	}{
		{"json extension", ".json", "", `not even json`, FormatJSON},
		{"yaml extension", ".yaml", "", `key: value`, FormatYAML},
		{"yml extension", ".yml", "", `key: value`, FormatYAML},
		{"html extension", ".html", "", `plain`, FormatHTML},
		{"markdown extension", ".md", "", `# heading`, FormatText},
		{"json content type", "", "application/json; charset=utf-8", `{}`, FormatJSON},
		{"yaml content type", "", "application/x-yaml", `key: value`, FormatYAML},
		{"html content type", "", "text/html; charset=utf-8", `<p>hi</p>`, FormatHTML},
		{"json object sniffed", "", "", `{"a": 1}`, FormatJSON},
		{"json array sniffed", "", "", `  [1, 2, 3]`, FormatJSON},
		{"invalid json braces fall to text", "", "", `{not json}`, FormatText},
		{"doctype sniffed", "", "", `<!DOCTYPE html><html></html>`, FormatHTML},
		{"html tag sniffed", "", "", `<html><body>x</body></html>`, FormatHTML},
		{"plain text default", "", "", `hello world`, FormatText},
		{"yaml without hint stays text", "", "", "key: value\nother: 2", FormatText},
		{"extension beats content type", ".txt", "application/json", `{}`, FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SniffFormat(tt.ext, tt.contentType, []byte(tt.data))
			if got != tt.want {
				t.Errorf("SniffFormat(%q, %q, %q) = %q, want %q", tt.ext, tt.contentType, tt.data, got, tt.want)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		v, err := ParseValue(FormatJSON, []byte(`{"a": 1, "b": [true, null]}`))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		want := map[string]any{"a": float64(1), "b": []any{true, nil}}
		if !reflect.DeepEqual(v, want) {
			t.Errorf("Unexpected value: %#v", v)
		}
	})

	t.Run("json error", func(t *testing.T) {
		if _, err := ParseValue(FormatJSON, []byte(`{broken`)); err == nil {
			t.Fatal("Expected error for broken JSON")
		}
	})

	t.Run("yaml", func(t *testing.T) {
		v, err := ParseValue(FormatYAML, []byte("name: sensor\nvalue: 21.5\n"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		m, ok := v.(map[string]any)
		if !ok {
			t.Fatalf("Expected map, got %T", v)
		}
		if m["name"] != "sensor" {
			t.Errorf("Unexpected name: %v", m["name"])
		}
	})

	t.Run("yaml error", func(t *testing.T) {
		if _, err := ParseValue(FormatYAML, []byte("{{{{")); err == nil {
			t.Fatal("Expected error for broken YAML")
		}
	})

	t.Run("html", func(t *testing.T) {
		v, err := ParseValue(FormatHTML, []byte("<p>visible</p><script>no</script>"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if v != "visible" {
			t.Errorf("Unexpected text: %q", v)
		}
	})

	t.Run("text", func(t *testing.T) {
		v, err := ParseValue(FormatText, []byte("as is"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if v != "as is" {
			t.Errorf("Unexpected text: %q", v)
		}
	})
}

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(path, []byte(`{"kind": "test"}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loader := NewLoader(testHTTPConfig())
	input, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if input.Format != FormatJSON {
		t.Errorf("Expected json format, got %s", input.Format)
	}
	if input.Meta != nil {
		t.Error("Expected nil meta for local files")
	}
	m, ok := input.Value.(map[string]any)
	if !ok || m["kind"] != "test" {
		t.Errorf("Unexpected value: %#v", input.Value)
	}
	if string(input.Raw) != `{"kind": "test"}` {
		t.Errorf("Raw bytes not preserved: %q", input.Raw)
	}
}

func TestLoader_FileMissing(t *testing.T) {
	loader := NewLoader(testHTTPConfig())
	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoader_Stdin(t *testing.T) {
	loader := NewLoader(testHTTPConfig())
	loader.stdin = strings.NewReader("plain words from a pipe")

	input, err := loader.Load(context.Background(), "-")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if input.Format != FormatText {
		t.Errorf("Expected text format, got %s", input.Format)
	}
	if input.Value != "plain words from a pipe" {
		t.Errorf("Unexpected value: %v", input.Value)
	}
	if input.Source != "-" {
		t.Errorf("Unexpected source: %s", input.Source)
	}
}

func TestLoader_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"remote": true}`)
	}))
	defer server.Close()

	loader := NewLoader(testHTTPConfig())
	input, err := loader.Load(context.Background(), server.URL+"/api/resource")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if input.Format != FormatJSON {
		t.Errorf("Expected json format, got %s", input.Format)
	}
	if input.Meta == nil {
		t.Fatal("Expected meta for URL sources")
	}
	if input.Meta.StatusCode != 200 {
		t.Errorf("Unexpected status: %d", input.Meta.StatusCode)
	}
	m, ok := input.Value.(map[string]any)
	if !ok || m["remote"] != true {
		t.Errorf("Unexpected value: %#v", input.Value)
	}
}

func TestLoader_URLHTMLBecomesText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, "<html><body><p>Readable words.</p></body></html>")
	}))
	defer server.Close()

	loader := NewLoader(testHTTPConfig())
	input, err := loader.Load(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if input.Format != FormatHTML {
		t.Errorf("Expected html format, got %s", input.Format)
	}
	if input.Value != "Readable words." {
		t.Errorf("Unexpected value: %q", input.Value)
	}
}
