package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ltikhonov/primordia/internal/model"
)

// readDecomposition loads a decomposition from a JSON file. Both bare
// decompositions and full reports (which embed one) are accepted, so
// the output of `decompose --json` feeds straight into recompose,
// canonical and coherence.
func readDecomposition(path string) (*model.Decomposition, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	// A report wraps the decomposition; prefer that shape when present.
	var report model.Report
	if err := json.Unmarshal(data, &report); err == nil && report.Decomposition != nil {
		return report.Decomposition, nil
	}

	var d model.Decomposition
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(d.Factors) == 0 && d.Method == "" {
		return nil, fmt.Errorf("%s contains neither a report nor a decomposition", path)
	}
	return &d, nil
}

// readFrame loads an observer frame from a JSON or YAML file.
func readFrame(path string) (*model.ObserverFrame, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	var frame model.ObserverFrame
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("parse frame %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("parse frame %s: %w", path, err)
		}
	}
	if frame.ID == "" {
		return nil, fmt.Errorf("frame %s has no id", path)
	}
	return &frame, nil
}

// readSource reads a file path or stdin when the path is "-".
func readSource(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// resolveLLMEnv fills provider credentials from the environment.
func resolveLLMEnv(cfg *model.Config, provider string) error {
	switch provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}

// writeJSON marshals a value and writes it to the path, or stdout when
// the path is empty.
func writeJSON(value any, path string) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
