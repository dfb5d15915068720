package promptstyle

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed assistant.yaml
var defaultFS embed.FS

// Assistant is the prompt configuration for the tenant chat assistant.
type Assistant struct {
	Version   int    `yaml:"version"`
	System    string `yaml:"system"`
	Fallbacks struct {
		Unavailable string `yaml:"unavailable"`
		Empty       string `yaml:"empty"`
	} `yaml:"fallbacks"`
}

// Default returns the embedded prompt.
func Default() Assistant {
	raw, err := defaultFS.ReadFile("assistant.yaml")
	if err != nil {
		panic(fmt.Sprintf("promptstyle: embedded prompt missing: %v", err))
	}
	a, err := Parse(raw)
	if err != nil {
		panic(fmt.Sprintf("promptstyle: embedded prompt invalid: %v", err))
	}
	return a
}

// Load reads a prompt file and fills any blank field from the embedded default.
// An empty path returns the default.
func Load(path string) (Assistant, error) {
	def := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return def, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("read prompt file: %w", err)
	}
	a, err := Parse(raw)
	if err != nil {
		return def, err
	}
	if a.System == "" {
		a.System = def.System
	}
	if a.Fallbacks.Unavailable == "" {
		a.Fallbacks.Unavailable = def.Fallbacks.Unavailable
	}
	if a.Fallbacks.Empty == "" {
		a.Fallbacks.Empty = def.Fallbacks.Empty
	}
	return a, nil
}

func Parse(raw []byte) (Assistant, error) {
	var a Assistant
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return Assistant{}, fmt.Errorf("parse prompt yaml: %w", err)
	}
	a.System = strings.TrimSpace(a.System)
	a.Fallbacks.Unavailable = strings.TrimSpace(a.Fallbacks.Unavailable)
	a.Fallbacks.Empty = strings.TrimSpace(a.Fallbacks.Empty)
	if a.System == "" && a.Fallbacks.Unavailable == "" && a.Fallbacks.Empty == "" {
		return Assistant{}, errors.New("prompt yaml has no content")
	}
	return a, nil
}
