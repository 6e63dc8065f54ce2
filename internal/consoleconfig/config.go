// Package consoleconfig loads the static tables that drive the console: the
// status rules, the formatting code tables, the shortcuts and the blank
// input placeholder.
package consoleconfig

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
)

const (
	StatusRulesFile = "status-rules.json"
	ColorCodesFile  = "color-codes.json"
	StyleCodesFile  = "style-codes.json"
	ShortcutsFile   = "shortcuts.json"
	ConsoleFile     = "console.json"
)

//go:embed defaults/*.json
var defaults embed.FS

// Shortcut is a predefined command offered to the operator.
type Shortcut struct {
	Name    string `json:"name" yaml:"name"`
	Icon    string `json:"icon" yaml:"icon"`
	Color   string `json:"color" yaml:"color"`
	Command string `json:"command" yaml:"command"`
}

// Config holds the loaded tables. It is not modified after Load returns.
type Config struct {
	StatusRules []console.StatusRule `json:"status_rules"`
	ColorCodes  map[string]string    `json:"color_codes"`
	StyleCodes  map[string]string    `json:"style_codes"`
	Shortcuts   []Shortcut           `json:"shortcuts"`
	Placeholder string               `json:"placeholder"`
}

type consoleFile struct {
	Placeholder string `yaml:"placeholder"`
}

// Default returns the embedded configuration.
func Default() (*Config, error) {
	return Load("")
}

// Load reads the embedded defaults and replaces each table for which root
// holds an override file. An empty root loads the defaults only. The result
// is validated.
func Load(root string) (*Config, error) {
	cfg := &Config{}

	raw, err := read(root, StatusRulesFile)
	if err != nil {
		return nil, err
	}
	if cfg.StatusRules, err = parseStatusRules(raw); err != nil {
		return nil, fmt.Errorf("consoleconfig: %s: %w", StatusRulesFile, err)
	}

	if raw, err = read(root, ColorCodesFile); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &cfg.ColorCodes); err != nil {
		return nil, fmt.Errorf("consoleconfig: %s: %w", ColorCodesFile, err)
	}

	if raw, err = read(root, StyleCodesFile); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &cfg.StyleCodes); err != nil {
		return nil, fmt.Errorf("consoleconfig: %s: %w", StyleCodesFile, err)
	}

	if raw, err = read(root, ShortcutsFile); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &cfg.Shortcuts); err != nil {
		return nil, fmt.Errorf("consoleconfig: %s: %w", ShortcutsFile, err)
	}

	if raw, err = read(root, ConsoleFile); err != nil {
		return nil, err
	}
	var cf consoleFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("consoleconfig: %s: %w", ConsoleFile, err)
	}
	cfg.Placeholder = strings.TrimSpace(cf.Placeholder)
	if cfg.Placeholder == "" {
		cfg.Placeholder = console.DefaultPlaceholder
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(root, name string) ([]byte, error) {
	if root != "" {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("consoleconfig: read %s: %w", name, err)
		}
	}
	data, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		return nil, fmt.Errorf("consoleconfig: embedded %s: %w", name, err)
	}
	return data, nil
}

// parseStatusRules decodes the tag to patterns mapping, keeping the order of
// the document since the first matching entry wins.
func parseStatusRules(raw []byte) ([]console.StatusRule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of status to patterns")
	}
	rules := make([]console.StatusRule, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		var patterns []string
		if err := root.Content[i+1].Decode(&patterns); err != nil {
			return nil, fmt.Errorf("status %q: %w", root.Content[i].Value, err)
		}
		rules = append(rules, console.StatusRule{
			Status:   console.Status(root.Content[i].Value),
			Patterns: patterns,
		})
	}
	return rules, nil
}

// Validate reports every problem found in the tables.
func (c *Config) Validate() error {
	var errs []error
	for _, rule := range c.StatusRules {
		if _, err := console.ParseStatus(string(rule.Status)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		if _, err := console.NewClassifier(c.StatusRules); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, checkCodes("color", console.ColorCodes, c.ColorCodes)...)
	errs = append(errs, checkCodes("style", console.StyleCodes, c.StyleCodes)...)
	for i, s := range c.Shortcuts {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Command) == "" {
			errs = append(errs, fmt.Errorf("shortcut %d: name and command are required", i))
		}
	}
	if strings.TrimSpace(c.Placeholder) == "" {
		errs = append(errs, fmt.Errorf("placeholder command required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("consoleconfig: invalid configuration: %w", err)
	}
	return nil
}

func checkCodes(kind, want string, table map[string]string) []error {
	var errs []error
	for _, code := range want {
		if strings.TrimSpace(table[string(code)]) == "" {
			errs = append(errs, fmt.Errorf("%s code %q missing", kind, code))
		}
	}
	for code := range table {
		if len(code) != 1 || !strings.Contains(want, code) {
			errs = append(errs, fmt.Errorf("%s code %q not recognized", kind, code))
		}
	}
	return errs
}

// Classifier builds the status classifier from the rule table.
func (c *Config) Classifier() (*console.Classifier, error) {
	return console.NewClassifier(c.StatusRules)
}

// Decoder builds the formatting decoder from the code tables.
func (c *Config) Decoder() *console.Decoder {
	return console.NewDecoder(c.ColorCodes, c.StyleCodes)
}
