// Package gridcfg loads the hub daemon configuration: listen address, data
// directory, and the set of inventory nodes the hub serves.
package gridcfg

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen   string `yaml:"listen"`
	DataDir  string `yaml:"data_dir"`
	MaxStack int    `yaml:"max_stack"`

	Nodes []NodeSpec `yaml:"nodes"`
	Seed  []SeedSpec `yaml:"seed,omitempty"`
}

// NodeSpec declares one inventory node. Capabilities are opt-out so a plain
// id line yields a fully capable node.
type NodeSpec struct {
	ID     string `yaml:"id"`
	Slots  int    `yaml:"slots"`
	NoList bool   `yaml:"no_list,omitempty"`
	NoPush bool   `yaml:"no_push,omitempty"`
	NoPull bool   `yaml:"no_pull,omitempty"`
}

// SeedSpec pre-fills one slot on first start.
type SeedSpec struct {
	Node     string `yaml:"node"`
	Slot     int    `yaml:"slot"`
	Item     string `yaml:"item"`
	Count    int    `yaml:"count"`
	MaxCount int    `yaml:"max_count,omitempty"`
}

// envOverrides are applied on top of the file, KafClaw-style.
type envOverrides struct {
	Listen  string `envconfig:"GRID_LISTEN"`
	DataDir string `envconfig:"GRID_DATA_DIR"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("grid.yaml: %w", err)
		}
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return cfg, err
	}
	if env.Listen != "" {
		cfg.Listen = env.Listen
	}
	if env.DataDir != "" {
		cfg.DataDir = env.DataDir
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("grid.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Listen:   ":8440",
		DataDir:  "./data",
		MaxStack: 64,
	}
}

func (c *Config) Normalize() {
	if c.MaxStack <= 0 {
		c.MaxStack = 64
	}
	for i := range c.Nodes {
		if c.Nodes[i].Slots <= 0 {
			c.Nodes[i].Slots = 27
		}
	}
	for i := range c.Seed {
		if c.Seed[i].MaxCount <= 0 {
			c.Seed[i].MaxCount = c.MaxStack
		}
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen must be set")
	}
	seen := map[string]bool{}
	for _, n := range c.Nodes {
		if strings.TrimSpace(n.ID) == "" {
			return fmt.Errorf("node with empty id")
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	for _, s := range c.Seed {
		if !seen[s.Node] {
			return fmt.Errorf("seed references unknown node %q", s.Node)
		}
		if s.Count < 0 {
			return fmt.Errorf("seed for %q: negative count", s.Node)
		}
	}
	return nil
}
