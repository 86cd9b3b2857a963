package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// PluginSpec is one configured plugin entry. Entries keep their config-file
// order, which is also the presentation order on the index page.
type PluginSpec struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Repo        string `yaml:"repo"`
	Artifact    string `yaml:"artifact"`
	Pin         string `yaml:"pin"`
	Description string `yaml:"description"`
}

// RepoURL returns the HTML URL of the plugin's source repository.
func (p *PluginSpec) RepoURL() string {
	return fmt.Sprintf("https://github.com/%s", p.Repo)
}

// ResolverConfig tunes the per-entry release lookups.
type ResolverConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// UnmarshalYAML accepts "30s" style duration strings for the timeout.
func (c *ResolverConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Timeout     string `yaml:"timeout"`
		Concurrency int    `yaml:"concurrency"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Timeout != "" {
		timeout, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid resolver timeout %q: %w", raw.Timeout, err)
		}
		c.Timeout = timeout
	}
	c.Concurrency = raw.Concurrency
	return nil
}

// Site is the full site configuration. Immutable after Load.
type Site struct {
	Title     string         `yaml:"title"`
	Owner     string         `yaml:"owner"`
	BaseURL   string         `yaml:"base_url"`
	Output    string         `yaml:"output"`
	Templates string         `yaml:"templates"`
	Static    string         `yaml:"static"`
	Resolver  ResolverConfig `yaml:"resolver"`
	Plugins   []*PluginSpec  `yaml:"plugins"`
}

const (
	DefaultOutput      = "dist"
	DefaultTimeout     = time.Minute
	DefaultConcurrency = 4
)

// Load reads and validates the site configuration file. All schema violations
// are fatal and reported with the offending field.
func Load(path string) (*Site, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var site Site
	if err := yaml.Unmarshal(raw, &site); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	site.applyDefaults()
	if err := site.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &site, nil
}

func (s *Site) applyDefaults() {
	if s.Output == "" {
		s.Output = DefaultOutput
	}
	if s.Resolver.Timeout <= 0 {
		s.Resolver.Timeout = DefaultTimeout
	}
	if s.Resolver.Concurrency <= 0 {
		s.Resolver.Concurrency = DefaultConcurrency
	}
	for _, p := range s.Plugins {
		// a bare repo name belongs to the site owner
		if p.Repo != "" && !strings.Contains(p.Repo, "/") && s.Owner != "" {
			p.Repo = s.Owner + "/" + p.Repo
		}
		if p.Artifact == "" {
			if _, repo, found := strings.Cut(p.Repo, "/"); found {
				p.Artifact = repo
			}
		}
		if p.Name == "" {
			p.Name = p.ID
		}
	}
}

func (s *Site) validate() error {
	if s.Title == "" {
		return fmt.Errorf("missing required field %q", "title")
	}
	if s.Owner == "" {
		return fmt.Errorf("missing required field %q", "owner")
	}
	if len(s.Plugins) == 0 {
		return fmt.Errorf("no plugins configured")
	}
	seen := make(map[string]int, len(s.Plugins))
	for i, p := range s.Plugins {
		if p.ID == "" {
			return fmt.Errorf("plugins[%d]: missing required field %q", i, "id")
		}
		if prev, ok := seen[p.ID]; ok {
			return fmt.Errorf("plugins[%d]: duplicate id %q (first used by plugins[%d])", i, p.ID, prev)
		}
		seen[p.ID] = i
		if p.Repo == "" || !strings.Contains(p.Repo, "/") {
			return fmt.Errorf("plugins[%d] (%s): missing or invalid field %q", i, p.ID, "repo")
		}
		if p.Pin != "" {
			if _, err := semver.StrictNewVersion(p.Pin); err != nil {
				return fmt.Errorf("plugins[%d] (%s): invalid pin %q: %w", i, p.ID, p.Pin, err)
			}
		}
	}
	return nil
}
