// Package config loads the cliplay configuration file.
//
// The file uses a dnsmasq-like format: one "name value" pair per line, where
// the value is the rest of the line. Lines starting with # are comments.
// A [section] line starts a block of options that apply to one command;
// options before the first section are global.
package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config is a parsed configuration file.
type Config struct {
	// Global holds options outside any section.
	Global map[string]string
	// Sections holds per-command options keyed by section name.
	Sections map[string]map[string]string
	// Warnings lists problems found while loading. They never stop a load.
	Warnings []string
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{
		Global:   make(map[string]string),
		Sections: make(map[string]map[string]string),
	}
}

// Load reads the configuration from GetConfigPath.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration at path. A missing file yields an
// empty configuration. Symlinks are rejected.
func LoadFromPath(path string) (*Config, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return LoadFromReader(f)
}

// LoadFromReader parses a configuration and validates it against
// DefaultSchema, recording any issues as warnings.
func LoadFromReader(r io.Reader) (*Config, error) {
	c := NewConfig()
	sc := bufio.NewScanner(r)

	var section string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			if section != "" && c.Sections[section] == nil {
				c.Sections[section] = make(map[string]string)
			}
			continue
		}

		name, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)
		if section == "" {
			c.Global[name] = value
		} else {
			c.Sections[section][name] = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	for _, issue := range ValidateConfig(c, DefaultSchema()) {
		c.addWarning("%s", issue)
	}
	return c, nil
}

func (c *Config) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
	slog.Warn("config: " + msg)
}

// GetGlobalOption returns a global option.
func (c *Config) GetGlobalOption(name string) (string, bool) {
	v, ok := c.Global[name]
	return v, ok
}

// GetSectionOption returns an option from section, falling back to the
// global value of the same name.
func (c *Config) GetSectionOption(section, name string) (string, bool) {
	if opts, ok := c.Sections[section]; ok {
		if v, ok := opts[name]; ok {
			return v, true
		}
	}
	return c.GetGlobalOption(name)
}

// SetGlobalOption sets a global option in memory.
func (c *Config) SetGlobalOption(name, value string) {
	c.Global[name] = value
}

// SetSectionOption sets a section option in memory.
func (c *Config) SetSectionOption(section, name, value string) {
	if c.Sections[section] == nil {
		c.Sections[section] = make(map[string]string)
	}
	c.Sections[section][name] = value
}

// parseBool accepts true/false, 1/0, yes/no and on/off in any case.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

// ParseBool is the boolean syntax accepted in configuration values.
func ParseBool(s string) (bool, error) { return parseBool(s) }

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
