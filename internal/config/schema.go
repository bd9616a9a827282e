package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
)

// OptionType is the expected type of an option value.
type OptionType string

const (
	// TypeString accepts any value.
	TypeString OptionType = "string"
	// TypeBool accepts true/false/yes/no/1/0/on/off.
	TypeBool OptionType = "bool"
	// TypeInt accepts a base-10 integer.
	TypeInt OptionType = "int"
)

// ConfigOption declares one option.
type ConfigOption struct {
	// Key is the option name as written in the file.
	Key         string
	Type        OptionType
	// Default is the value used when neither env nor file sets one.
	Default     string
	Description string
	// Section is "" for global options.
	Section     string
	// EnvVar, if set, overrides the file value.
	EnvVar      string
	// Choices, if set, restricts the value (case-insensitive).
	Choices     []string
}

// QualifiedKey is the name used on the command line: the key for global
// options, section.key otherwise.
func (o ConfigOption) QualifiedKey() string {
	if o.Section == "" {
		return o.Key
	}
	return o.Section + "." + o.Key
}

// ConfigSchema is the set of known options. It drives validation, help
// output, env overrides and defaults.
type ConfigSchema struct {
	options   []*ConfigOption
	byKey     map[string]*ConfigOption
	bySection map[string]map[string]*ConfigOption
}

// NewSchema returns an empty schema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds opt. A later registration of the same key wins.
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
		return
	}
	if s.bySection[opt.Section] == nil {
		s.bySection[opt.Section] = make(map[string]*ConfigOption)
	}
	s.bySection[opt.Section][opt.Key] = ref
}

// RegisterAll adds every option in opts.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the option for key in section ("" for global), or nil.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	return s.bySection[section][key]
}

// LookupQualified finds an option by QualifiedKey. Global keys may contain
// dots themselves, so they are tried first.
func (s *ConfigSchema) LookupQualified(qkey string) *ConfigOption {
	if opt := s.byKey[qkey]; opt != nil {
		return opt
	}
	if section, key, ok := strings.Cut(qkey, "."); ok {
		return s.Lookup(section, key)
	}
	return nil
}

// IsKnown reports whether key may appear in section. Global options are
// accepted in any section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if section != "" && s.bySection[section][key] != nil {
		return true
	}
	return s.byKey[key] != nil
}

// Options returns every registered option in registration order.
func (s *ConfigSchema) Options() []ConfigOption {
	out := make([]ConfigOption, 0, len(s.options))
	for _, o := range s.options {
		out = append(out, *o)
	}
	return out
}

// SectionOptions returns the options of section ("" for global).
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted names of all sections with options.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value of a global option: its environment
// variable if set, else the file value, else the default.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	return s.ResolveSection(c, "", key)
}

// ResolveSection is Resolve for an option in section. A section value falls
// back to a global value of the same key before the default.
func (s *ConfigSchema) ResolveSection(c *Config, section, key string) string {
	opt := s.Lookup(section, key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if c != nil {
		var (
			v  string
			ok bool
		)
		if section == "" {
			v, ok = c.GetGlobalOption(key)
		} else {
			v, ok = c.GetSectionOption(section, key)
		}
		if ok {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ResolveBool resolves a boolean option. Invalid values yield the default.
func (s *ConfigSchema) ResolveBool(c *Config, section, key string) bool {
	if b, err := parseBool(s.ResolveSection(c, section, key)); err == nil {
		return b
	}
	if opt := s.Lookup(section, key); opt != nil {
		b, _ := parseBool(opt.Default)
		return b
	}
	return false
}

// ResolveInt resolves an integer option. Invalid values yield the default.
func (s *ConfigSchema) ResolveInt(c *Config, section, key string) int {
	if n, err := parseInt(s.ResolveSection(c, section, key)); err == nil {
		return n
	}
	if opt := s.Lookup(section, key); opt != nil {
		n, _ := parseInt(opt.Default)
		return n
	}
	return 0
}

// ValidateConfig returns a sorted list of problems with c: unknown options,
// type mismatches and values outside an option's choices.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := ValidateValue(opt, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Sections {
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option in [%s]: %q (value: %q)", section, key, value))
				continue
			}
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if err := ValidateValue(opt, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// ValidateValue checks value against the type and choices of opt.
func ValidateValue(opt *ConfigOption, value string) error {
	switch opt.Type {
	case TypeString, "":
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := parseInt(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", opt.Type)
	}
	if len(opt.Choices) != 0 && !slices.Contains(opt.Choices, strings.ToLower(value)) {
		return fmt.Errorf("expected one of %s, got %q", strings.Join(opt.Choices, ", "), value)
	}
	return nil
}

// FormatHelp renders every option grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	if globals := s.SectionOptions(""); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}
	for _, sec := range s.Sections() {
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range s.SectionOptions(sec) {
			writeOptionHelp(&b, o)
		}
	}
	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-24s %s", o.Key, o.Description)
	parts := make([]string, 0, 4)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, "type: "+string(o.Type))
	}
	if len(o.Choices) != 0 {
		parts = append(parts, "one of: "+strings.Join(o.Choices, "|"))
	}
	if o.Default != "" {
		parts = append(parts, "default: "+o.Default)
	}
	if o.EnvVar != "" {
		parts = append(parts, "env: "+o.EnvVar)
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// Section names.
const (
	SectionExport = "export"
)

// Option keys.
const (
	KeyLogFile            = "log.file"
	KeyLogLevel           = "log.level"
	KeyLogMaxSizeMB       = "log.max-size-mb"
	KeyLogMaxFiles        = "log.max-files"
	KeyLogStderr          = "log.stderr"
	KeyAudioCommand       = "audio.command"
	KeyPlayerClear        = "player.clear"
	KeyPlayerPromptSuffix = "player.prompt-suffix"
	KeyPlayerColorProfile = "player.color-profile"
	KeyExportCols         = "cols"
	KeyExportRows         = "rows"
)

// DefaultSchema declares every option cliplay understands.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: KeyLogFile, Type: TypeString, Description: "Log file path (JSON lines, rotated)", EnvVar: "CLIPLAY_LOG_FILE"},
		{Key: KeyLogLevel, Type: TypeString, Default: "info", Description: "Log level", EnvVar: "CLIPLAY_LOG_LEVEL", Choices: []string{"debug", "info", "warn", "error"}},
		{Key: KeyLogMaxSizeMB, Type: TypeInt, Default: "10", Description: "Max log file size in MB before rotation"},
		{Key: KeyLogMaxFiles, Type: TypeInt, Default: "5", Description: "Max number of rotated log files kept"},
		{Key: KeyLogStderr, Type: TypeBool, Default: "false", Description: "Also write structured logs to stderr"},

		{Key: KeyAudioCommand, Type: TypeString, Description: "Audio player command; {file} is replaced by the track (empty: auto-detect)", EnvVar: "CLIPLAY_AUDIO_COMMAND"},

		{Key: KeyPlayerClear, Type: TypeBool, Default: "true", Description: "Clear the screen and show the prompt before playback"},
		{Key: KeyPlayerPromptSuffix, Type: TypeString, Default: "> ", Description: "Text printed after the display name in prompts"},
		{Key: KeyPlayerColorProfile, Type: TypeString, Default: "truecolor", Description: "Color output", Choices: []string{"truecolor", "ansi256", "ansi", "ascii"}},

		{Key: KeyExportCols, Section: SectionExport, Type: TypeInt, Default: "80", Description: "Recording width in columns"},
		{Key: KeyExportRows, Section: SectionExport, Type: TypeInt, Default: "24", Description: "Recording height in rows"},
	})
	return s
}
