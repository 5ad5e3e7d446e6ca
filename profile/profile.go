// Package profile loads named patterns and custom macros from TOML
// configuration files.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/lflog/lflog/macros"
	"github.com/lflog/lflog/types"
)

// ErrConfig marks missing or inconsistent configuration inputs.
var ErrConfig = errors.New("configuration error")

// ConfigEnvVar points at the profile file when no --config flag is given.
const ConfigEnvVar = "LFLOG_CONFIG"

// Profile is a reusable named pattern plus the custom macros it may use.
type Profile struct {
	Name         string               `toml:"name"`
	Pattern      string               `toml:"pattern"`
	CustomMacros []macros.CustomMacro `toml:"custom_macros"`
	Description  string               `toml:"description"`
}

// Profiles is a loaded configuration document. Top-level custom macros are
// appended to every profile's own list at load time, so profile-local
// definitions keep precedence.
type Profiles struct {
	CustomMacros []macros.CustomMacro `toml:"custom_macros"`
	Profiles     []Profile            `toml:"profiles"`
}

// rawMacro mirrors the TOML shape of a custom macro; the type hint arrives
// as a string tag.
type rawMacro struct {
	Name        string `toml:"name"`
	Pattern     string `toml:"pattern"`
	TypeHint    string `toml:"type_hint"`
	Description string `toml:"description"`
}

type rawProfile struct {
	Name         string     `toml:"name"`
	Pattern      string     `toml:"pattern"`
	CustomMacros []rawMacro `toml:"custom_macros"`
	Description  string     `toml:"description"`
}

type rawProfiles struct {
	CustomMacros []rawMacro   `toml:"custom_macros"`
	Profiles     []rawProfile `toml:"profiles"`
}

// Load reads and decodes a profile file.
func Load(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes a TOML profile document.
func Parse(data string) (*Profiles, error) {
	var raw rawProfiles
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	top, err := convertMacros(raw.CustomMacros)
	if err != nil {
		return nil, err
	}

	out := &Profiles{CustomMacros: top}
	for _, rp := range raw.Profiles {
		if rp.Name == "" {
			return nil, fmt.Errorf("%w: profile without a name", ErrConfig)
		}
		if rp.Pattern == "" {
			return nil, fmt.Errorf("%w: profile %q has no pattern", ErrConfig, rp.Name)
		}
		own, err := convertMacros(rp.CustomMacros)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", rp.Name, err)
		}
		p := Profile{
			Name:        rp.Name,
			Pattern:     rp.Pattern,
			Description: rp.Description,
			// Profile-local macros first so they win name lookups.
			CustomMacros: append(own, top...),
		}
		out.Profiles = append(out.Profiles, p)
	}
	return out, nil
}

func convertMacros(raw []rawMacro) ([]macros.CustomMacro, error) {
	var out []macros.CustomMacro
	for _, rm := range raw {
		if rm.Name == "" {
			return nil, fmt.Errorf("%w: custom macro without a name", ErrConfig)
		}
		if rm.Pattern == "" {
			return nil, fmt.Errorf("%w: custom macro %q has no pattern", ErrConfig, rm.Name)
		}
		m := macros.CustomMacro{
			Name:        rm.Name,
			Pattern:     rm.Pattern,
			Description: rm.Description,
		}
		if rm.TypeHint != "" {
			t, err := types.Parse(rm.TypeHint)
			if err != nil {
				return nil, fmt.Errorf("%w: custom macro %q: %v", ErrConfig, rm.Name, err)
			}
			m.TypeHint = &t
		}
		out = append(out, m)
	}
	return out, nil
}

// GetProfile looks a profile up by name.
func (p *Profiles) GetProfile(name string) (*Profile, bool) {
	for i := range p.Profiles {
		if p.Profiles[i].Name == name {
			return &p.Profiles[i], true
		}
	}
	return nil, false
}

// GetMacro looks a top-level custom macro up by name.
func (p *Profiles) GetMacro(name string) (*macros.CustomMacro, bool) {
	for i := range p.CustomMacros {
		if p.CustomMacros[i].Name == name {
			return &p.CustomMacros[i], true
		}
	}
	return nil, false
}

// ResolvePath finds the configuration file: explicit path first, then the
// LFLOG_CONFIG environment variable, then ~/.config/lflog/config.toml when
// it exists. Returns "" when no configuration is available.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(ConfigEnvVar); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	def := filepath.Join(home, ".config", "lflog", "config.toml")
	if _, err := os.Stat(def); err == nil {
		return def
	}
	return ""
}
