package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lflog/lflog/types"
)

const sampleConfig = `
[[custom_macros]]
name = "ip"
pattern = '\d{1,3}(?:\.\d{1,3}){3}'
type_hint = "string"
description = "IPv4 address"

[[custom_macros]]
name = "hexid"
pattern = '[0-9a-f]{8}'
type_hint = "string"

[[profiles]]
name = "apache"
pattern = '^\[{{time:datetime("%a %b %d %H:%M:%S %Y")}}\] \[{{level:var_name}}\] {{message:any}}$'
description = "Apache error log"

[[profiles]]
name = "access"
pattern = '^{{client:ip}} {{status:number(3)}}$'

[[profiles.custom_macros]]
name = "ip"
pattern = '[0-9.]+'
type_hint = "string"
`

func TestParse(t *testing.T) {
	p, err := Parse(sampleConfig)
	if err != nil {
		t.Fatal(err)
	}

	if len(p.CustomMacros) != 2 {
		t.Errorf("top-level macros = %d, want 2", len(p.CustomMacros))
	}
	if len(p.Profiles) != 2 {
		t.Fatalf("profiles = %d, want 2", len(p.Profiles))
	}

	apache, ok := p.GetProfile("apache")
	if !ok {
		t.Fatal("apache profile not found")
	}
	if apache.Description != "Apache error log" {
		t.Errorf("description = %q", apache.Description)
	}
	// Top-level macros are inherited.
	if len(apache.CustomMacros) != 2 {
		t.Errorf("apache macros = %d, want 2 inherited", len(apache.CustomMacros))
	}

	if _, ok := p.GetProfile("missing"); ok {
		t.Error("lookup of unknown profile should fail")
	}
}

func TestParseProfileMacroPrecedence(t *testing.T) {
	p, err := Parse(sampleConfig)
	if err != nil {
		t.Fatal(err)
	}
	access, ok := p.GetProfile("access")
	if !ok {
		t.Fatal("access profile not found")
	}
	// Profile-local ip definition comes first, so name lookups see it before
	// the inherited top-level one.
	if len(access.CustomMacros) != 3 {
		t.Fatalf("access macros = %d, want 3 (1 local + 2 inherited)", len(access.CustomMacros))
	}
	if access.CustomMacros[0].Pattern != "[0-9.]+" {
		t.Errorf("first macro = %+v, want the profile-local ip", access.CustomMacros[0])
	}
}

func TestParseTypeHints(t *testing.T) {
	p, err := Parse(sampleConfig)
	if err != nil {
		t.Fatal(err)
	}
	ip, ok := p.GetMacro("ip")
	if !ok {
		t.Fatal("ip macro not found")
	}
	if ip.TypeHint == nil || ip.TypeHint.Kind != types.String {
		t.Errorf("ip hint = %v, want string", ip.TypeHint)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"macro without name", "[[custom_macros]]\npattern = 'x'"},
		{"macro without pattern", "[[custom_macros]]\nname = 'x'"},
		{"bad type hint", "[[custom_macros]]\nname = 'x'\npattern = 'y'\ntype_hint = 'decimal'"},
		{"profile without name", "[[profiles]]\npattern = 'x'"},
		{"profile without pattern", "[[profiles]]\nname = 'x'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.doc); !errors.Is(err, ErrConfig) {
				t.Errorf("Parse error = %v, want ErrConfig", err)
			}
		})
	}

	if _, err := Parse("not [ valid toml"); err == nil {
		t.Error("invalid TOML should fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("/explicit/path.toml"); got != "/explicit/path.toml" {
		t.Errorf("explicit path = %q", got)
	}

	t.Setenv(ConfigEnvVar, "/from/env.toml")
	if got := ResolvePath(""); got != "/from/env.toml" {
		t.Errorf("env path = %q", got)
	}

	t.Setenv(ConfigEnvVar, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	if got := ResolvePath(""); got != "" {
		t.Errorf("no config anywhere = %q, want empty", got)
	}

	dir := filepath.Join(home, ".config", "lflog")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	def := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(def, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ResolvePath(""); got != def {
		t.Errorf("default path = %q, want %q", got, def)
	}
}
