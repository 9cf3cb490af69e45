// Package catalog maps the names a user speaks to MagicMirror modules.
//
// AvailableModules.json is maintained by hand. On every connect the identifiers
// reported by the mirror are merged in and the result is written to
// AvailableModulesWithIdentifier.json. Identifiers depend on module order in
// the mirror's config.js, so the derived file must never be edited.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	AvailableFile = "AvailableModules.json"
	DerivedFile   = "AvailableModulesWithIdentifier.json"
)

const (
	LangEnglish = "en-us"
	LangThai    = "th-th"
)

const kalliopeName = "kalliope"

var ErrNoSuchModule = errors.New("no such module")

type Module struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	SpokenName string `json:"mycroftname"`
	ThaiName   string `json:"mycroftnamethai,omitempty"`
	URL        string `json:"URL"`
}

type Catalog struct {
	Modules []Module `json:"moduleData"`
}

// InstalledModule is an entry of the mirror's MODULE_DATA response.
type InstalledModule struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode module catalog %s: %w", path, err)
	}
	return &c, nil
}

func (c *Catalog) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write module catalog: %w", err)
	}
	return nil
}

// Merge copies identifiers of installed modules into the catalog. Modules the
// mirror does not report are left with an empty identifier.
func (c *Catalog) Merge(installed []InstalledModule) {
	ids := make(map[string]string, len(installed))
	for _, m := range installed {
		ids[m.Name] = m.Identifier
	}
	for i := range c.Modules {
		c.Modules[i].Identifier = ids[c.Modules[i].Name]
	}
}

func (m Module) spoken(lang string) string {
	if lang == LangThai {
		return m.ThaiName
	}
	return m.SpokenName
}

func (m Module) Installed() bool {
	return m.Identifier != ""
}

// Lookup returns the installed module the user called spoken.
func (c *Catalog) Lookup(spoken, lang string) (Module, error) {
	spoken = strings.TrimSpace(strings.ToLower(spoken))
	for _, m := range c.Modules {
		if m.spoken(lang) == "" || strings.ToLower(m.spoken(lang)) != spoken {
			continue
		}
		if !m.Installed() {
			return m, fmt.Errorf("%w: %s is not installed", ErrNoSuchModule, spoken)
		}
		return m, nil
	}
	return Module{}, fmt.Errorf("%w: %s", ErrNoSuchModule, spoken)
}

// Installed lists the spoken names of all modules present on the mirror.
func (c *Catalog) Installed(lang string) []string {
	var names []string
	for _, m := range c.Modules {
		if m.Installed() && m.spoken(lang) != "" {
			names = append(names, m.spoken(lang))
		}
	}
	return names
}

func (c *Catalog) KalliopeInstalled() bool {
	for _, m := range c.Modules {
		if m.SpokenName == kalliopeName {
			return m.Installed()
		}
	}
	return false
}
