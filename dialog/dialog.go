// Package dialog renders the canned sentences the skill speaks.
//
// Each dialog lives in locale/<lang>/<name>.dialog with one phrasing per
// line; one is picked at random. {name} placeholders are filled from the
// supplied values.
package dialog

import (
	"embed"
	"io/fs"
	"math/rand/v2"
	"path"
	"strings"
)

const fallbackLang = "en-us"

//go:embed locale
var locales embed.FS

type Renderer struct {
	lang    string
	dialogs map[string]map[string][]string
	pick    func(n int) int
}

func New(lang string) (*Renderer, error) {
	return NewFromFS(locales, "locale", lang)
}

// NewFromFS loads <root>/<lang>/*.dialog for every language directory in fsys.
func NewFromFS(fsys fs.FS, root, lang string) (*Renderer, error) {
	r := &Renderer{
		lang:    strings.ToLower(lang),
		dialogs: make(map[string]map[string][]string),
		pick:    rand.IntN,
	}

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".dialog" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		l := path.Base(path.Dir(p))
		if r.dialogs[l] == nil {
			r.dialogs[l] = make(map[string][]string)
		}
		name := strings.TrimSuffix(path.Base(p), ".dialog")
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
				r.dialogs[l][name] = append(r.dialogs[l][name], line)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) Lang() string {
	return r.lang
}

// Render returns one phrasing of the named dialog. Unknown dialogs render as
// their name with dots turned into spaces.
func (r *Renderer) Render(name string, values map[string]string) string {
	lines := r.dialogs[r.lang][name]
	if len(lines) == 0 {
		lines = r.dialogs[fallbackLang][name]
	}
	if len(lines) == 0 {
		return strings.ReplaceAll(name, ".", " ")
	}

	text := lines[r.pick(len(lines))]
	for k, v := range values {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}
