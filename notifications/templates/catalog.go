// Package templates renders the notification content catalog. Rendering is a
// pure mapping from a template kind and a parameter set to a subject line and
// an HTML plus plain text body. Parameters missing from the set render as
// empty strings rather than failing.
package templates

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"sync"
	texttemplate "text/template"

	root "github.com/clubhub/club-backend"
)

// Rendered is the output of the renderer for a single template.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Catalog parses and caches the notification templates. The backing
// filesystem is injectable so deployments can override the embedded assets;
// Invalidate drops the parsed cache so overrides take effect without a
// restart.
type Catalog struct {
	mu    sync.RWMutex
	fsys  fs.FS
	cache map[Kind]*htmltemplate.Template
}

// NewCatalog creates a template catalog backed by the given filesystem. A nil
// filesystem selects the embedded assets.
func NewCatalog(fsys fs.FS) *Catalog {
	if fsys == nil {
		fsys = root.Assets
	}
	return &Catalog{
		fsys:  fsys,
		cache: make(map[Kind]*htmltemplate.Template),
	}
}

// Invalidate drops every parsed template from the cache. The next Render
// reparses from the backing filesystem.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[Kind]*htmltemplate.Template)
}

// Render executes the template of the given kind with the provided
// parameters. Rendering is deterministic: identical inputs produce identical
// output. Unknown kinds return ErrTemplateNotFound; any parameter key the
// template references but the map lacks is substituted with an empty string.
func (c *Catalog) Render(kind Kind, params map[string]string) (*Rendered, error) {
	def, err := kind.definition()
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]string{}
	}
	htmlTmpl, err := c.htmlTemplate(kind, def)
	if err != nil {
		return nil, err
	}
	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, params); err != nil {
		return nil, fmt.Errorf("could not execute template %q: %w", def.file, err)
	}
	subject, err := execText("subject", def.subject, params)
	if err != nil {
		return nil, err
	}
	text, err := execText("plain", def.plain, params)
	if err != nil {
		return nil, err
	}
	return &Rendered{
		Subject: subject,
		HTML:    html.String(),
		Text:    text,
	}, nil
}

// htmlTemplate returns the parsed HTML template for the kind, parsing and
// caching it on first use.
func (c *Catalog) htmlTemplate(kind Kind, def definition) (*htmltemplate.Template, error) {
	c.mu.RLock()
	tmpl, ok := c.cache[kind]
	c.mu.RUnlock()
	if ok {
		return tmpl, nil
	}
	raw, err := fs.ReadFile(c.fsys, "assets/"+def.file+".html")
	if err != nil {
		return nil, fmt.Errorf("could not read template %q: %w", def.file, err)
	}
	tmpl, err = htmltemplate.New(def.file).Option("missingkey=zero").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("could not parse template %q: %w", def.file, err)
	}
	c.mu.Lock()
	c.cache[kind] = tmpl
	c.mu.Unlock()
	return tmpl, nil
}

func execText(name, body string, params map[string]string) (string, error) {
	tmpl, err := texttemplate.New(name).Option("missingkey=zero").Parse(body)
	if err != nil {
		return "", fmt.Errorf("could not parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("could not execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
