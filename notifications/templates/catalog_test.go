package templates

import (
	"strings"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
)

func TestRenderAllKinds(t *testing.T) {
	c := qt.New(t)
	catalog := NewCatalog(nil)
	for _, kind := range Kinds {
		c.Run(kind.TemplateID(), func(c *qt.C) {
			params := map[string]string{}
			for _, key := range kind.RequiredParams() {
				params[key] = "value-" + key
			}
			rendered, err := catalog.Render(kind, params)
			c.Assert(err, qt.IsNil)
			c.Assert(rendered.Subject, qt.Not(qt.Equals), "")
			c.Assert(rendered.HTML, qt.Not(qt.Equals), "")
			c.Assert(rendered.Text, qt.Not(qt.Equals), "")
			// no template tokens may survive rendering
			c.Assert(rendered.HTML, qt.Not(qt.Contains), "{{")
			c.Assert(rendered.Subject, qt.Not(qt.Contains), "{{")
			c.Assert(rendered.Text, qt.Not(qt.Contains), "{{")
			// every provided parameter shows up somewhere in the output
			for _, key := range kind.RequiredParams() {
				combined := rendered.Subject + rendered.HTML + rendered.Text
				c.Assert(strings.Contains(combined, "value-"+key), qt.IsTrue,
					qt.Commentf("parameter %q not substituted", key))
			}
		})
	}
}

func TestRenderMissingParams(t *testing.T) {
	c := qt.New(t)
	catalog := NewCatalog(nil)
	// rendering with no parameters substitutes empty strings, it never fails
	for _, kind := range Kinds {
		rendered, err := catalog.Render(kind, nil)
		c.Assert(err, qt.IsNil)
		c.Assert(rendered.HTML, qt.Not(qt.Contains), "{{")
		c.Assert(rendered.HTML, qt.Not(qt.Contains), "<no value>")
	}
}

func TestRenderDeterministic(t *testing.T) {
	c := qt.New(t)
	catalog := NewCatalog(nil)
	params := map[string]string{"name": "Kari", "orgName": "Oslo Pistol Club"}
	first, err := catalog.Render(MemberApproved, params)
	c.Assert(err, qt.IsNil)
	second, err := catalog.Render(MemberApproved, params)
	c.Assert(err, qt.IsNil)
	c.Assert(second, qt.DeepEquals, first)
}

func TestRenderUnknownKind(t *testing.T) {
	c := qt.New(t)
	catalog := NewCatalog(nil)
	_, err := catalog.Render(Kind(999), map[string]string{})
	c.Assert(err, qt.Equals, ErrTemplateNotFound)
	c.Assert(Kind(999).TemplateID(), qt.Equals, "")
}

func TestByTemplateID(t *testing.T) {
	c := qt.New(t)
	for _, kind := range Kinds {
		resolved, err := ByTemplateID(kind.TemplateID())
		c.Assert(err, qt.IsNil)
		c.Assert(resolved, qt.Equals, kind)
	}
	_, err := ByTemplateID("does-not-exist")
	c.Assert(err, qt.Equals, ErrTemplateNotFound)
}

func TestCatalogInvalidate(t *testing.T) {
	c := qt.New(t)
	fsys := fstest.MapFS{
		"assets/" + MemberApproved.TemplateID() + ".html": &fstest.MapFile{
			Data: []byte("<p>Hello {{.name}}</p>"),
		},
	}
	catalog := NewCatalog(fsys)
	rendered, err := catalog.Render(MemberApproved, map[string]string{"name": "Kari"})
	c.Assert(err, qt.IsNil)
	c.Assert(rendered.HTML, qt.Equals, "<p>Hello Kari</p>")
	// the parsed template is cached, a filesystem change alone is invisible
	fsys["assets/"+MemberApproved.TemplateID()+".html"] = &fstest.MapFile{
		Data: []byte("<p>Hi {{.name}}</p>"),
	}
	rendered, err = catalog.Render(MemberApproved, map[string]string{"name": "Kari"})
	c.Assert(err, qt.IsNil)
	c.Assert(rendered.HTML, qt.Equals, "<p>Hello Kari</p>")
	// invalidation reloads from the filesystem
	catalog.Invalidate()
	rendered, err = catalog.Render(MemberApproved, map[string]string{"name": "Kari"})
	c.Assert(err, qt.IsNil)
	c.Assert(rendered.HTML, qt.Equals, "<p>Hi Kari</p>")
}
