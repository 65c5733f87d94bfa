package analyzers

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pageaudit/internal/domain"
)

// walk visits n and its descendants depth first. Returning false from fn skips
// the children of that node.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// elements returns every element node with one of the given atoms.
func elements(root *html.Node, atoms ...atom.Atom) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			for _, a := range atoms {
				if n.DataAtom == a {
					out = append(out, n)
					break
				}
			}
		}
		return true
	})
	return out
}

func first(root *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return strings.TrimSpace(v)
}

var spaces = regexp.MustCompile(`\s+`)

// text returns the visible text under n with whitespace collapsed. Script,
// style and template content is skipped.
func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		switch {
		case c.Type == html.ElementNode && (c.DataAtom == atom.Script || c.DataAtom == atom.Style ||
			c.DataAtom == atom.Noscript || c.DataAtom == atom.Template):
			return false
		case c.Type == html.TextNode:
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.TrimSpace(spaces.ReplaceAllString(b.String(), " "))
}

// metas maps lower-cased meta name or property to content. The first
// occurrence wins.
func metas(root *html.Node) map[string]string {
	out := map[string]string{}
	for _, m := range elements(root, atom.Meta) {
		key := attrOr(m, "property")
		if key == "" {
			key = attrOr(m, "name")
		}
		if key == "" {
			continue
		}
		key = strings.ToLower(key)
		if _, seen := out[key]; !seen {
			out[key] = attrOr(m, "content")
		}
	}
	return out
}

// links returns the absolute http(s) hrefs of every anchor, resolved against
// base.
func links(root *html.Node, base *url.URL) []string {
	var out []string
	for _, a := range elements(root, atom.A) {
		href := attrOr(a, "href")
		if u, ok := resolve(base, href); ok {
			out = append(out, u.String())
		}
	}
	return out
}

func resolve(base *url.URL, ref string) (*url.URL, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return nil, false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	u.Fragment = ""
	return u, true
}

// sameSite reports whether u belongs to the same registrable domain as base.
func sameSite(base, u *url.URL) bool {
	return domain.RegistrableHost(base.Hostname()) == domain.RegistrableHost(u.Hostname())
}

// jsonLD decodes every application/ld+json block. Invalid blocks are skipped.
func jsonLD(root *html.Node) []map[string]any {
	var out []map[string]any
	for _, s := range elements(root, atom.Script) {
		if !strings.EqualFold(attrOr(s, "type"), "application/ld+json") || s.FirstChild == nil {
			continue
		}
		var raw any
		if err := json.Unmarshal([]byte(s.FirstChild.Data), &raw); err != nil {
			continue
		}
		collectLD(raw, &out)
	}
	return out
}

// collectLD flattens arrays and @graph containers into single objects.
func collectLD(v any, out *[]map[string]any) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			collectLD(item, out)
		}
	case map[string]any:
		*out = append(*out, t)
		if g, ok := t["@graph"]; ok {
			collectLD(g, out)
		}
	}
}

// ldTypes returns the @type values of obj.
func ldTypes(obj map[string]any) []string {
	switch t := obj["@type"].(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func hasLDType(obj map[string]any, types ...string) bool {
	for _, t := range ldTypes(obj) {
		for _, want := range types {
			if strings.EqualFold(t, want) {
				return true
			}
		}
	}
	return false
}

// ldString reads a string property, or the name of a nested object.
func ldString(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if s, ok := v["name"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
