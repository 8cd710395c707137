package mpd

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// LocalName strips a "{namespace-uri}" prefix from a tag name, e.g.
// "{urn:mpeg:dash:schema:mpd:2011}SegmentTemplate" becomes "SegmentTemplate".
// A tag without a closing brace is returned unchanged.
func LocalName(tag string) (string, error) {
	if tag == "" {
		return "", fmt.Errorf("%w: empty tag", ErrTag)
	}
	name := tag[strings.Index(tag, "}")+1:]
	if name == "" {
		return "", fmt.Errorf("%w: %q has no local name", ErrTag, tag)
	}
	return name, nil
}

// QualifiedName returns the tag of an element node in "{namespace-uri}LocalName"
// form, or an empty string for anything that is not an element.
func QualifiedName(n *xmlquery.Node) string {
	if n == nil || n.Type != xmlquery.ElementNode {
		return ""
	}
	if n.NamespaceURI == "" {
		return n.Data
	}
	return "{" + n.NamespaceURI + "}" + n.Data
}

// hasTag reports whether the normalized tag of n contains name.
// Nodes without a usable tag never match.
func hasTag(n *xmlquery.Node, name string) bool {
	local, err := LocalName(QualifiedName(n))
	if err != nil {
		return false
	}
	return strings.Contains(local, name)
}

// elementChildren returns the element children of n in document order.
func elementChildren(n *xmlquery.Node) []*xmlquery.Node {
	var children []*xmlquery.Node
	if n == nil {
		return children
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			children = append(children, c)
		}
	}
	return children
}

// attr looks up an attribute by local name.
func attr(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
