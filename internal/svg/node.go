/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package svg is a small SVG DOM: elements with ordered, namespaced
// attributes, bound to Go fields through get/set accessors, plus an XML
// reader and writer.
package svg

import "encoding/xml"

// Namespaces used by canvas documents.
const (
	NS      = "http://www.w3.org/2000/svg"
	VONS    = "http://www.aurigma.com/graphicsmill/vectorobjects"
	XLinkNS = "http://www.w3.org/1999/xlink"
	XMLNS   = "http://www.w3.org/XML/1998/namespace"
)

// prefixes maps namespaces to the prefix written for them.
var prefixes = map[string]string{
	VONS:    "vo",
	XLinkNS: "xlink",
	XMLNS:   "xml",
}

// N names an attribute without namespace (plain SVG attributes).
func N(local string) xml.Name { return xml.Name{Local: local} }

// VO names an attribute in the vectorobjects namespace.
func VO(local string) xml.Name { return xml.Name{Space: VONS, Local: local} }

// XLink names an attribute in the xlink namespace.
func XLink(local string) xml.Name { return xml.Name{Space: XLinkNS, Local: local} }

// Node is one element of the document tree. Text holds the character data
// directly inside the element.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node
	Text     string
}

// NewNode creates an SVG element.
func NewNode(local string) *Node { return &Node{Name: xml.Name{Space: NS, Local: local}} }

// Is reports whether n is the SVG element local.
func (n *Node) Is(local string) bool {
	return n != nil && n.Name.Local == local && (n.Name.Space == NS || n.Name.Space == "")
}

// Attr returns the value of the attribute name.
func (n *Node) Attr(name xml.Name) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Get returns the value of the attribute name, "" when absent.
func (n *Node) Get(name xml.Name) string {
	v, _ := n.Attr(name)
	return v
}

// SetAttr sets or replaces an attribute, keeping the attribute order.
func (n *Node) SetAttr(name xml.Name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: name, Value: value})
}

// ID returns the id attribute.
func (n *Node) ID() string { return n.Get(N("id")) }

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Child returns the first direct child named local.
func (n *Node) Child(local string) *Node {
	for _, c := range n.Children {
		if c.Is(local) {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the direct children named local in document order.
func (n *Node) ChildrenNamed(local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Is(local) {
			out = append(out, c)
		}
	}
	return out
}

// FindByID searches the subtree of n, n included, for the element with id.
func (n *Node) FindByID(id string) *Node {
	if n.ID() == id {
		return n
	}
	for _, c := range n.Children {
		if f := c.FindByID(id); f != nil {
			return f
		}
	}
	return nil
}
