/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package svg

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Encode writes root as an XML document. Namespaced names are written with
// their fixed prefixes and the namespaces are declared on the root element.
func Encode(w io.Writer, root *Node) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", "  ")
	if err := encodeNode(enc, root, true); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

func encodeNode(enc *xml.Encoder, n *Node, root bool) error {
	se := xml.StartElement{Name: xml.Name{Local: qualified(n.Name)}}
	if root {
		se.Attr = append(se.Attr,
			xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: NS},
			xml.Attr{Name: xml.Name{Local: "xmlns:vo"}, Value: VONS},
			xml.Attr{Name: xml.Name{Local: "xmlns:xlink"}, Value: XLinkNS},
		)
	}
	for _, a := range n.Attrs {
		se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: qualified(a.Name)}, Value: a.Value})
	}
	if err := enc.EncodeToken(se); err != nil {
		return fmt.Errorf("encode <%s>: %w", se.Name.Local, err)
	}
	if n.Text != "" {
		if err := enc.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := encodeNode(enc, c, false); err != nil {
			return err
		}
	}
	return enc.EncodeToken(se.End())
}

// Decode parses an XML document and returns its root element. Documents in
// a non-UTF-8 encoding are converted through their declared charset.
func Decode(r io.Reader) (*Node, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	var root *Node
	var stack []*Node
	for {
		t, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse svg: %w", err)
		}
		switch se := t.(type) {
		case xml.StartElement:
			n := &Node{Name: se.Name}
			for _, a := range se.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				n.Attrs = append(n.Attrs, a)
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("parse svg: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(se)
			}
		}
	}
	if root == nil {
		return nil, errors.New("parse svg: no root element")
	}
	return root, nil
}
