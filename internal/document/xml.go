package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type xmlElement struct {
	name   string
	fields map[string]any
	text   strings.Builder
}

// decodeXML turns an XML document into the document tree.
//
// Attributes and child elements become map entries keyed by local name.
// A child given more than once becomes a list in document order. A leaf
// element becomes its trimmed text; text next to attributes or children is
// kept under ContentKey. Leaf text is never coerced to numbers, so ids such
// as "007" survive.
func decodeXML(r io.Reader) (any, error) {
	dec := xml.NewDecoder(r)
	var stack []*xmlElement
	var root map[string]any

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElement{name: t.Name.Local, fields: make(map[string]any)}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.fields[a.Name.Local] = a.Value
			}
			stack = append(stack, el)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			value := el.value()
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = map[string]any{el.name: value}
				continue
			}
			addChild(stack[len(stack)-1].fields, el.name, value)
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

func (el *xmlElement) value() any {
	text := strings.TrimSpace(el.text.String())
	if len(el.fields) == 0 {
		return text
	}
	if text != "" {
		el.fields[ContentKey] = text
	}
	return el.fields
}

func addChild(fields map[string]any, name string, value any) {
	prev, ok := fields[name]
	if !ok {
		fields[name] = value
		return
	}
	if list, isList := prev.([]any); isList {
		fields[name] = append(list, value)
		return
	}
	fields[name] = []any{prev, value}
}
