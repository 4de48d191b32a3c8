package save

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Marshal renders the document as YAML. Every opened section must have
// been closed.
func Marshal(c *Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the document as YAML to w.
func (c *Context) Encode(w io.Writer) error {
	if err := c.checkBalanced(); err != nil {
		return err
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{sectionNode(c.root)}}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	return enc.Close()
}

func sectionNode(s *Section) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range s.entries {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.key}
		if e.section != nil {
			n.Content = append(n.Content, key, sectionNode(e.section))
			continue
		}
		n.Content = append(n.Content, key, scalarNode(e.val))
	}
	return n
}

func scalarNode(v value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.kind {
	case kindString:
		n.Tag, n.Value = "!!str", v.s
	case kindInt:
		n.Tag, n.Value = "!!int", strconv.FormatInt(v.i, 10)
	case kindUint:
		n.Tag, n.Value = "!!int", strconv.FormatUint(v.u, 10)
	case kindDouble:
		n.Tag, n.Value = "!!float", formatFloat(v.f)
	case kindBool:
		n.Tag, n.Value = "!!bool", strconv.FormatBool(v.b)
	}
	return n
}

// formatFloat uses the shortest round-tripping form and keeps a decimal
// point so the value reads back as a float.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Unmarshal parses a YAML document into a context positioned at its root.
func Unmarshal(data []byte) (*Context, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: root is not a mapping", ErrInvalidDocument)
	}
	root := newSection("")
	if err := readMapping(root, doc.Content[0]); err != nil {
		return nil, err
	}
	return &Context{root: root}, nil
}

// Decode reads a YAML document from r.
func Decode(r io.Reader) (*Context, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	return Unmarshal(data)
}

func readMapping(s *Section, n *yaml.Node) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch val.Kind {
		case yaml.MappingNode:
			if err := readMapping(s.child(key, true), val); err != nil {
				return err
			}
		case yaml.ScalarNode:
			v, ok, err := readScalar(val)
			if err != nil {
				return fmt.Errorf("%w: key %q: %v", ErrInvalidDocument, key, err)
			}
			if ok {
				s.put(key, v)
			}
		}
		// Sequences and aliases are not produced by the encoder and are skipped.
	}
	return nil
}

func readScalar(n *yaml.Node) (value, bool, error) {
	switch n.ShortTag() {
	case "!!str":
		return value{kind: kindString, s: n.Value}, true, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return value{kind: kindInt, i: i}, true, nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return value{}, false, err
		}
		return value{kind: kindUint, u: u}, true, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return value{}, false, err
		}
		return value{kind: kindDouble, f: f}, true, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return value{}, false, err
		}
		return value{kind: kindBool, b: b}, true, nil
	case "!!null":
		return value{}, false, nil
	}
	return value{kind: kindString, s: n.Value}, true, nil
}
