// pkg/manifest/yaml.go

package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlDocument edits the node tree so comments and key order are kept.
type yamlDocument struct {
	root   yaml.Node
	indent int
}

const defaultYAMLIndent = 2

func parseYAML(data []byte) (*yamlDocument, error) {
	doc := &yamlDocument{indent: detectYAMLIndent(data)}
	if err := yaml.Unmarshal(data, &doc.root); err != nil {
		return nil, err
	}
	if doc.root.Kind != yaml.DocumentNode || len(doc.root.Content) == 0 ||
		doc.root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a YAML mapping at top level")
	}
	return doc, nil
}

// detectYAMLIndent returns the width of the first indented non-comment line.
// Widths the encoder cannot emit fall back to two spaces.
func detectYAMLIndent(data []byte) int {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || len(trimmed) == len(line) {
			continue
		}
		if n := len(line) - len(trimmed); n >= 2 && n <= 9 {
			return n
		}
		return defaultYAMLIndent
	}
	return defaultYAMLIndent
}

func (d *yamlDocument) mapping() *yaml.Node {
	return d.root.Content[0]
}

func (d *yamlDocument) find(key string) *yaml.Node {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func (d *yamlDocument) lookupString(key string) (string, bool, error) {
	n := d.find(key)
	if n == nil {
		return "", false, nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", true, fmt.Errorf("%s is not a scalar", key)
	}
	return n.Value, true, nil
}

func (d *yamlDocument) lookupMap(key string) (map[string]string, error) {
	out := map[string]string{}
	n := d.find(key)
	if n == nil || n.Tag == "!!null" {
		return out, nil
	}
	if err := n.Decode(&out); err != nil {
		return nil, fmt.Errorf("%s is not a string map: %w", key, err)
	}
	return out, nil
}

func (d *yamlDocument) setString(key, value string) {
	if n := d.find(key); n != nil {
		n.Kind = yaml.ScalarNode
		n.Tag = "!!str"
		n.Value = value
		return
	}
	m := d.mapping()
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

func (d *yamlDocument) marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(d.indent)
	if err := enc.Encode(&d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
