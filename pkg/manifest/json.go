// pkg/manifest/json.go

package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const defaultJSONIndent = "  "

// jsonDocument is a top-level JSON object whose key order survives a rewrite.
type jsonDocument struct {
	keys   []string
	values map[string]json.RawMessage
	indent string
}

func parseJSON(data []byte) (*jsonDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object at top level")
	}

	doc := &jsonDocument{
		values: make(map[string]json.RawMessage),
		indent: detectIndent(data),
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode value of %q: %w", key, err)
		}
		if _, seen := doc.values[key]; !seen {
			doc.keys = append(doc.keys, key)
		}
		doc.values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return doc, nil
}

// detectIndent returns the leading whitespace of the first indented line.
func detectIndent(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed != "" && len(trimmed) < len(line) {
			return line[:len(line)-len(trimmed)]
		}
	}
	return defaultJSONIndent
}

func (d *jsonDocument) lookupString(key string) (string, bool, error) {
	raw, ok := d.values[key]
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", true, fmt.Errorf("%s is not a string: %w", key, err)
	}
	return s, true, nil
}

func (d *jsonDocument) lookupMap(key string) (map[string]string, error) {
	out := map[string]string{}
	raw, ok := d.values[key]
	if !ok || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s is not a string map: %w", key, err)
	}
	return out, nil
}

func (d *jsonDocument) setString(key, value string) {
	raw, _ := json.Marshal(value)
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = raw
}

func (d *jsonDocument) marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, key := range d.keys {
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		var vb bytes.Buffer
		if err := json.Indent(&vb, d.values[key], d.indent, d.indent); err != nil {
			return nil, fmt.Errorf("indent value of %q: %w", key, err)
		}
		buf.WriteString(d.indent)
		buf.Write(kb)
		buf.WriteString(": ")
		buf.Write(vb.Bytes())
		if i < len(d.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
