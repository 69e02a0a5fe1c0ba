// pkg/manifest/manifest.go
//
// Version manifest documents. Only the version field is ever rewritten;
// every other field is carried through in its original order.

package manifest

import (
	"path/filepath"
	"strings"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_err"
	cerr "github.com/cockroachdb/errors"
)

// Format is the encoding of a manifest file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFor picks the encoding from the file extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// document is the encoding-specific half of a Manifest.
type document interface {
	lookupString(key string) (string, bool, error)
	lookupMap(key string) (map[string]string, error)
	setString(key, value string)
	marshal() ([]byte, error)
}

// Manifest is a parsed version manifest.
type Manifest struct {
	Format          Format
	Version         string
	Dependencies    map[string]string
	DevDependencies map[string]string

	doc document
}

// Parse decodes a manifest. The path only selects the format.
func Parse(path string, data []byte) (*Manifest, error) {
	m, err := ParseDependencies(path, data)
	if err != nil {
		return nil, err
	}

	v, ok, err := m.doc.lookupString("version")
	if err != nil {
		return nil, cerr.Wrapf(err, "read version field of %s", path)
	}
	if !ok {
		return nil, &rel_err.MalformedVersionError{Value: "", Reason: "manifest has no version field"}
	}
	m.Version = v
	return m, nil
}

// ParseDependencies decodes only the dependency maps of a manifest. A missing
// or malformed version field is not an error, so older revisions can still be
// diffed. The returned manifest has an empty Version.
func ParseDependencies(path string, data []byte) (*Manifest, error) {
	format := FormatFor(path)

	var (
		doc document
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = parseYAML(data)
	default:
		doc, err = parseJSON(data)
	}
	if err != nil {
		return nil, cerr.Wrapf(err, "parse %s manifest %s", format, path)
	}

	m := &Manifest{Format: format, doc: doc}
	if m.Dependencies, err = doc.lookupMap("dependencies"); err != nil {
		return nil, cerr.Wrapf(err, "read dependencies of %s", path)
	}
	if m.DevDependencies, err = doc.lookupMap("devDependencies"); err != nil {
		return nil, cerr.Wrapf(err, "read devDependencies of %s", path)
	}
	return m, nil
}

// SetVersion replaces the version field.
func (m *Manifest) SetVersion(v string) {
	m.Version = v
	m.doc.setString("version", v)
}

// Marshal encodes the manifest back into its original format.
func (m *Manifest) Marshal() ([]byte, error) {
	return m.doc.marshal()
}
