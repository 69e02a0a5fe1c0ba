// pkg/changelog/document.go

package changelog

import (
	"regexp"
	"strings"
)

// DefaultHeading is used for a new changelog, or one without a top-level heading.
const DefaultHeading = "# Changelog\n"

const byteOrderMark = "\ufeff"

var entryHeading = regexp.MustCompile(`^## \[([^\]]+)\]`)

// Block is a run of lines below the heading. Entry blocks start at a
// second-level heading; Version is empty for any other text.
type Block struct {
	Version string
	Text    string
}

// Document is a changelog split around its first top-level heading.
// Render(Parse(s)) returns s unchanged whenever s has a heading.
type Document struct {
	Preamble string
	Heading  string
	Blocks   []Block
}

// Parse splits text into preamble, heading and blocks. Text without a
// top-level heading keeps all of its content as blocks under DefaultHeading.
// A leading byte order mark stays at the front of the preamble.
func Parse(text string) *Document {
	doc := &Document{}
	if strings.HasPrefix(text, byteOrderMark) {
		doc.Preamble = byteOrderMark
		text = text[len(byteOrderMark):]
	}
	lines := splitKeepNewline(text)

	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") {
			start = i
			break
		}
	}

	var body []string
	if start < 0 {
		doc.Heading = DefaultHeading
		body = lines
	} else {
		doc.Preamble += strings.Join(lines[:start], "")
		doc.Heading = lines[start]
		if !strings.HasSuffix(doc.Heading, "\n") {
			doc.Heading += "\n"
		}
		body = lines[start+1:]
	}

	for _, line := range body {
		if m := entryHeading.FindStringSubmatch(line); m != nil || len(doc.Blocks) == 0 {
			b := Block{}
			if m != nil {
				b.Version = m[1]
			}
			doc.Blocks = append(doc.Blocks, b)
		}
		doc.Blocks[len(doc.Blocks)-1].Text += line
	}
	return doc
}

// Insert places e directly below the heading, ahead of all existing blocks.
func (d *Document) Insert(e Entry) {
	text := e.Render()
	if len(d.Blocks) > 0 && !strings.HasPrefix(d.Blocks[0].Text, "\n") {
		text += "\n"
	}
	d.Blocks = append([]Block{{Version: e.Version.String(), Text: text}}, d.Blocks...)
}

// Versions lists the entry versions in document order.
func (d *Document) Versions() []string {
	var out []string
	for _, b := range d.Blocks {
		if b.Version != "" {
			out = append(out, b.Version)
		}
	}
	return out
}

// Render serialises the document.
func (d *Document) Render() string {
	var b strings.Builder
	b.WriteString(d.Preamble)
	b.WriteString(d.Heading)
	for _, block := range d.Blocks {
		b.WriteString(block.Text)
	}
	return b.String()
}

func splitKeepNewline(s string) []string {
	var lines []string
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}
