package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const separator = "---\n"

// Document is a markdown note with a YAML frontmatter header.
type Document struct {
	Meta map[string]any
	Body string
}

// Parse splits content into frontmatter and body. Content without a header
// yields an empty Meta and the whole content as Body.
func Parse(content string) (Document, error) {
	if !strings.HasPrefix(content, separator) {
		return Document{Meta: map[string]any{}, Body: content}, nil
	}
	rest := strings.TrimPrefix(content, separator)
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return Document{}, fmt.Errorf("invalid frontmatter: missing closing separator")
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(rest[:idx]), &meta); err != nil {
		return Document{}, fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return Document{Meta: meta, Body: rest[idx+len("\n---\n"):]}, nil
}

// Render writes the header followed by the body.
func (d Document) Render() (string, error) {
	meta := d.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	buf := bytes.Buffer{}
	buf.WriteString(separator)
	buf.Write(raw)
	buf.WriteString(separator)
	if !strings.HasPrefix(d.Body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString(d.Body)
	return buf.String(), nil
}
