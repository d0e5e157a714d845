// Package frontmatter encodes and decodes the YAML metadata block that
// heads every vault entry.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Meta is the metadata schema. Encode emits keys in field order, which is
// part of the on-disk format.
type Meta struct {
	Title     string   `yaml:"title"`
	Date      string   `yaml:"date"`
	Updated   string   `yaml:"updated"`
	Tags      []string `yaml:"tags"`
	Status    string   `yaml:"status"`
	Category  string   `yaml:"category"`
	Permalink string   `yaml:"permalink"`
	ID        string   `yaml:"id"`
}

// Keys that must be present in every entry, even when empty.
var requiredKeys = []string{"title", "date", "tags", "status"}

// Decode splits raw file content into metadata and body. The metadata block
// must open the file with a --- line and close with another; anything less
// is an error, never a fallback.
func Decode(data []byte) (Meta, string, error) {
	var meta Meta

	if !bytes.HasPrefix(data, []byte(delim+"\n")) {
		return meta, "", fmt.Errorf("missing leading %s block", delim)
	}
	rest := data[len(delim)+1:]

	closing := []byte("\n" + delim + "\n")
	idx := bytes.Index(rest, closing)
	var block, body []byte
	switch {
	case bytes.HasPrefix(rest, []byte(delim+"\n")):
		body = rest[len(delim)+1:]
		if len(body) > 0 && body[0] == '\n' {
			body = body[1:]
		}
	case idx >= 0:
		block = rest[:idx+1]
		body = rest[idx+len(closing):]
		// A single blank line separates the block from the body.
		if len(body) > 0 && body[0] == '\n' {
			body = body[1:]
		}
	case bytes.HasSuffix(rest, []byte("\n"+delim)):
		block = rest[:len(rest)-len(delim)]
	default:
		return meta, "", fmt.Errorf("missing closing %s delimiter", delim)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return meta, "", fmt.Errorf("invalid yaml: %w", err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return meta, "", fmt.Errorf("missing required key %q", key)
		}
	}
	if err := yaml.Unmarshal(block, &meta); err != nil {
		return meta, "", fmt.Errorf("invalid yaml: %w", err)
	}
	if len(meta.Tags) == 0 {
		meta.Tags = nil
	}
	return meta, string(body), nil
}

// Encode renders meta and body back into file content. Decode(Encode(m, b))
// returns m and b unchanged.
func Encode(meta Meta, body string) []byte {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		// Meta is a flat struct of strings and string slices; the YAML
		// encoder cannot reject it.
		panic(err)
	}
	enc.Close()
	buf.WriteString(delim + "\n\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// Timestamp layouts accepted in date and updated fields.
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// ParseTime parses a frontmatter timestamp value.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders a timestamp for the updated field.
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
