// Package links rewrites cross-references between vault wikilinks and the
// absolute URLs the remote service understands.
package links

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	wikilinkRe  = regexp.MustCompile(`\[\[([^\[\]\n]+)\]\]`)
	hyperlinkRe = regexp.MustCompile(`\[([^\]\n]*)\]\((https?://[^)\s]+)\)`)
	fenceRe     = regexp.MustCompile("^ {0,3}(```|~~~)")
	inlineRe    = regexp.MustCompile("`[^`\n]*`")
)

// Map resolves entry identifiers to their public permalinks for one run.
type Map map[string]string

// Resolve looks up target, tolerating a .md extension on either side.
func (m Map) Resolve(target string) (string, bool) {
	if url, ok := m[target]; ok {
		return url, true
	}
	if url, ok := m[strings.TrimSuffix(target, ".md")]; ok {
		return url, true
	}
	if url, ok := m[target+".md"]; ok {
		return url, true
	}
	return "", false
}

// Invert returns the permalink-to-identifier view of the map.
func (m Map) Invert() map[string]string {
	inv := make(map[string]string, len(m))
	for id, url := range m {
		if url != "" {
			inv[url] = id
		}
	}
	return inv
}

// Warning records a wikilink whose target has no known permalink. The link
// is left verbatim in the outgoing text.
type Warning struct {
	Target string
}

func (w Warning) String() string {
	return fmt.Sprintf("unresolved link target %q", w.Target)
}

// LocalToRemote replaces [[target]] and [[target|label]] references with
// standard Markdown hyperlinks. Code blocks and inline code are untouched.
func LocalToRemote(body string, m Map) (string, []Warning) {
	var warnings []Warning
	out := rewriteOutsideCode(body, func(segment string) string {
		return wikilinkRe.ReplaceAllStringFunc(segment, func(match string) string {
			target, label := splitAlias(match[2 : len(match)-2])
			if target == "" {
				return match
			}
			url, ok := m.Resolve(target)
			if !ok {
				warnings = append(warnings, Warning{Target: target})
				return match
			}
			return fmt.Sprintf("[%s](%s)", label, url)
		})
	})
	return out, warnings
}

// RemoteToLocal replaces hyperlinks whose URL is a managed permalink with
// wikilink syntax. Unknown URLs are left untouched.
func RemoteToLocal(body string, permalinks map[string]string) string {
	return rewriteOutsideCode(body, func(segment string) string {
		return hyperlinkRe.ReplaceAllStringFunc(segment, func(match string) string {
			sub := hyperlinkRe.FindStringSubmatch(match)
			label, url := sub[1], sub[2]
			id, ok := permalinks[url]
			if !ok {
				return match
			}
			if label == "" || label == id {
				return "[[" + id + "]]"
			}
			return "[[" + id + "|" + label + "]]"
		})
	})
}

// splitAlias parses the inside of a wikilink into target and display label.
func splitAlias(inner string) (target, label string) {
	target = inner
	if i := strings.Index(inner, "|"); i >= 0 {
		target, label = inner[:i], strings.TrimSpace(inner[i+1:])
	}
	target = strings.TrimSpace(target)
	if label == "" {
		label = target
	}
	return target, label
}

// rewriteOutsideCode applies fn to every run of text that sits outside
// fenced code blocks and inline code spans.
func rewriteOutsideCode(body string, fn func(string) string) string {
	lines := strings.Split(body, "\n")
	var fence string
	for i, line := range lines {
		if fence != "" {
			if m := fenceRe.FindStringSubmatch(line); m != nil && m[1] == fence {
				fence = ""
			}
			continue
		}
		if m := fenceRe.FindStringSubmatch(line); m != nil {
			fence = m[1]
			continue
		}
		lines[i] = rewriteLine(line, fn)
	}
	return strings.Join(lines, "\n")
}

// rewriteLine applies fn to the parts of one line outside backtick spans.
func rewriteLine(line string, fn func(string) string) string {
	if !strings.Contains(line, "`") {
		return fn(line)
	}
	var b strings.Builder
	last := 0
	for _, span := range inlineRe.FindAllStringIndex(line, -1) {
		b.WriteString(fn(line[last:span[0]]))
		b.WriteString(line[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(fn(line[last:]))
	return b.String()
}
