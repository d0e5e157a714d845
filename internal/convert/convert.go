// Package convert turns legacy Hatena notation into Markdown.
package convert

import (
	"regexp"
	"strings"
)

var (
	headingRe   = regexp.MustCompile(`^(\*{1,6})\s+(.*)$`)
	boldRe      = regexp.MustCompile(`'''(.*?)'''`)
	italicRe    = regexp.MustCompile(`''(.*?)''`)
	titleLinkRe = regexp.MustCompile(`\[(https?://[^\s\]:]+):title=([^\]]+)\]`)
	bareLinkRe  = regexp.MustCompile(`\[(https?://[^\s\]]+)\]`)
)

// HatenaToMarkdown converts a best-effort subset of Hatena notation:
// asterisk headings, bold and italic quoting, and bracket links.
// Unrecognized constructs pass through unchanged.
func HatenaToMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			lines[i] = strings.Repeat("#", len(m[1])) + " " + m[2]
		}
	}
	out := strings.Join(lines, "\n")

	// Bold before italic: ''' must not be consumed as '' pairs.
	out = boldRe.ReplaceAllString(out, "**${1}**")
	out = italicRe.ReplaceAllString(out, "*${1}*")
	out = titleLinkRe.ReplaceAllString(out, "[${2}](${1})")
	out = bareLinkRe.ReplaceAllString(out, "[${1}](${1})")
	return out
}
