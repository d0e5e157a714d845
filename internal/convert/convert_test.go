package convert

import "testing"

func TestHatenaToMarkdown_Headings(t *testing.T) {
	src := "* Heading\n** Sub\n*** SubSub"
	want := "# Heading\n## Sub\n### SubSub"
	if got := HatenaToMarkdown(src); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHatenaToMarkdown_FormattingAndLinks(t *testing.T) {
	src := "This is ''italic'' and '''bold''' [https://example.com:title=Example]"
	want := "This is *italic* and **bold** [Example](https://example.com)"
	if got := HatenaToMarkdown(src); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHatenaToMarkdown_BareLink(t *testing.T) {
	src := "See [https://example.com/page]"
	want := "See [https://example.com/page](https://example.com/page)"
	if got := HatenaToMarkdown(src); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHatenaToMarkdown_PassThrough(t *testing.T) {
	src := "# Already Markdown\n\nPlain text with [a link](https://example.com).\n"
	if got := HatenaToMarkdown(src); got != src {
		t.Errorf("got %q, want unchanged", got)
	}
}
