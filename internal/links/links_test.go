package links

import (
	"strings"
	"testing"
)

func testMap() Map {
	return Map{
		"other-entry": "https://example.hatenablog.com/entry/other",
		"with-ext.md": "https://example.hatenablog.com/entry/ext",
	}
}

func TestLocalToRemote_Basic(t *testing.T) {
	out, warnings := LocalToRemote("See [[other-entry]] for details.", testMap())
	want := "See [other-entry](https://example.hatenablog.com/entry/other) for details."
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestLocalToRemote_Alias(t *testing.T) {
	out, _ := LocalToRemote("Read [[other-entry|this post]].", testMap())
	want := "Read [this post](https://example.hatenablog.com/entry/other)."
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestLocalToRemote_ExtensionInsensitive(t *testing.T) {
	cases := map[string]string{
		"[[other-entry.md]]": "[other-entry.md](https://example.hatenablog.com/entry/other)",
		"[[with-ext]]":       "[with-ext](https://example.hatenablog.com/entry/ext)",
	}
	for in, want := range cases {
		out, warnings := LocalToRemote(in, testMap())
		if out != want {
			t.Errorf("LocalToRemote(%q) = %q, want %q", in, out, want)
		}
		if len(warnings) != 0 {
			t.Errorf("LocalToRemote(%q) warnings = %v", in, warnings)
		}
	}
}

func TestLocalToRemote_UnknownTargetLeftVerbatim(t *testing.T) {
	body := "See [[missing-entry]] here."
	out, warnings := LocalToRemote(body, testMap())
	if out != body {
		t.Errorf("out = %q, want unchanged", out)
	}
	if len(warnings) != 1 || warnings[0].Target != "missing-entry" {
		t.Fatalf("warnings = %v, want one for missing-entry", warnings)
	}
	if !strings.Contains(warnings[0].String(), "missing-entry") {
		t.Errorf("warning text = %q", warnings[0].String())
	}
}

func TestLocalToRemote_FencedCodeUntouched(t *testing.T) {
	body := "before [[other-entry]]\n```\ncode [[other-entry]]\n```\nafter [[other-entry]]\n~~~\nmore [[other-entry]]\n~~~\n"
	out, _ := LocalToRemote(body, testMap())
	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[0], "](https://") {
		t.Errorf("line outside fence not translated: %q", lines[0])
	}
	if lines[2] != "code [[other-entry]]" {
		t.Errorf("fenced line changed: %q", lines[2])
	}
	if !strings.Contains(lines[4], "](https://") {
		t.Errorf("line after fence not translated: %q", lines[4])
	}
	if lines[6] != "more [[other-entry]]" {
		t.Errorf("tilde-fenced line changed: %q", lines[6])
	}
}

func TestLocalToRemote_InlineCodeUntouched(t *testing.T) {
	body := "use `[[other-entry]]` not [[other-entry]]"
	out, _ := LocalToRemote(body, testMap())
	want := "use `[[other-entry]]` not [other-entry](https://example.hatenablog.com/entry/other)"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestRemoteToLocal_Basic(t *testing.T) {
	inv := testMap().Invert()
	out := RemoteToLocal("See [other-entry](https://example.hatenablog.com/entry/other) for details.", inv)
	want := "See [[other-entry]] for details."
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestRemoteToLocal_LabelPreserved(t *testing.T) {
	inv := testMap().Invert()
	out := RemoteToLocal("Read [this post](https://example.hatenablog.com/entry/other).", inv)
	want := "Read [[other-entry|this post]]."
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestRemoteToLocal_UnknownURLUntouched(t *testing.T) {
	body := "See [elsewhere](https://example.com/unrelated)."
	out := RemoteToLocal(body, testMap().Invert())
	if out != body {
		t.Errorf("out = %q, want unchanged", out)
	}
}

func TestRoundTrip_PreservesWikilinks(t *testing.T) {
	m := testMap()
	body := "Intro [[other-entry]] and [[other-entry|aliased]].\n"
	remote, warnings := LocalToRemote(body, m)
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	back := RemoteToLocal(remote, m.Invert())
	if back != body {
		t.Errorf("round trip = %q, want %q", back, body)
	}
}

func TestResolve(t *testing.T) {
	m := testMap()
	if _, ok := m.Resolve("other-entry.md"); !ok {
		t.Error("expected .md-suffixed lookup to resolve")
	}
	if _, ok := m.Resolve("with-ext"); !ok {
		t.Error("expected bare lookup of .md key to resolve")
	}
	if _, ok := m.Resolve("nope"); ok {
		t.Error("expected unknown target to miss")
	}
}
