package mcpserver

// EntryFormatContract describes the canonical Markdown entry format that
// LLM consumers should follow when drafting entries.
const EntryFormatContract = `# Entry Format Contract

Every Markdown entry in the vault MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title    # REQUIRED - shown on the blog and in listings
date: "2025-01-15"             # REQUIRED - publication date, YYYY-MM-DD
updated: ...                   # MANAGED - written by the sync engine
tags: []                       # REQUIRED - YAML list, may be empty
status: draft                  # REQUIRED - draft or published
category: essays               # OPTIONAL - remote blog category
permalink: ...                 # MANAGED - public URL after first publish
id: ...                        # MANAGED - remote entry id
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other entries (without .md extension).
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`" + `---` + "`" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + `, ` + "`" + `date` + "`" + `, ` + "`" + `tags` + "`" + `, and ` + "`" + `status` + "`" + ` are always present**, even when empty.
3. **Never write ` + "`" + `updated` + "`" + `, ` + "`" + `permalink` + "`" + `, or ` + "`" + `id` + "`" + ` by hand.** The sync engine owns
   them; hand-edited values are overwritten on the next sync.
4. **` + "`" + `status` + "`" + ` is ` + "`" + `draft` + "`" + ` or ` + "`" + `published` + "`" + `.** New entries always reach the blog as
   remote drafts regardless of this field; it takes effect on later updates.
5. **Wikilinks** use double brackets: ` + "`" + `[[other-entry]]` + "`" + `. The target is another
   entry's identifier. On push they become permalink hyperlinks; unresolved
   targets are left verbatim and reported.
6. **Lifecycle directories** are managed, never hand-edited:
   ` + "`" + `feature/` + "`" + ` (incubating) -> ` + "`" + `draft/` + "`" + ` (synced) -> ` + "`" + `published/` + "`" + ` (archived).
   Files move only through tool commands, and the layout is flat: no
   subdirectories inside a stage directory.
7. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
title: Why I keep a plain-text blog pipeline
date: "2025-01-20"
tags:
  - writing
  - tooling
status: draft
---

Plain text wins because it diffs.

Related: [[blog-pipeline-tools|the tools post]].
` + "```" + `
`
