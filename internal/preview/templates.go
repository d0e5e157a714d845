package preview

import "html/template"

var pageTmpl = template.Must(template.New("preview").Parse(pageHTML))

const pageHTML = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; color: #1f2430; }
main { max-width: 46rem; margin: 0 auto; padding: 2rem 1.25rem 4rem; }
header.site { border-bottom: 1px solid #e3e6ec; padding: 0.9rem 1.25rem; }
header.site a { color: #1f2430; text-decoration: none; font-weight: 600; }
a { color: #2563eb; }
pre { background: #f4f5f7; padding: 0.75rem 1rem; overflow-x: auto; border-radius: 4px; }
code { font-family: ui-monospace, "SF Mono", monospace; font-size: 0.92em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #d4d8e0; padding: 0.3rem 0.6rem; }
ul.entries { list-style: none; padding: 0; }
ul.entries li { padding: 0.45rem 0; border-bottom: 1px solid #eef0f4; }
.meta { color: #6b7280; font-size: 0.85rem; margin-left: 0.5rem; }
.stage { display: inline-block; padding: 0 0.45rem; border-radius: 3px; font-size: 0.75rem; background: #eef0f4; color: #374151; }
.stage.incubating { background: #fef3c7; color: #92400e; }
.stage.synced { background: #dbeafe; color: #1e40af; }
.stage.archived { background: #e5e7eb; color: #4b5563; }
blockquote { border-left: 3px solid #d4d8e0; margin-left: 0; padding-left: 1rem; color: #4b5563; }
</style>
</head>
<body{{if .Identifier}} data-identifier="{{.Identifier}}"{{end}}>
<header class="site"><a href="/">hatena-sync preview</a></header>
<main>
{{end}}

{{define "foot"}}</main>
<script>
var es = new EventSource("/events");
function reloadIfCurrent(ev) {
  var data = JSON.parse(ev.data);
  if (document.body.dataset.identifier === data.identifier) { location.reload(); }
}
es.addEventListener("entry.updated", reloadIfCurrent);
es.addEventListener("entry.created", reloadIfCurrent);
es.addEventListener("entry.deleted", reloadIfCurrent);
es.addEventListener("list.updated", function () {
  if (!document.body.dataset.identifier) { location.reload(); }
});
</script>
</body>
</html>
{{end}}

{{define "index"}}{{template "head" .}}
<h1>Entries</h1>
{{if .Entries}}
<ul class="entries">
{{range .Entries}}
  <li>
    <span class="stage {{.Stage}}">{{.Stage}}</span>
    <a href="/entry/{{.Ref}}">{{.Title}}</a>
    <span class="meta">{{.Identifier}}{{if .Date}} &middot; {{.Date}}{{end}}</span>
  </li>
{{end}}
</ul>
{{else}}
<p>The vault is empty. Scaffold an entry with <code>hatena-sync new</code>.</p>
{{end}}
{{template "foot" .}}{{end}}

{{define "entry"}}{{template "head" .}}
<p><span class="stage {{.Entry.Stage}}">{{.Entry.Stage}}</span>
<span class="meta">{{.Entry.Identifier}}{{if .Entry.Date}} &middot; {{.Entry.Date}}{{end}}{{if .Entry.Permalink}} &middot; <a href="{{.Entry.Permalink}}">published copy</a>{{end}}</span></p>
<h1>{{.Entry.Title}}</h1>
<article>{{.HTML}}</article>
{{template "foot" .}}{{end}}
`
