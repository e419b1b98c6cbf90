package export

import (
	"bytes"
	"html/template"
	"time"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Locale}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 42rem; margin: 2rem auto; line-height: 1.6; color: #1a1a1a; }
h1 { font-size: 2rem; margin-bottom: 0.25rem; }
.meta { color: #666; font-size: 0.85rem; margin-bottom: 2rem; }
blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #444; }
pre { background: #f4f4f4; padding: 1rem; overflow-x: auto; }
img { max-width: 100%; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.4rem 0.6rem; }
@page { margin: 2cm; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">{{if .Author}}{{.Author}} &middot; {{end}}{{.UpdatedAt.Format "January 2, 2006"}}</div>
{{.ContentHTML}}
</body>
</html>
`))

// PageData holds data for page template rendering
type PageData struct {
	Title       string
	Author      string
	Locale      string
	UpdatedAt   time.Time
	ContentHTML template.HTML
}

// RenderPageHTML renders the export page template with provided data
func RenderPageHTML(data PageData) (string, error) {
	if data.Locale == "" {
		data.Locale = "en"
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
