// Package report renders an HTML gallery of decoded images for visual
// inspection of orientation handling.
package report

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// Record is one decoded image in the gallery.
type Record struct {
	FileID              string
	Source              string
	DecodedPNG          string
	SourceSize          string
	DecodedSize         string
	ExifOrientation     string
	OriginalOrientation string
	Decision            string
	Tags                []string
}

type galleryData struct {
	Title       string
	GeneratedAt string
	Count       int
	Records     []Record
}

var galleryTemplate = template.Must(template.New("gallery").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>
    :root {
      color-scheme: light;
      --bg: #f7f8fa;
      --fg: #1d232f;
      --card: #ffffff;
      --border: #d9dde6;
      --muted: #4f5d75;
      --link: #0d66d0;
    }
    body {
      margin: 0;
      padding: 24px;
      background: var(--bg);
      color: var(--fg);
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
    }
    h1 { margin: 0 0 8px; font-size: 28px; }
    p.meta { margin: 0 0 20px; color: var(--muted); font-size: 14px; }
    .grid {
      display: grid;
      grid-template-columns: repeat(auto-fit, minmax(320px, 1fr));
      gap: 16px;
    }
    .card {
      background: var(--card);
      border: 1px solid var(--border);
      border-radius: 12px;
      padding: 12px;
    }
    img {
      width: 100%;
      max-height: 280px;
      object-fit: contain;
      border: 1px solid var(--border);
      border-radius: 8px;
      background: #111;
    }
    h2 { margin: 10px 0 8px; font-size: 16px; line-height: 1.3; word-break: break-word; }
    ul { margin: 0; padding-left: 18px; color: var(--muted); font-size: 13px; line-height: 1.35; }
    a { color: var(--link); }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <p class="meta">Generated: {{.GeneratedAt}} | Count: {{.Count}}</p>
  <div class="grid">
{{- range .Records}}
    <article class="card">
      <a href="{{.DecodedPNG}}" target="_blank" rel="noreferrer"><img src="{{.DecodedPNG}}" alt="{{.FileID}}" loading="lazy" /></a>
      <h2>{{.FileID}}</h2>
      <ul>
        <li><strong>source</strong>: {{.Source}}</li>
        <li><strong>source size</strong>: {{.SourceSize}}</li>
        <li><strong>decoded size</strong>: {{.DecodedSize}}</li>
        <li><strong>EXIF orientation</strong>: {{.ExifOrientation}}</li>
        <li><strong>original orientation</strong>: {{.OriginalOrientation}}</li>
        <li><strong>decision</strong>: {{.Decision}}</li>
        {{- if .Tags}}
        <li><strong>tags</strong>: {{range $i, $tag := .Tags}}{{if $i}}, {{end}}{{$tag}}{{end}}</li>
        {{- end}}
      </ul>
    </article>
{{- end}}
  </div>
</body>
</html>
`))

// WriteGallery renders the gallery page for records to w.
func WriteGallery(w io.Writer, title string, records []Record) error {
	if title == "" {
		title = "Decode Preview"
	}
	data := galleryData{
		Title:       title,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Count:       len(records),
		Records:     records,
	}
	if err := galleryTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render gallery: %w", err)
	}
	return nil
}
