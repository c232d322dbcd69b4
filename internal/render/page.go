package render

import (
	"fmt"
	"html/template"
	"io"
)

// Stylesheet styles highlighted and failed claims
const Stylesheet = `
mark.claim {
    background-color: #fff3cd;
    border-bottom: 2px solid #ffc107;
    cursor: help;
}
mark.claim[data-truth^="Certainly False"], mark.claim[data-truth^="Somewhat False"] {
    background-color: #f8d7da;
    border-bottom-color: #dc3545;
}
mark.claim[data-truth^="Certainly True"], mark.claim[data-truth^="Somewhat True"] {
    background-color: #d4edda;
    border-bottom-color: #28a745;
}
span.claim-failed {
    text-decoration: underline wavy #6c757d;
    cursor: help;
}
.document {
    white-space: pre-wrap;
    font-family: Georgia, serif;
    line-height: 1.6;
    max-width: 48em;
    margin: 2em auto;
}
`

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{if .CSS}}<style>{{.CSS}}</style>{{end}}
</head>
<body>
<h1>{{.Title}}</h1>
<div class="document">{{.Body}}</div>
</body>
</html>
`))

// WritePage writes a standalone HTML page around rendered markup
func WritePage(w io.Writer, title, body string, includeCSS bool) error {
	data := struct {
		Title string
		CSS   template.CSS
		Body  template.HTML
	}{
		Title: title,
		// body is produced by Render, which escapes every document byte
		Body: template.HTML(body),
	}
	if includeCSS {
		data.CSS = template.CSS(Stylesheet)
	}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
