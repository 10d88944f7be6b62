package layout

import (
	"bytes"
	"html/template"
	"time"

	"github.com/shineum/mail-event-appender/internal/event"
)

var (
	htmlHeaderTmpl = template.Must(template.New("header").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.}}</title>
</head>
<body style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
<table cellspacing="0" cellpadding="4" border="1" width="100%">
<tr><th>Time</th><th>Level</th><th>Logger</th><th>Message</th></tr>
`))

	htmlRowTmpl = template.Must(template.New("row").Parse(
		`<tr><td>{{.Time}}</td><td>{{.Level}}</td><td>{{.Logger}}</td><td>{{.Message}}` +
			`{{range .Attrs}}<br><code>{{.}}</code>{{end}}</td></tr>
`))
)

const htmlFooter = "</table>\n</body>\n</html>\n"

// HTML renders events as rows of an HTML table. Values are escaped by
// html/template.
type HTML struct {
	title string
}

// NewHTML returns an HTML layout whose document title is title.
func NewHTML(title string) HTML {
	return HTML{title: title}
}

func (h HTML) Header() string {
	var buf bytes.Buffer
	if err := htmlHeaderTmpl.Execute(&buf, h.title); err != nil {
		return ""
	}
	return buf.String()
}

func (h HTML) Format(e *event.Event) string {
	attrs := make([]string, 0, len(e.Attrs))
	for _, a := range e.Attrs {
		attrs = append(attrs, a.String())
	}

	var buf bytes.Buffer
	err := htmlRowTmpl.Execute(&buf, struct {
		Time    string
		Level   string
		Logger  string
		Message string
		Attrs   []string
	}{
		Time:    e.Time.Format(time.RFC3339),
		Level:   e.Level.String(),
		Logger:  e.Logger,
		Message: e.Message,
		Attrs:   attrs,
	})
	if err != nil {
		return ""
	}
	return buf.String()
}

func (h HTML) Footer(*event.Event) string { return htmlFooter }

// ContentType reports text/html.
func (h HTML) ContentType() string { return "text/html" }
