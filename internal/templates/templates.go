// Package templates renders the static HTML pages of the archive: the top
// page, one profile page per account, and one page per archived object.
package templates

import (
	"html/template"
	"strings"

	"github.com/pkg/errors"
)

const indexHTML = `<!DOCTYPE html>` +
	`<html>` +
	`<head>` +
	`<meta charset="utf-8">` +
	`<meta content="width=device-width, initial-scale=1" name="viewport">` +
	`<title>{{.Title}}</title>` +
	`</head>` +
	`<body>` +
	`<h1>{{.Title}}</h1>` +
	`{{if .Description}}<p>{{.Description}}</p>{{end}}` +
	`</body>` +
	`</html>`

const profileHTML = `<!DOCTYPE html>` +
	`<html>` +
	`<head>` +
	`<meta charset="utf-8">` +
	`<meta content="width=device-width, initial-scale=1" name="viewport">` +
	`<title>Archived - {{.Account}}</title>` +
	`<link href="{{.ActorURL}}" rel="alternate" type="application/activity+json">` +
	`<meta content="{{.Account}}" property="profile:username">` +
	`</head>` +
	`<body>` +
	`<h1>Archived {{.Type}}: {{.Account}}</h1>` +
	`<dl>` +
	`{{if .MovedTo}}{{if .MovedProfileURL}}` +
	`<dt>Moved To</dt><dd><a href="{{.MovedProfileURL}}">{{.MovedTo}}</a></dd>` +
	`{{else}}` +
	`<dt>Moved To</dt><dd>{{.MovedTo}}</dd>` +
	`{{end}}{{end}}` +
	`{{if .Name}}<dt>Name</dt><dd>{{.Name}}</dd>{{end}}` +
	`{{if .Summary}}<dt>Summary</dt><dd>{{.Summary}}</dd>{{end}}` +
	`{{if .URL}}<dt>URL</dt><dd><a href="{{.URL}}">{{.URL}}</a></dd>{{end}}` +
	`</dl>` +
	`</body>` +
	`</html>`

const objectHTML = `<!DOCTYPE html>` +
	`<html>` +
	`<head>` +
	`<meta charset="utf-8">` +
	`<meta content="width=device-width, initial-scale=1" name="viewport">` +
	`<title>Archived {{.Type}} - {{.Account}}</title>` +
	`<link href="{{.ObjectURL}}" rel="alternate" type="application/activity+json">` +
	`</head>` +
	`<body>` +
	`<h1>Archived {{.Type}} by {{.Account}}</h1>` +
	`{{if .Summary}}<p>{{.Summary}}</p>{{end}}` +
	`{{if .Content}}<div>{{.Content}}</div>{{end}}` +
	`{{if .Published}}<p>Published: {{.Published}}</p>{{end}}` +
	`</body>` +
	`</html>`

// HTML marks a value as pre-rendered HTML carried over verbatim from the
// archived document.
type HTML = template.HTML

type IndexParams struct {
	Title       string
	Description string
}

type ProfileParams struct {
	Type            string
	Account         string
	ActorURL        string
	Name            string
	Summary         template.HTML
	URL             string
	MovedTo         string
	MovedProfileURL string
}

type ObjectParams struct {
	Type      string
	Account   string
	ObjectURL string
	Summary   string
	Content   template.HTML
	Published string
}

type Templates struct {
	index   *template.Template
	profile *template.Template
	object  *template.Template
}

func New() (*Templates, error) {
	index, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, errors.Wrap(err, "parse index template")
	}
	profile, err := template.New("profile").Parse(profileHTML)
	if err != nil {
		return nil, errors.Wrap(err, "parse profile template")
	}
	object, err := template.New("object").Parse(objectHTML)
	if err != nil {
		return nil, errors.Wrap(err, "parse object template")
	}
	return &Templates{index: index, profile: profile, object: object}, nil
}

func (t *Templates) render(tmpl *template.Template, params any) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", errors.Wrapf(err, "render %s", tmpl.Name())
	}
	return buf.String(), nil
}

func (t *Templates) RenderIndex(params IndexParams) (string, error) {
	return t.render(t.index, params)
}

func (t *Templates) RenderProfile(params ProfileParams) (string, error) {
	return t.render(t.profile, params)
}

func (t *Templates) RenderObject(params ObjectParams) (string, error) {
	return t.render(t.object, params)
}
