package core

import (
	"bytes"
	"context"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"regexp"
	"strings"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	htmlTagRegex = regexp.MustCompile(`<[^>]*>?`)

	ErrTemplateNotFound = errors.New("email template not found")
)

type (
	EmailMessage struct {
		From        mail.Address
		To          []mail.Address
		Subject     string
		TextContent string
		HTMLContent string
	}

	// EmailTransport delivers a single, already rendered message.
	EmailTransport interface {
		Name() string
		Send(ctx context.Context, msg *EmailMessage) error
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// Recipients returns the comma separated list of recipients.
func (m *EmailMessage) Recipients() string {
	return JoinAddresses(m.To)
}

func JoinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// StripHTML removes every tag from `html`. Not an HTML parser: entities and
// the content of <style>/<script> are left as is.
func StripHTML(html string) string {
	return htmlTagRegex.ReplaceAllString(html, "")
}

// EmailTemplates holds parsed email templates, keyed by name (file name without ext).
// Each template is parsed along with its "_base" layout.
type EmailTemplates struct {
	html map[string]*htmltmpl.Template
	text map[string]*texttmpl.Template

	appName         string
	frontendBaseURL string
}

// ParseEmailTemplates parses every *.gohtml and *.txt template found at the root of `fsys`.
func ParseEmailTemplates(fsys fs.FS, conf *Config) (*EmailTemplates, error) {
	tmpls := &EmailTemplates{
		html:            make(map[string]*htmltmpl.Template),
		text:            make(map[string]*texttmpl.Template),
		appName:         conf.AppName,
		frontendBaseURL: conf.FrontendBaseURL,
	}
	strict := conf.Debug || conf.TestMode

	fps, err := fs.Glob(fsys, "*")
	if err != nil {
		return nil, errors.Wrap(err, "listing email templates")
	}
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)

		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, "_base.txt", fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fp)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			tmpls.text[name] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, "_base.gohtml", fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fp)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			tmpls.html[name] = tmpl
		}
	}
	return tmpls, nil
}

// Has reports whether an html or text template named `name` exists.
func (t *EmailTemplates) Has(name string) bool {
	_, hasHTML := t.html[name]
	_, hasText := t.text[name]
	return hasHTML || hasText
}

// Render executes both variants of the template `name`. A missing text variant
// yields an empty text (derived later from the html).
func (t *EmailTemplates) Render(name string, data interface{}) (html, text string, err error) {
	if !t.Has(name) {
		return "", "", errors.Wrap(ErrTemplateNotFound, name)
	}
	ctxData := ContextData{
		AppName:         t.appName,
		FrontendBaseURL: t.frontendBaseURL,
		Data:            data,
	}

	var buff bytes.Buffer
	if tmpl, ok := t.html[name]; ok {
		if err = tmpl.Execute(&buff, ctxData); err != nil {
			return "", "", errors.Wrapf(err, "rendering %s.gohtml", name)
		}
		html = buff.String()
	}
	if tmpl, ok := t.text[name]; ok {
		buff.Reset()
		if err = tmpl.Execute(&buff, ctxData); err != nil {
			return "", "", errors.Wrapf(err, "rendering %s.txt", name)
		}
		text = buff.String()
	}
	return html, text, nil
}
