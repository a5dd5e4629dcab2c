package appfs

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql templates/email/* fixtures/*.yaml
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
	DemoFixtures      = "fixtures/demo.yaml"
)

// EmailTemplates returns the email templates directory as its own FS.
func EmailTemplates() fs.FS {
	sub, err := fs.Sub(FS, EmailTemplatesDir)
	if err != nil { // only happens with an invalid dir name
		panic(err)
	}
	return sub
}
