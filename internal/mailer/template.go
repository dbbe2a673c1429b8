package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dustin/go-humanize"
)

// BackupReport is the data shown in the notification body.
// It never carries the password.
type BackupReport struct {
	Database     string
	Timestamp    string
	Address      string
	AuthDatabase string
	ArchiveName  string
	SizeBytes    int64
	SHA256       string
	RunID        string
}

const bodyHTML = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
<h2>MongoDB backup completed</h2>
<p>The backup archive of <strong>{{.Database}}</strong> taken at {{.Timestamp}} is attached.</p>
<table cellpadding="4" style="border-collapse: collapse;">
<tr><td><b>Database</b></td><td>{{.Database}}</td></tr>
<tr><td><b>Timestamp</b></td><td>{{.Timestamp}}</td></tr>
<tr><td><b>Host</b></td><td>{{.Address}}</td></tr>
{{- if .AuthDatabase}}
<tr><td><b>Auth database</b></td><td>{{.AuthDatabase}}</td></tr>
{{- end}}
<tr><td><b>Archive</b></td><td>{{.ArchiveName}} ({{size .SizeBytes}})</td></tr>
<tr><td><b>SHA-256</b></td><td><code>{{.SHA256}}</code></td></tr>
<tr><td><b>Run ID</b></td><td>{{.RunID}}</td></tr>
</table>
</body>
</html>
`

var bodyTemplate = template.Must(template.New("backup").Funcs(template.FuncMap{
	"size": func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.IBytes(uint64(n))
	},
}).Parse(bodyHTML))

// Subject formats "{prefix}: {database} at {timestamp}".
func Subject(prefix, database, timestamp string) string {
	return fmt.Sprintf("%s: %s at %s", prefix, database, timestamp)
}

// RenderHTML renders the notification body. Every value is HTML-escaped.
func RenderHTML(r BackupReport) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return buf.String(), nil
}
