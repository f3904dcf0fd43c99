package notification

import (
	"bytes"
	"html/template"
)

const emailLayout = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <div style="max-width: 600px; margin: 0 auto; padding: 24px;">
    <h2 style="color: {{.Accent}};">{{.Heading}}</h2>
    <p>Hi {{.Name}},</p>
    {{template "body" .}}
    <p style="color: #7b8794; font-size: 12px;">You are receiving this email because of activity on your projects.</p>
  </div>
</body>
</html>{{end}}`

var emailTemplates = map[string]*template.Template{
	TypeAssignment: mustEmail(`{{define "body"}}<p>You have been assigned a new task: <strong>{{.TaskTitle}}</strong> in project <strong>{{.ProjectTitle}}</strong>.</p>{{if .DueDate}}<p>Due date: {{.DueDate}}</p>{{end}}{{end}}`),
	TypeSuccess:    mustEmail(`{{define "body"}}<p>Project <strong>{{.ProjectTitle}}</strong> has been marked as completed.</p>{{end}}`),
	TypeWarning:    mustEmail(`{{define "body"}}<p>Task <strong>{{.TaskTitle}}</strong> in project <strong>{{.ProjectTitle}}</strong> is overdue.</p>{{if .DueDate}}<p>It was due on {{.DueDate}}.</p>{{end}}{{end}}`),
	TypePayment:    mustEmail(`{{define "body"}}<p>A payment of <strong>{{.Amount}}</strong> for project <strong>{{.ProjectTitle}}</strong> is due{{if .DueDate}} on {{.DueDate}}{{end}}.</p>{{end}}`),
}

func mustEmail(body string) *template.Template {
	t := template.Must(template.New("layout").Parse(emailLayout))
	return template.Must(t.Parse(body))
}

type emailData struct {
	Heading      string
	Accent       string
	Name         string
	TaskTitle    string
	ProjectTitle string
	DueDate      string
	Amount       string
}

func renderEmail(kind string, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates[kind].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
