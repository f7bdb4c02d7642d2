package emailsvc

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"net/mail"
	"text/template"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/archiving"
)

const (
	groupArchivedText = `The student group {{.Group.GroupName}} ({{.Group.GroupCode}}) was archived by {{.Group.ArchivedBy}} on {{.Group.ArchivedAt.Format "2006-01-02 15:04 MST"}}.

Reason: {{.Group.Reason}}

Archived records:
- groups: {{.Report.Groups}}
- students: {{.Report.Students}}
- grades: {{.Report.Grades}}
`
	groupArchivedHTML = `<p>The student group <strong>{{.Group.GroupName}}</strong> ({{.Group.GroupCode}}) was archived by {{.Group.ArchivedBy}} on {{.Group.ArchivedAt.Format "2006-01-02 15:04 MST"}}.</p>
<p>Reason: {{.Group.Reason}}</p>
<ul>
  <li>groups: {{.Report.Groups}}</li>
  <li>students: {{.Report.Students}}</li>
  <li>grades: {{.Report.Grades}}</li>
</ul>
`
)

var (
	groupArchivedTextTmpl = template.Must(template.New("group_archived.txt").Parse(groupArchivedText))
	groupArchivedHTMLTmpl = htmltemplate.Must(htmltemplate.New("group_archived.html").Parse(groupArchivedHTML))
)

// ArchiveNotifier emails the configured recipients about every archived group.
type ArchiveNotifier struct {
	mailer     core.EmailService
	recipients []mail.Address
}

var _ archiving.Notifier = (*ArchiveNotifier)(nil) // interface compliance check

func NewArchiveNotifier(mailer core.EmailService, recipients []mail.Address) *ArchiveNotifier {
	return &ArchiveNotifier{mailer: mailer, recipients: recipients}
}

func (n *ArchiveNotifier) GroupArchived(_ context.Context, grp archive.ArchivedStudentGroup, rep archiving.Report) error {
	if len(n.recipients) == 0 {
		return nil
	}

	data := struct {
		Group  archive.ArchivedStudentGroup
		Report archiving.Report
	}{grp, rep}

	var text, html bytes.Buffer
	if err := groupArchivedTextTmpl.Execute(&text, data); err != nil {
		return errors.Wrap(err, "rendering text content")
	}
	if err := groupArchivedHTMLTmpl.Execute(&html, data); err != nil {
		return errors.Wrap(err, "rendering html content")
	}

	n.mailer.SendMessages(&core.EmailMessage{
		To:          n.recipients,
		Subject:     fmt.Sprintf("Student group %s archived", grp.GroupCode),
		TextContent: text.String(),
		HTMLContent: html.String(),
	})
	return nil
}
