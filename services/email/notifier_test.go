package emailsvc

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/archiving"
)

func TestArchiveNotifier(t *testing.T) {
	conf := &core.Config{AppName: "Registro", DefaultFromEmail: mail.Address{Address: "noreply@registro.test"}}
	grp := archive.ArchivedStudentGroup{
		GroupCode: "CS-21",
		GroupName: "<Computer Science>",
		Metadata: archive.Metadata{
			ArchivedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
			ArchivedBy: "admin",
			Reason:     "graduated",
		},
	}
	rep := archiving.Report{Groups: 1, Students: 25, Grades: 310}

	tests := []struct {
		name       string
		recipients []mail.Address
		wantSent   int
	}{
		{"no recipients", nil, 0},
		{"recipients", []mail.Address{{Name: "Dean", Address: "dean@registro.test"}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := NewConsoleServiceMock(conf)
			n := NewArchiveNotifier(mailer, tt.recipients)
			if err := n.GroupArchived(context.Background(), grp, rep); err != nil {
				t.Fatalf("GroupArchived() = %v", err)
			}

			sent := mailer.SentMessages()
			if len(sent) != tt.wantSent {
				t.Fatalf("sent %d messages; want %d", len(sent), tt.wantSent)
			}
			if tt.wantSent == 0 {
				return
			}
			msg := sent[0]
			if msg.Subject != "Student group CS-21 archived" {
				t.Errorf("Subject = %q", msg.Subject)
			}
			for _, want := range []string{"<Computer Science>", "students: 25", "grades: 310", "Reason: graduated", "2024-06-01 09:00 UTC"} {
				if !strings.Contains(msg.TextContent, want) {
					t.Errorf("TextContent does not contain %q:\n%s", want, msg.TextContent)
				}
			}
			if !strings.Contains(msg.HTMLContent, "&lt;Computer Science&gt;") {
				t.Errorf("HTMLContent is not escaped:\n%s", msg.HTMLContent)
			}
		})
	}
}

func TestConsoleRender(t *testing.T) {
	conf := &core.Config{AppName: "Registro", DefaultFromEmail: mail.Address{Name: "Registro", Address: "noreply@registro.test"}}
	svc := consoleService{defaultFromEmail: conf.DefaultFromEmail, subjPrefix: "[Registro] "}

	body, err := svc.render(core.EmailMessage{
		To:          []mail.Address{{Address: "dean@registro.test"}},
		Subject:     "hello",
		TextContent: "plain",
		HTMLContent: "<p>rich</p>",
	})
	if err != nil {
		t.Fatalf("render() = %v", err)
	}
	for _, want := range []string{"Subject: [Registro] hello", "To: <dean@registro.test>", "text/plain", "<p>rich</p>"} {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q:\n%s", want, body)
		}
	}
}
