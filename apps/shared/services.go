package shared

import (
	"log"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/archiving"
	"github.com/trezcool/registro/core/store"
	emailsvc "github.com/trezcool/registro/services/email"
	metricsvc "github.com/trezcool/registro/services/metrics"
)

type ServiceDeps struct {
	Conf     *core.Config
	Logger   core.Logger
	MailLog  *log.Logger           // console email output
	Registry prometheus.Registerer // optional
	Store    store.Store
}

// NewArchiveService returns the archive service with its metrics and group archival notices wired in.
func NewArchiveService(deps ServiceDeps) (*archiving.Service, error) {
	svcDeps := archiving.Deps{
		Store:    deps.Store,
		Archiver: archiving.NewArchiver(),
		Logger:   deps.Logger,
	}

	if deps.Registry != nil {
		recorder, err := metricsvc.NewArchiveRecorder(deps.Registry)
		if err != nil {
			return nil, errors.Wrap(err, "registering archive metrics")
		}
		svcDeps.Recorder = recorder
	}

	if len(deps.Conf.ArchiveNotifyEmails) > 0 {
		mailer := emailsvc.NewService(deps.Conf, deps.Logger, deps.MailLog)
		svcDeps.Notifier = emailsvc.NewArchiveNotifier(mailer, deps.Conf.ArchiveNotifyEmails)
	}
	return archiving.NewService(svcDeps), nil
}
