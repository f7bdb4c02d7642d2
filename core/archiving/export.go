package archiving

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/store"
)

// Export is a consistent dump of the whole archive.
type Export struct {
	ExportedAt time.Time                      `json:"exported_at"`
	Statistics archive.Statistics             `json:"statistics"`
	Groups     []archive.ArchivedStudentGroup `json:"groups"`
	Students   []archive.ArchivedStudent      `json:"students"`
	Grades     []archive.ArchivedGrade        `json:"grades"`
}

// Export writes the whole archive to `w` as an indented JSON document.
func (svc *Service) Export(ctx context.Context, w io.Writer) (Export, error) {
	exp := Export{ExportedAt: core.NowFunc()}
	err := svc.store.View(ctx, func(tx store.Tx) error {
		var err error
		if exp.Statistics, err = statistics(ctx, tx); err != nil {
			return err
		}
		if exp.Groups, err = tx.ArchivedGroups.QueryGroups(ctx, nil); err != nil {
			return err
		}
		if exp.Students, err = tx.ArchivedStudents.QueryStudents(ctx, nil); err != nil {
			return err
		}
		exp.Grades, err = tx.ArchivedGrades.QueryGrades(ctx, nil)
		return err
	})
	if err != nil {
		return Export{}, errors.Wrap(err, "reading archive")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err = enc.Encode(exp); err != nil {
		return Export{}, errors.Wrap(err, "encoding archive")
	}
	return exp, nil
}
