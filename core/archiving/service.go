package archiving

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/store"
)

var errInvalidDateRange = errors.New("start date must not be after end date")

type (
	// Recorder observes archival operations (e.g. metrics).
	Recorder interface {
		ObserveArchival(op string, rep Report, err error, elapsed time.Duration)
	}

	// Notifier is told about every committed group archival.
	Notifier interface {
		GroupArchived(ctx context.Context, grp archive.ArchivedStudentGroup, rep Report) error
	}

	Deps struct {
		Store    store.Store
		Archiver *Archiver
		Logger   core.Logger
		Recorder Recorder // optional
		Notifier Notifier // optional
	}

	// Service runs archivals in their own transaction and answers every read of the archive.
	Service struct {
		store    store.Store
		archiver *Archiver
		logger   core.Logger
		recorder Recorder
		notifier Notifier
	}
)

func NewService(deps Deps) *Service {
	svc := &Service{
		store:    deps.Store,
		archiver: deps.Archiver,
		logger:   deps.Logger,
		recorder: deps.Recorder,
		notifier: deps.Notifier,
	}
	if svc.archiver == nil {
		svc.archiver = NewArchiver()
	}
	if svc.logger == nil {
		svc.logger = core.NopLogger{}
	}
	return svc
}

// Archiver returns the archiver the service runs, for callers composing their own transactions.
func (svc *Service) Archiver() *Archiver { return svc.archiver }

func (svc *Service) observe(op string, rep Report, err error, start time.Time, extras map[string]interface{}) {
	if svc.recorder != nil {
		svc.recorder.ObserveArchival(op, rep, err, time.Since(start))
	}
	switch {
	case err == nil:
		extras["grades"] = rep.Grades
		extras["students"] = rep.Students
		extras["groups"] = rep.Groups
		svc.logger.Info(op+" succeeded", extras)
	case IsNotFound(err) || core.IsValidationError(err):
		svc.logger.Warn(fmt.Sprintf("%s rejected: %v", op, err), extras)
	default:
		svc.logger.Error(fmt.Sprintf("%s failed: %v", op, err), err, extras)
	}
}

// =========================================================================
// Archival

// ArchiveGrade saves a snapshot of a grade in one transaction. The live grade is kept.
func (svc *Service) ArchiveGrade(ctx context.Context, gradeID int64, actor, reason string) (archive.ArchivedGrade, error) {
	start := time.Now()
	var snap archive.ArchivedGrade
	err := svc.store.RunInTx(ctx, func(tx store.Tx) error {
		var err error
		snap, err = svc.archiver.ArchiveGrade(ctx, tx, gradeID, actor, reason)
		return err
	})
	err = archivalError(err)

	var rep Report
	if err == nil {
		rep.Grades = 1
	}
	svc.observe("archive_grade", rep, err, start, map[string]interface{}{"grade_id": gradeID, "actor": actor, "reason": reason})
	return snap, err
}

// ArchiveStudent archives a student and all its grades in one transaction.
func (svc *Service) ArchiveStudent(ctx context.Context, studentID int64, actor, reason string) (Report, error) {
	start := time.Now()
	var rep Report
	err := svc.store.RunInTx(ctx, func(tx store.Tx) error {
		var err error
		_, rep, err = svc.archiver.ArchiveStudent(ctx, tx, studentID, actor, reason)
		return err
	})
	err = archivalError(err)
	if err != nil {
		rep = Report{} // rolled back
	}
	svc.observe("archive_student", rep, err, start, map[string]interface{}{"student_id": studentID, "actor": actor, "reason": reason})
	return rep, err
}

// ArchiveStudentGroup archives a group, its students and their grades in one transaction.
func (svc *Service) ArchiveStudentGroup(ctx context.Context, groupID int64, actor, reason string) (Report, error) {
	start := time.Now()
	var (
		rep  Report
		snap archive.ArchivedStudentGroup
	)
	err := svc.store.RunInTx(ctx, func(tx store.Tx) error {
		var err error
		snap, rep, err = svc.archiver.ArchiveStudentGroup(ctx, tx, groupID, actor, reason)
		return err
	})
	err = archivalError(err)
	if err != nil {
		rep = Report{} // rolled back
	}
	svc.observe("archive_group", rep, err, start, map[string]interface{}{"group_id": groupID, "actor": actor, "reason": reason})
	if err != nil {
		return rep, err
	}

	if svc.notifier != nil {
		if nErr := svc.notifier.GroupArchived(ctx, snap, rep); nErr != nil {
			svc.logger.Error(fmt.Sprintf("notifying group archival: %v", nErr), nErr)
		}
	}
	return rep, nil
}

// =========================================================================
// Queries

func (svc *Service) ListArchivedGroups(ctx context.Context) ([]archive.ArchivedStudentGroup, error) {
	return svc.queryGroups(ctx, nil)
}

func (svc *Service) ListArchivedStudents(ctx context.Context) ([]archive.ArchivedStudent, error) {
	return svc.queryStudents(ctx, nil)
}

func (svc *Service) ListArchivedGrades(ctx context.Context) ([]archive.ArchivedGrade, error) {
	return svc.queryGrades(ctx, nil)
}

// SearchArchivedGroups returns the groups whose code or name contains `term`, case-insensitively.
// A blank term lists every group.
func (svc *Service) SearchArchivedGroups(ctx context.Context, term string) ([]archive.ArchivedStudentGroup, error) {
	term = core.CleanString(term)
	if term == "" {
		return svc.ListArchivedGroups(ctx)
	}

	var byCode, byName []archive.ArchivedStudentGroup
	err := svc.store.View(ctx, func(tx store.Tx) error {
		var err error
		if byCode, err = tx.ArchivedGroups.QueryGroups(ctx, &archive.GroupFilter{Code: term}); err != nil {
			return err
		}
		byName, err = tx.ArchivedGroups.QueryGroups(ctx, &archive.GroupFilter{Name: term})
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "searching archived groups")
	}
	return mergeGroups(byCode, byName), nil
}

// SearchArchivedStudents returns the students whose student number contains `term`, case-insensitively.
// A blank term lists every student.
func (svc *Service) SearchArchivedStudents(ctx context.Context, term string) ([]archive.ArchivedStudent, error) {
	term = core.CleanString(term)
	if term == "" {
		return svc.ListArchivedStudents(ctx)
	}
	return svc.queryStudents(ctx, &archive.StudentFilter{StudentNumber: term})
}

// SearchArchivedGrades returns the grades whose student number or subject name contains `term`.
// A blank term lists every grade.
func (svc *Service) SearchArchivedGrades(ctx context.Context, term string) ([]archive.ArchivedGrade, error) {
	term = core.CleanString(term)
	if term == "" {
		return svc.ListArchivedGrades(ctx)
	}
	return svc.queryGrades(ctx, &archive.GradeFilter{Search: term})
}

func (svc *Service) GetArchivedGroup(ctx context.Context, id int64) (grp archive.ArchivedStudentGroup, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		grp, err = tx.ArchivedGroups.GetGroup(ctx, id)
		return err
	})
	return grp, errors.Wrap(err, "getting archived group")
}

func (svc *Service) GetArchivedStudent(ctx context.Context, id int64) (std archive.ArchivedStudent, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		std, err = tx.ArchivedStudents.GetStudent(ctx, id)
		return err
	})
	return std, errors.Wrap(err, "getting archived student")
}

func (svc *Service) GetArchivedGrade(ctx context.Context, id int64) (grd archive.ArchivedGrade, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		grd, err = tx.ArchivedGrades.GetGrade(ctx, id)
		return err
	})
	return grd, errors.Wrap(err, "getting archived grade")
}

// GetArchivedStudentsByGroupID returns the students archived out of the live group `groupID`.
func (svc *Service) GetArchivedStudentsByGroupID(ctx context.Context, groupID int64) ([]archive.ArchivedStudent, error) {
	return svc.queryStudents(ctx, &archive.StudentFilter{OriginalGroupID: &groupID})
}

// GetArchivedGradesByStudentID returns the grades archived for the live student `studentID`.
func (svc *Service) GetArchivedGradesByStudentID(ctx context.Context, studentID int64) ([]archive.ArchivedGrade, error) {
	return svc.queryGrades(ctx, &archive.GradeFilter{OriginalStudentID: &studentID})
}

// GetArchivedGradesByGroupID returns the grades archived for students of the live group `groupID`.
func (svc *Service) GetArchivedGradesByGroupID(ctx context.Context, groupID int64) ([]archive.ArchivedGrade, error) {
	return svc.queryGrades(ctx, &archive.GradeFilter{OriginalGroupID: &groupID})
}

// GetArchivedGroupsByDateRange returns the groups archived between `start` and `end`, both inclusive.
func (svc *Service) GetArchivedGroupsByDateRange(ctx context.Context, start, end time.Time) ([]archive.ArchivedStudentGroup, error) {
	if start.After(end) {
		return nil, core.NewValidationError(
			errInvalidDateRange,
			core.FieldError{Field: "start", Error: errInvalidDateRange.Error()},
		)
	}
	return svc.queryGroups(ctx, &archive.GroupFilter{Period: archive.Period{From: start.UTC(), To: end.UTC()}})
}

func (svc *Service) queryGroups(ctx context.Context, filter *archive.GroupFilter) (grps []archive.ArchivedStudentGroup, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		grps, err = tx.ArchivedGroups.QueryGroups(ctx, filter)
		return err
	})
	return grps, errors.Wrap(err, "querying archived groups")
}

func (svc *Service) queryStudents(ctx context.Context, filter *archive.StudentFilter) (stds []archive.ArchivedStudent, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		stds, err = tx.ArchivedStudents.QueryStudents(ctx, filter)
		return err
	})
	return stds, errors.Wrap(err, "querying archived students")
}

func (svc *Service) queryGrades(ctx context.Context, filter *archive.GradeFilter) (grds []archive.ArchivedGrade, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		grds, err = tx.ArchivedGrades.QueryGrades(ctx, filter)
		return err
	})
	return grds, errors.Wrap(err, "querying archived grades")
}

// mergeGroups returns the union of `lists`, without duplicates, ordered by ArchivedAt then ID, descending.
func mergeGroups(lists ...[]archive.ArchivedStudentGroup) []archive.ArchivedStudentGroup {
	seen := make(map[int64]bool)
	merged := make([]archive.ArchivedStudentGroup, 0)
	for _, list := range lists {
		for _, grp := range list {
			if seen[grp.ID] {
				continue
			}
			seen[grp.ID] = true
			merged = append(merged, grp)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].ArchivedAt.Equal(merged[j].ArchivedAt) {
			return merged[i].ArchivedAt.After(merged[j].ArchivedAt)
		}
		return merged[i].ID > merged[j].ID
	})
	return merged
}

// =========================================================================
// Statistics

// GetArchiveStatistics counts the archived records. LastArchiveDate is the most recent archival
// across groups, students and grades, nil when the archive is empty.
func (svc *Service) GetArchiveStatistics(ctx context.Context) (stats archive.Statistics, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		stats, err = statistics(ctx, tx)
		return err
	})
	return stats, errors.Wrap(err, "computing archive statistics")
}

func statistics(ctx context.Context, tx store.Tx) (archive.Statistics, error) {
	var (
		stats archive.Statistics
		err   error
	)
	if stats.TotalGroups, err = tx.ArchivedGroups.CountGroups(ctx); err != nil {
		return stats, err
	}
	if stats.TotalStudents, err = tx.ArchivedStudents.CountStudents(ctx); err != nil {
		return stats, err
	}
	if stats.TotalGrades, err = tx.ArchivedGrades.CountGrades(ctx); err != nil {
		return stats, err
	}

	lasts := make([]*time.Time, 3)
	if lasts[0], err = tx.ArchivedGroups.LastGroupArchivedAt(ctx); err != nil {
		return stats, err
	}
	if lasts[1], err = tx.ArchivedStudents.LastStudentArchivedAt(ctx); err != nil {
		return stats, err
	}
	if lasts[2], err = tx.ArchivedGrades.LastGradeArchivedAt(ctx); err != nil {
		return stats, err
	}
	for _, last := range lasts {
		if last != nil && (stats.LastArchiveDate == nil || last.After(*stats.LastArchiveDate)) {
			t := *last
			stats.LastArchiveDate = &t
		}
	}
	return stats, nil
}

// =========================================================================
// Deletion

// DeleteArchivedGroup removes a snapshot for good.
func (svc *Service) DeleteArchivedGroup(ctx context.Context, id int64) error {
	err := svc.store.RunInTx(ctx, func(tx store.Tx) error {
		exists, err := tx.ArchivedGroups.GroupExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return archive.ErrNotFound
		}
		return tx.ArchivedGroups.DeleteGroup(ctx, id)
	})
	return svc.deleted("archived group", id, err)
}

// DeleteArchivedStudent removes a snapshot for good.
func (svc *Service) DeleteArchivedStudent(ctx context.Context, id int64) error {
	err := svc.store.RunInTx(ctx, func(tx store.Tx) error {
		exists, err := tx.ArchivedStudents.StudentExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return archive.ErrNotFound
		}
		return tx.ArchivedStudents.DeleteStudent(ctx, id)
	})
	return svc.deleted("archived student", id, err)
}

// DeleteArchivedGrade removes a snapshot for good.
func (svc *Service) DeleteArchivedGrade(ctx context.Context, id int64) error {
	err := svc.store.RunInTx(ctx, func(tx store.Tx) error {
		exists, err := tx.ArchivedGrades.GradeExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return archive.ErrNotFound
		}
		return tx.ArchivedGrades.DeleteGrade(ctx, id)
	})
	return svc.deleted("archived grade", id, err)
}

func (svc *Service) deleted(what string, id int64, err error) error {
	if err != nil {
		return errors.Wrapf(err, "deleting %s %d", what, id)
	}
	svc.logger.Info(fmt.Sprintf("%s %d deleted", what, id))
	return nil
}
