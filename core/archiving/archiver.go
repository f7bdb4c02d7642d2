package archiving

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/store"
)

// groupDeletionSuffix is appended to the reason of the students archived along with their group.
const groupDeletionSuffix = " (group deletion)"

// Report counts the records archived by one operation.
type Report struct {
	Groups   int `json:"groups"`
	Students int `json:"students"`
	Grades   int `json:"grades"`
}

func (r *Report) add(other Report) {
	r.Groups += other.Groups
	r.Students += other.Students
	r.Grades += other.Grades
}

// Archiver snapshots live records into the archive and removes them, leaves first:
// grades, then students, then groups. Every snapshot is saved before its live record is deleted.
//
// The Archiver never opens nor commits transactions: callers hand it the store.Tx of the
// transaction the whole cascade must run in, and roll it back when an error is returned.
type Archiver struct {
	NowFunc func() time.Time // mockable; defaults to core.NowFunc
}

func NewArchiver() *Archiver {
	return &Archiver{}
}

func (a *Archiver) now() time.Time {
	if a.NowFunc != nil {
		return a.NowFunc().UTC().Truncate(time.Microsecond)
	}
	return core.NowFunc().UTC().Truncate(time.Microsecond)
}

// stamp returns `base` timestamped with the current time.
func (a *Archiver) stamp(base archive.Metadata) archive.Metadata {
	return base.WithReason(base.Reason, a.now())
}

// ArchiveGrade saves a snapshot of a grade. The live grade is kept.
func (a *Archiver) ArchiveGrade(ctx context.Context, tx store.Tx, gradeID int64, actor, reason string) (archive.ArchivedGrade, error) {
	base, err := archive.NewMetadata(actor, reason, a.now())
	if err != nil {
		return archive.ArchivedGrade{}, err
	}

	grd, err := tx.Grades.GetGrade(ctx, gradeID)
	if err != nil {
		return archive.ArchivedGrade{}, lookupError("loading grade", err)
	}

	r := newResolver(tx)
	std, err := tx.Students.GetStudent(ctx, grd.StudentID)
	if err != nil {
		return archive.ArchivedGrade{}, txError("loading grade student", err)
	}
	refs, err := r.studentRefs(ctx, std)
	if err != nil {
		return archive.ArchivedGrade{}, err
	}
	return a.archiveGrade(ctx, tx, r, grd, refs, base)
}

// ArchiveStudent archives every grade of a student, then the student, deleting each live record
// right after its snapshot is saved.
func (a *Archiver) ArchiveStudent(ctx context.Context, tx store.Tx, studentID int64, actor, reason string) (archive.ArchivedStudent, Report, error) {
	base, err := archive.NewMetadata(actor, reason, a.now())
	if err != nil {
		return archive.ArchivedStudent{}, Report{}, err
	}

	std, err := tx.Students.GetStudent(ctx, studentID)
	if err != nil {
		return archive.ArchivedStudent{}, Report{}, lookupError("loading student", err)
	}

	r := newResolver(tx)
	refs, err := r.studentRefs(ctx, std)
	if err != nil {
		return archive.ArchivedStudent{}, Report{}, err
	}
	return a.archiveStudent(ctx, tx, r, refs, base)
}

// ArchiveStudentGroup archives every member of a group the way ArchiveStudent does, with the
// reason suffixed by " (group deletion)", then archives and deletes the group itself.
func (a *Archiver) ArchiveStudentGroup(ctx context.Context, tx store.Tx, groupID int64, actor, reason string) (archive.ArchivedStudentGroup, Report, error) {
	base, err := archive.NewMetadata(actor, reason, a.now())
	if err != nil {
		return archive.ArchivedStudentGroup{}, Report{}, err
	}

	grp, err := tx.Groups.GetGroup(ctx, groupID)
	if err != nil {
		return archive.ArchivedStudentGroup{}, Report{}, lookupError("loading student group", err)
	}

	members, err := tx.Students.StudentsByGroup(ctx, grp.ID)
	if err != nil {
		return archive.ArchivedStudentGroup{}, Report{}, txError("listing group members", err)
	}

	r := newResolver(tx)
	r.groups[grp.ID] = grp

	var rep Report
	memberMeta := base.WithReason(base.Reason+groupDeletionSuffix, base.ArchivedAt)
	for _, std := range members {
		refs, err := r.studentRefs(ctx, std)
		if err != nil {
			return archive.ArchivedStudentGroup{}, rep, err
		}
		_, sub, err := a.archiveStudent(ctx, tx, r, refs, memberMeta)
		rep.add(sub)
		if err != nil {
			return archive.ArchivedStudentGroup{}, rep, err
		}
	}

	snap, err := tx.ArchivedGroups.SaveGroup(ctx, archive.SnapshotGroup(grp, len(members), a.stamp(base)))
	if err != nil {
		return archive.ArchivedStudentGroup{}, rep, txError("saving student group snapshot", err)
	}
	if err = tx.Groups.DeleteGroup(ctx, grp.ID); err != nil {
		return archive.ArchivedStudentGroup{}, rep, txError(fmt.Sprintf("deleting student group %d", grp.ID), err)
	}
	rep.Groups++
	return snap, rep, nil
}

func (a *Archiver) archiveStudent(ctx context.Context, tx store.Tx, r *resolver, refs archive.StudentRefs, base archive.Metadata) (archive.ArchivedStudent, Report, error) {
	var rep Report
	std := refs.Student

	grades, err := tx.Grades.GradesByStudent(ctx, std.ID)
	if err != nil {
		return archive.ArchivedStudent{}, rep, txError(fmt.Sprintf("listing grades of student %d", std.ID), err)
	}
	for _, grd := range grades {
		if _, err = a.archiveGrade(ctx, tx, r, grd, refs, base); err != nil {
			return archive.ArchivedStudent{}, rep, err
		}
		if err = tx.Grades.DeleteGrade(ctx, grd.ID); err != nil {
			return archive.ArchivedStudent{}, rep, txError(fmt.Sprintf("deleting grade %d", grd.ID), err)
		}
		rep.Grades++
	}

	snap, err := tx.ArchivedStudents.SaveStudent(ctx, archive.SnapshotStudent(refs, a.stamp(base)))
	if err != nil {
		return archive.ArchivedStudent{}, rep, txError("saving student snapshot", err)
	}
	if err = tx.Students.DeleteStudent(ctx, std.ID); err != nil {
		return archive.ArchivedStudent{}, rep, txError(fmt.Sprintf("deleting student %d", std.ID), err)
	}
	rep.Students++
	return snap, rep, nil
}

func (a *Archiver) archiveGrade(ctx context.Context, tx store.Tx, r *resolver, grd academic.Grade, refs archive.StudentRefs, base archive.Metadata) (archive.ArchivedGrade, error) {
	grdRefs, err := r.gradeRefs(ctx, grd, refs)
	if err != nil {
		return archive.ArchivedGrade{}, err
	}
	snap, err := tx.ArchivedGrades.SaveGrade(ctx, archive.SnapshotGrade(grd, grdRefs, a.stamp(base)))
	if err != nil {
		return archive.ArchivedGrade{}, txError("saving grade snapshot", err)
	}
	return snap, nil
}
