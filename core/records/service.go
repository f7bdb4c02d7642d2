package records

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/archiving"
	"github.com/trezcool/registro/core/store"
	"github.com/trezcool/registro/core/user"
)

// GradeOverwrittenReason is the archive reason of a grade replaced by a new one.
const GradeOverwrittenReason = "grade overwritten"

// Service manages live records. Every write runs in its own transaction.
type Service struct {
	store    store.Store
	archiver *archiving.Archiver
	logger   core.Logger
}

func NewService(st store.Store, archiver *archiving.Archiver, logger core.Logger) *Service {
	if archiver == nil {
		archiver = archiving.NewArchiver()
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Service{store: st, archiver: archiver, logger: logger}
}

// =========================================================================
// Groups

func (svc *Service) CreateGroup(ctx context.Context, ng academic.NewGroup) (grp academic.Group, err error) {
	err = svc.store.RunInTx(ctx, func(tx store.Tx) error {
		grp, err = tx.Groups.CreateGroup(ctx, ng.Build(core.NowFunc()))
		return err
	})
	return grp, errors.Wrap(err, "creating student group")
}

func (svc *Service) GetGroup(ctx context.Context, id int64) (grp academic.Group, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		grp, err = tx.Groups.GetGroup(ctx, id)
		return err
	})
	return grp, errors.Wrap(err, "getting student group")
}

func (svc *Service) QueryGroups(ctx context.Context, filter *academic.GroupFilter, ordering ...core.DBOrdering) (grps []academic.Group, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		grps, err = tx.Groups.QueryGroups(ctx, filter, ordering...)
		return err
	})
	return grps, errors.Wrap(err, "querying student groups")
}

// SetGroupActive toggles the active flag of a group. Its members are left as they are.
func (svc *Service) SetGroupActive(ctx context.Context, id int64, active bool) (grp academic.Group, err error) {
	err = svc.store.RunInTx(ctx, func(tx store.Tx) error {
		if grp, err = tx.Groups.GetGroup(ctx, id); err != nil {
			return err
		}
		if grp.IsActive == active {
			return nil
		}
		grp.IsActive = active
		grp.UpdatedAt = core.NowFunc()
		grp, err = tx.Groups.UpdateGroup(ctx, grp)
		return err
	})
	if err != nil {
		return academic.Group{}, errors.Wrap(err, "updating student group")
	}
	svc.logger.Info(fmt.Sprintf("student group %d active: %v", id, active))
	return grp, nil
}

// =========================================================================
// People & subjects

// CreateTeacher creates the person record of a teacher.
func (svc *Service) CreateTeacher(ctx context.Context, nu user.NewUser) (usr user.User, err error) {
	nu.Roles = []string{user.RoleTeacher}
	err = svc.store.RunInTx(ctx, func(tx store.Tx) error {
		usr, err = tx.Users.CreateUser(ctx, nu.Build(core.NowFunc()))
		return err
	})
	return usr, errors.Wrap(err, "creating teacher")
}

func (svc *Service) CreateSubject(ctx context.Context, ns academic.NewSubject) (sub academic.Subject, err error) {
	err = svc.store.RunInTx(ctx, func(tx store.Tx) error {
		sub, err = tx.Subjects.CreateSubject(ctx, ns.Build(core.NowFunc()))
		return err
	})
	return sub, errors.Wrap(err, "creating subject")
}

func (svc *Service) QuerySubjects(ctx context.Context) (subs []academic.Subject, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		subs, err = tx.Subjects.QuerySubjects(ctx)
		return err
	})
	return subs, errors.Wrap(err, "querying subjects")
}

// =========================================================================
// Students

// checkRoom fails when the group `groupID` cannot take one more student.
func checkRoom(ctx context.Context, tx store.Tx, groupID int64) error {
	grp, err := tx.Groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	members, err := tx.Students.StudentsByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !grp.HasRoomFor(len(members), 1) {
		return academic.ErrGroupFull
	}
	return nil
}

// CreateStudent enrols a student, creating its person record.
func (svc *Service) CreateStudent(ctx context.Context, ns academic.NewStudent) (std academic.Student, err error) {
	ns.Person.Roles = []string{user.RoleStudent}
	err = svc.store.RunInTx(ctx, func(tx store.Tx) error {
		if ns.GroupID != nil {
			if err := checkRoom(ctx, tx, *ns.GroupID); err != nil {
				return err
			}
		}
		now := core.NowFunc()
		person, err := tx.Users.CreateUser(ctx, ns.Person.Build(now))
		if err != nil {
			return err
		}
		std, err = tx.Students.CreateStudent(ctx, ns.Build(person.ID, now))
		return err
	})
	return std, errors.Wrap(err, "creating student")
}

// AssignGroup moves a student to another group, or out of any group when groupID is nil.
func (svc *Service) AssignGroup(ctx context.Context, studentID int64, groupID *int64) (std academic.Student, err error) {
	err = svc.store.RunInTx(ctx, func(tx store.Tx) error {
		if std, err = tx.Students.GetStudent(ctx, studentID); err != nil {
			return err
		}
		if groupID != nil {
			if std.GroupID != nil && *std.GroupID == *groupID {
				return nil
			}
			if err = checkRoom(ctx, tx, *groupID); err != nil {
				return err
			}
		}
		std.GroupID = groupID
		std.UpdatedAt = core.NowFunc()
		std, err = tx.Students.UpdateStudent(ctx, std)
		return err
	})
	return std, errors.Wrap(err, "assigning student group")
}

func (svc *Service) GetStudent(ctx context.Context, id int64) (std academic.Student, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		std, err = tx.Students.GetStudent(ctx, id)
		return err
	})
	return std, errors.Wrap(err, "getting student")
}

func (svc *Service) QueryStudents(ctx context.Context, filter *academic.StudentFilter, ordering ...core.DBOrdering) (stds []academic.Student, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		stds, err = tx.Students.QueryStudents(ctx, filter, ordering...)
		return err
	})
	return stds, errors.Wrap(err, "querying students")
}

// =========================================================================
// Grades

// RecordGrade saves a grade. A grade the student already has for the same subject & type is
// archived with the reason "grade overwritten", then replaced; the snapshot is returned.
func (svc *Service) RecordGrade(ctx context.Context, ng academic.NewGrade, actor string) (academic.Grade, *archive.ArchivedGrade, error) {
	var (
		grd      academic.Grade
		replaced *archive.ArchivedGrade
	)
	err := svc.store.RunInTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Students.GetStudent(ctx, ng.StudentID); err != nil {
			return err
		}
		if _, err := tx.Subjects.GetSubject(ctx, ng.SubjectID); err != nil {
			return err
		}
		if _, err := tx.Users.GetUser(ctx, ng.TeacherID); err != nil {
			return err
		}

		existing, err := tx.Grades.FindGrade(ctx, ng.StudentID, ng.SubjectID, ng.Type)
		switch errors.Cause(err) {
		case nil:
			snap, err := svc.archiver.ArchiveGrade(ctx, tx, existing.ID, actor, GradeOverwrittenReason)
			if err != nil {
				return err
			}
			if err = tx.Grades.DeleteGrade(ctx, existing.ID); err != nil {
				return err
			}
			replaced = &snap
		case academic.ErrGradeNotFound:
		default:
			return err
		}

		grd, err = tx.Grades.CreateGrade(ctx, ng.Build(core.NowFunc()))
		return err
	})
	if err != nil {
		return academic.Grade{}, nil, errors.Wrap(err, "recording grade")
	}
	if replaced != nil {
		svc.logger.Info(
			fmt.Sprintf("grade %d overwritten by %q", replaced.OriginalGradeID, actor),
			map[string]interface{}{"archived_grade_id": replaced.ID, "new_grade_id": grd.ID},
		)
	}
	return grd, replaced, nil
}

func (svc *Service) GradesByStudent(ctx context.Context, studentID int64) (grds []academic.Grade, err error) {
	err = svc.store.View(ctx, func(tx store.Tx) error {
		if _, err = tx.Students.GetStudent(ctx, studentID); err != nil {
			return err
		}
		grds, err = tx.Grades.GradesByStudent(ctx, studentID)
		return err
	})
	return grds, errors.Wrap(err, "listing grades")
}
