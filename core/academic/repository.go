package academic

import (
	"context"
	"errors"

	"github.com/trezcool/registro/core"
)

var (
	// errors
	ErrGroupNotFound   = errors.New("student group not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrGradeNotFound   = errors.New("grade not found")
	ErrGroupFull       = errors.New("student group has reached its maximum capacity")
	ErrDuplicate       = errors.New("a record with the same unique fields already exists")
)

type (
	// GroupFilter: Search does a case-insensitive match on one of Group.Name or Group.Code.
	GroupFilter struct {
		Search   string
		IsActive *bool
	}

	// StudentFilter: Search does a case-insensitive match on Student.StudentNumber.
	StudentFilter struct {
		Search   string
		GroupID  *int64
		IsActive *bool
	}

	GroupRepository interface {
		CreateGroup(ctx context.Context, grp Group) (Group, error)
		GetGroup(ctx context.Context, id int64) (Group, error)
		QueryGroups(ctx context.Context, filter *GroupFilter, ordering ...core.DBOrdering) ([]Group, error)
		UpdateGroup(ctx context.Context, grp Group) (Group, error)
		DeleteGroup(ctx context.Context, id int64) error
		GroupExists(ctx context.Context, id int64) (bool, error)
		CountGroups(ctx context.Context) (int64, error)
	}

	StudentRepository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudent(ctx context.Context, id int64) (Student, error)
		QueryStudents(ctx context.Context, filter *StudentFilter, ordering ...core.DBOrdering) ([]Student, error)
		// StudentsByGroup returns the members of a group ordered by ID.
		StudentsByGroup(ctx context.Context, groupID int64) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudent(ctx context.Context, id int64) error
		StudentExists(ctx context.Context, id int64) (bool, error)
		CountStudents(ctx context.Context) (int64, error)
	}

	SubjectRepository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubject(ctx context.Context, id int64) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
	}

	GradeRepository interface {
		CreateGrade(ctx context.Context, grd Grade) (Grade, error)
		GetGrade(ctx context.Context, id int64) (Grade, error)
		// FindGrade returns the grade of a student for a subject & type.
		FindGrade(ctx context.Context, studentID, subjectID int64, typ GradeType) (Grade, error)
		// GradesByStudent returns the grades of a student ordered by date descending.
		GradesByStudent(ctx context.Context, studentID int64) ([]Grade, error)
		UpdateGrade(ctx context.Context, grd Grade) (Grade, error)
		DeleteGrade(ctx context.Context, id int64) error
		CountGrades(ctx context.Context) (int64, error)
	}
)
