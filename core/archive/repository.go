package archive

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("archived record not found")
)

type (
	// Period bounds ArchivedAt, both ends inclusive. A zero bound is open.
	Period struct {
		From time.Time
		To   time.Time
	}

	// GroupFilter applies AND operation on its fields; every match is case-insensitive.
	GroupFilter struct {
		Code string // substring of GroupCode
		Name string // substring of GroupName
		Period
	}

	StudentFilter struct {
		StudentNumber   string // substring of StudentNumber
		OriginalGroupID *int64
		Period
	}

	GradeFilter struct {
		Search            string // substring of StudentNumber or SubjectName
		OriginalStudentID *int64
		OriginalGroupID   *int64
		Period
	}
)

// Queries of every repository return snapshots ordered by ArchivedAt descending, ID descending.
// Snapshots are never updated once saved.
type (
	GroupRepository interface {
		SaveGroup(ctx context.Context, grp ArchivedStudentGroup) (ArchivedStudentGroup, error)
		GetGroup(ctx context.Context, id int64) (ArchivedStudentGroup, error)
		QueryGroups(ctx context.Context, filter *GroupFilter) ([]ArchivedStudentGroup, error)
		DeleteGroup(ctx context.Context, id int64) error
		GroupExists(ctx context.Context, id int64) (bool, error)
		CountGroups(ctx context.Context) (int64, error)
		// LastGroupArchivedAt returns nil when there is no archived group.
		LastGroupArchivedAt(ctx context.Context) (*time.Time, error)
	}

	StudentRepository interface {
		SaveStudent(ctx context.Context, std ArchivedStudent) (ArchivedStudent, error)
		GetStudent(ctx context.Context, id int64) (ArchivedStudent, error)
		QueryStudents(ctx context.Context, filter *StudentFilter) ([]ArchivedStudent, error)
		DeleteStudent(ctx context.Context, id int64) error
		StudentExists(ctx context.Context, id int64) (bool, error)
		CountStudents(ctx context.Context) (int64, error)
		LastStudentArchivedAt(ctx context.Context) (*time.Time, error)
	}

	GradeRepository interface {
		SaveGrade(ctx context.Context, grd ArchivedGrade) (ArchivedGrade, error)
		GetGrade(ctx context.Context, id int64) (ArchivedGrade, error)
		QueryGrades(ctx context.Context, filter *GradeFilter) ([]ArchivedGrade, error)
		DeleteGrade(ctx context.Context, id int64) error
		GradeExists(ctx context.Context, id int64) (bool, error)
		CountGrades(ctx context.Context) (int64, error)
		LastGradeArchivedAt(ctx context.Context) (*time.Time, error)
	}
)

// Contains reports whether `t` falls inside the period.
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && t.After(p.To) {
		return false
	}
	return true
}
