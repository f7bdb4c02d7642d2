// Package store defines the unit of work every service runs its reads & writes in.
package store

import (
	"context"

	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/user"
)

// Tx bundles the repositories of one unit of work. All of them are bound to the same transaction.
type Tx struct {
	Users    user.Repository
	Groups   academic.GroupRepository
	Students academic.StudentRepository
	Subjects academic.SubjectRepository
	Grades   academic.GradeRepository

	ArchivedGroups   archive.GroupRepository
	ArchivedStudents archive.StudentRepository
	ArchivedGrades   archive.GradeRepository
}

type Store interface {
	// RunInTx runs fn in one transaction: committed when fn returns nil, rolled back otherwise.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against committed state only; fn must not write.
	View(ctx context.Context, fn func(tx Tx) error) error
}
