package dummydb

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/store"
	"github.com/trezcool/registro/core/user"
)

var (
	ErrConstraint = errors.New("foreign key constraint violated")
	errReadOnly   = errors.New("write attempted in a read-only transaction")
)

type (
	// DB is an in-memory database. Transactions work on a copy of the committed tables
	// which replaces them on commit; writers are serialized.
	DB struct {
		writeMu sync.Mutex
		mu      sync.RWMutex
		state   *tables
	}

	tables struct {
		seq map[string]int64

		users    map[int64]user.User
		groups   map[int64]academic.Group
		students map[int64]academic.Student
		subjects map[int64]academic.Subject
		grades   map[int64]academic.Grade

		archivedGroups   map[int64]archive.ArchivedStudentGroup
		archivedStudents map[int64]archive.ArchivedStudent
		archivedGrades   map[int64]archive.ArchivedGrade
	}

	// base is embedded by every repository of a transaction.
	base struct {
		t        *tables
		readOnly bool
	}
)

var _ store.Store = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	return &DB{state: newTables()}, nil
}

func newTables() *tables {
	return &tables{
		seq:              make(map[string]int64),
		users:            make(map[int64]user.User),
		groups:           make(map[int64]academic.Group),
		students:         make(map[int64]academic.Student),
		subjects:         make(map[int64]academic.Subject),
		grades:           make(map[int64]academic.Grade),
		archivedGroups:   make(map[int64]archive.ArchivedStudentGroup),
		archivedStudents: make(map[int64]archive.ArchivedStudent),
		archivedGrades:   make(map[int64]archive.ArchivedGrade),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.seq {
		c.seq[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.groups {
		c.groups[k] = v
	}
	for k, v := range t.students {
		c.students[k] = v
	}
	for k, v := range t.subjects {
		c.subjects[k] = v
	}
	for k, v := range t.grades {
		c.grades[k] = v
	}
	for k, v := range t.archivedGroups {
		c.archivedGroups[k] = v
	}
	for k, v := range t.archivedStudents {
		c.archivedStudents[k] = v
	}
	for k, v := range t.archivedGrades {
		c.archivedGrades[k] = v
	}
	return c
}

func (t *tables) nextID(table string) int64 {
	t.seq[table]++
	return t.seq[table]
}

func (t *tables) tx(readOnly bool) store.Tx {
	b := base{t: t, readOnly: readOnly}
	return store.Tx{
		Users:            &userRepository{b},
		Groups:           &groupRepository{b},
		Students:         &studentRepository{b},
		Subjects:         &subjectRepository{b},
		Grades:           &gradeRepository{b},
		ArchivedGroups:   &archivedGroupRepository{b},
		ArchivedStudents: &archivedStudentRepository{b},
		ArchivedGrades:   &archivedGradeRepository{b},
	}
}

func (db *DB) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	db.mu.RLock()
	work := db.state.clone()
	db.mu.RUnlock()

	// a panic in fn leaves the committed tables untouched
	if err := fn(work.tx(false)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	db.state = work
	db.mu.Unlock()
	return nil
}

func (db *DB) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// committed tables are never written to, only replaced
	db.mu.RLock()
	committed := db.state
	db.mu.RUnlock()
	return fn(committed.tx(true))
}

func (b base) writable() error {
	if b.readOnly {
		return errReadOnly
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameID(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}
