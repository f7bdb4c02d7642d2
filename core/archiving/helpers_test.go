package archiving

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/store"
	dummydb "github.com/trezcool/registro/storage/database/dummy"
	testutil "github.com/trezcool/registro/tests"
)

var (
	errInjected = errors.New("injected storage failure")
	errCommit   = errors.New("pq: could not serialize access due to read/write dependencies among transactions")
)

func newTestStore(t *testing.T) *dummydb.DB {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() = %v", err)
	}
	return db
}

func newTestService(st store.Store, deps ...Deps) *Service {
	d := Deps{}
	if len(deps) > 0 {
		d = deps[0]
	}
	d.Store = st
	if d.Archiver == nil {
		d.Archiver = &Archiver{NowFunc: testutil.Clock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), time.Second)}
	}
	return NewService(d)
}

type counts struct {
	groups, students, grades                         int64
	archivedGroups, archivedStudents, archivedGrades int64
}

func countAll(t *testing.T, st store.Store) counts {
	t.Helper()
	var c counts
	err := st.View(context.Background(), func(tx store.Tx) error {
		ctx := context.Background()
		var err error
		if c.groups, err = tx.Groups.CountGroups(ctx); err != nil {
			return err
		}
		if c.students, err = tx.Students.CountStudents(ctx); err != nil {
			return err
		}
		if c.grades, err = tx.Grades.CountGrades(ctx); err != nil {
			return err
		}
		if c.archivedGroups, err = tx.ArchivedGroups.CountGroups(ctx); err != nil {
			return err
		}
		if c.archivedStudents, err = tx.ArchivedStudents.CountStudents(ctx); err != nil {
			return err
		}
		c.archivedGrades, err = tx.ArchivedGrades.CountGrades(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("counting records: %v", err)
	}
	return c
}

// faultyStore injects a storage failure into the transactions it runs.
type faultyStore struct {
	store.Store
	inject func(tx *store.Tx)
}

func (s *faultyStore) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.RunInTx(ctx, func(tx store.Tx) error {
		s.inject(&tx)
		return fn(tx)
	})
}

// commitFailingStore runs fn to completion then fails the way a commit does, rolling everything back.
type commitFailingStore struct {
	store.Store
}

func (s *commitFailingStore) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	err := s.Store.RunInTx(ctx, func(tx store.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errCommit
	})
	if err == errCommit {
		return pkgerrors.Wrap(err, "committing transaction")
	}
	return err
}

// failAfter lets `n` calls succeed then fails every other one.
type failAfter struct {
	n int
}

func (f *failAfter) fail() bool {
	if f.n == 0 {
		return true
	}
	f.n--
	return false
}

type failingArchivedGrades struct {
	archive.GradeRepository
	failAfter
}

func (r *failingArchivedGrades) SaveGrade(ctx context.Context, grd archive.ArchivedGrade) (archive.ArchivedGrade, error) {
	if r.fail() {
		return archive.ArchivedGrade{}, errInjected
	}
	return r.GradeRepository.SaveGrade(ctx, grd)
}

type failingArchivedStudents struct {
	archive.StudentRepository
	failAfter
}

func (r *failingArchivedStudents) SaveStudent(ctx context.Context, std archive.ArchivedStudent) (archive.ArchivedStudent, error) {
	if r.fail() {
		return archive.ArchivedStudent{}, errInjected
	}
	return r.StudentRepository.SaveStudent(ctx, std)
}

type failingArchivedGroups struct {
	archive.GroupRepository
	failAfter
}

func (r *failingArchivedGroups) SaveGroup(ctx context.Context, grp archive.ArchivedStudentGroup) (archive.ArchivedStudentGroup, error) {
	if r.fail() {
		return archive.ArchivedStudentGroup{}, errInjected
	}
	return r.GroupRepository.SaveGroup(ctx, grp)
}

// recorderMock & notifierMock capture what the service reports.
type recorderMock struct {
	mu   sync.Mutex
	ops  []string
	errs []error
	reps []Report
}

func (r *recorderMock) ObserveArchival(op string, rep Report, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
	r.reps = append(r.reps, rep)
}

type notifierMock struct {
	groups []archive.ArchivedStudentGroup
	reps   []Report
	err    error
}

func (n *notifierMock) GroupArchived(_ context.Context, grp archive.ArchivedStudentGroup, rep Report) error {
	n.groups = append(n.groups, grp)
	n.reps = append(n.reps, rep)
	return n.err
}
