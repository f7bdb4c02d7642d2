package dummydb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/store"
	dummydb "github.com/trezcool/registro/storage/database/dummy"
	testutil "github.com/trezcool/registro/tests"
)

func openDB(t *testing.T) *dummydb.DB {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	return db
}

func TestRunInTxRollback(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	grp := testutil.CreateGroup(t, db, "Group A", "GA")
	boom := errors.New("boom")

	err := db.RunInTx(ctx, func(tx store.Tx) error {
		if err := tx.Groups.DeleteGroup(ctx, grp.ID); err != nil {
			return err
		}
		// the transaction sees its own writes
		if ok, _ := tx.Groups.GroupExists(ctx, grp.ID); ok {
			t.Error("deleted group still visible inside the transaction")
		}
		return boom
	})
	if err != boom {
		t.Fatalf("RunInTx() = %v; want %v", err, boom)
	}

	err = db.View(ctx, func(tx store.Tx) error {
		_, err := tx.Groups.GetGroup(ctx, grp.ID)
		return err
	})
	if err != nil {
		t.Errorf("group lost after rollback: %v", err)
	}
}

func TestRunInTxPanicLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	grp := testutil.CreateGroup(t, db, "Group A", "GA")

	func() {
		defer func() { _ = recover() }()
		_ = db.RunInTx(ctx, func(tx store.Tx) error {
			_ = tx.Groups.DeleteGroup(ctx, grp.ID)
			panic("half way")
		})
	}()

	// the write lock was released & nothing was committed
	err := db.RunInTx(ctx, func(tx store.Tx) error {
		_, err := tx.Groups.GetGroup(ctx, grp.ID)
		return err
	})
	if err != nil {
		t.Errorf("RunInTx() after panic = %v", err)
	}
}

func TestViewIsReadOnly(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	err := db.View(ctx, func(tx store.Tx) error {
		_, err := tx.ArchivedGroups.SaveGroup(ctx, archive.ArchivedStudentGroup{GroupCode: "X"})
		return err
	})
	if err == nil {
		t.Fatal("View() allowed a write")
	}
}

func TestConstraints(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	teacher := testutil.CreateTeacher(t, db, "Prof. Lind")
	sub := testutil.CreateSubject(t, db, "Algorithms")
	grp := testutil.CreateGroup(t, db, "Group A", "GA")
	std := testutil.CreateStudent(t, db, "S-1", "Mira Koval", &grp.ID)
	testutil.CreateGrade(t, db, std.ID, sub.ID, teacher.ID, academic.GradeTypeExam, 90, time.Now())

	tests := []struct {
		name string
		fn   func(tx store.Tx) error
		want error
	}{
		{
			name: "duplicate group code",
			fn: func(tx store.Tx) error {
				_, err := tx.Groups.CreateGroup(ctx, academic.Group{Name: "Other", Code: "GA"})
				return err
			},
			want: academic.ErrDuplicate,
		},
		{
			name: "duplicate grade",
			fn: func(tx store.Tx) error {
				_, err := tx.Grades.CreateGrade(ctx, academic.Grade{StudentID: std.ID, SubjectID: sub.ID, TeacherID: teacher.ID, Type: academic.GradeTypeExam})
				return err
			},
			want: academic.ErrDuplicate,
		},
		{
			name: "group with members",
			fn:   func(tx store.Tx) error { return tx.Groups.DeleteGroup(ctx, grp.ID) },
			want: dummydb.ErrConstraint,
		},
		{
			name: "student with grades",
			fn:   func(tx store.Tx) error { return tx.Students.DeleteStudent(ctx, std.ID) },
			want: dummydb.ErrConstraint,
		},
		{
			name: "unknown grade",
			fn:   func(tx store.Tx) error { return tx.Grades.DeleteGrade(ctx, 42) },
			want: academic.ErrGradeNotFound,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := db.RunInTx(ctx, tc.fn); err != tc.want {
				t.Errorf("got %v; want %v", err, tc.want)
			}
		})
	}
}

func TestArchivedQueriesOrdering(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	groupID := int64(5)

	err := db.RunInTx(ctx, func(tx store.Tx) error {
		for i, s := range []struct {
			number string
			offset time.Duration
		}{{"A-1", 0}, {"A-2", time.Hour}, {"B-1", time.Hour}} {
			std := archive.ArchivedStudent{
				StudentNumber:   s.number,
				OriginalGroupID: &groupID,
				Metadata:        archive.Metadata{ArchivedAt: at.Add(s.offset), ArchivedBy: "x", Reason: "y"},
			}
			if i == 2 {
				std.OriginalGroupID = nil
			}
			if _, err := tx.ArchivedStudents.SaveStudent(ctx, std); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter *archive.StudentFilter
		want   []string
	}{
		{name: "all, newest first then highest id", want: []string{"B-1", "A-2", "A-1"}},
		{name: "number", filter: &archive.StudentFilter{StudentNumber: "a-"}, want: []string{"A-2", "A-1"}},
		{name: "group", filter: &archive.StudentFilter{OriginalGroupID: &groupID}, want: []string{"A-2", "A-1"}},
		{name: "period", filter: &archive.StudentFilter{Period: archive.Period{From: at, To: at}}, want: []string{"A-1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []archive.ArchivedStudent
			err := db.View(ctx, func(tx store.Tx) (err error) {
				got, err = tx.ArchivedStudents.QueryStudents(ctx, tc.filter)
				return err
			})
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d students; want %v", len(got), tc.want)
			}
			for i, number := range tc.want {
				if got[i].StudentNumber != number {
					t.Errorf("got[%d] = %q; want %q", i, got[i].StudentNumber, number)
				}
			}
		})
	}
}
