package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/store"
	"github.com/trezcool/registro/core/user"
)

// Clock returns a mockable clock that starts at `start` and moves `step` forward on every call.
func Clock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start.UTC()
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}

func write(t *testing.T, st store.Store, fn func(tx store.Tx) error) {
	t.Helper()
	if err := st.RunInTx(context.Background(), fn); err != nil {
		t.Fatalf("fixture failed: %v", err)
	}
}

func CreateUser(t *testing.T, st store.Store, name, uname string, roles ...string) user.User {
	t.Helper()
	nu := user.NewUser{Name: name, Username: uname, Email: uname + "@registro.test", Roles: roles}
	usr := nu.Build(core.NowFunc())
	write(t, st, func(tx store.Tx) (err error) {
		usr, err = tx.Users.CreateUser(context.Background(), usr)
		return err
	})
	return usr
}

func CreateTeacher(t *testing.T, st store.Store, name string) user.User {
	t.Helper()
	uname := strings.ToLower(strings.NewReplacer(" ", "_", ".", "").Replace(name))
	return CreateUser(t, st, name, uname, user.RoleTeacher)
}

func CreateGroup(t *testing.T, st store.Store, name, code string, maxCapacity ...int) academic.Group {
	t.Helper()
	ng := academic.NewGroup{
		Name:           name,
		Code:           code,
		CourseYear:     2,
		StudyForm:      academic.StudyFormFullTime,
		Specialization: "Computer Science",
		EnrollmentYear: 2023,
	}
	if len(maxCapacity) > 0 {
		ng.MaxCapacity = maxCapacity[0]
	}
	grp := ng.Build(core.NowFunc())
	write(t, st, func(tx store.Tx) (err error) {
		grp, err = tx.Groups.CreateGroup(context.Background(), grp)
		return err
	})
	return grp
}

func CreateStudent(t *testing.T, st store.Store, number, fullName string, groupID *int64) academic.Student {
	t.Helper()
	ns := academic.NewStudent{
		Person:         user.NewUser{Name: fullName, Username: "std_" + strings.ToLower(number)},
		StudentNumber:  number,
		EnrollmentYear: 2023,
		CourseYear:     2,
		StudyForm:      academic.StudyFormFullTime,
		Phone:          "+380000000000",
		Address:        "1 Campus Road",
		GroupID:        groupID,
	}
	ns.Clean()

	var std academic.Student
	write(t, st, func(tx store.Tx) error {
		ctx := context.Background()
		person, err := tx.Users.CreateUser(ctx, ns.Person.Build(core.NowFunc()))
		if err != nil {
			return err
		}
		std, err = tx.Students.CreateStudent(ctx, ns.Build(person.ID, core.NowFunc()))
		return err
	})
	return std
}

func CreateSubject(t *testing.T, st store.Store, name string) academic.Subject {
	t.Helper()
	sub := academic.NewSubject{Name: name}.Build(core.NowFunc())
	write(t, st, func(tx store.Tx) (err error) {
		sub, err = tx.Subjects.CreateSubject(context.Background(), sub)
		return err
	})
	return sub
}

func CreateGrade(
	t *testing.T,
	st store.Store,
	studentID, subjectID, teacherID int64,
	typ academic.GradeType,
	value int,
	date time.Time,
) academic.Grade {
	t.Helper()
	ng := academic.NewGrade{
		StudentID: studentID,
		SubjectID: subjectID,
		TeacherID: teacherID,
		Value:     value,
		Type:      typ,
		Date:      date,
	}
	grd := ng.Build(core.NowFunc())
	write(t, st, func(tx store.Tx) (err error) {
		grd, err = tx.Grades.CreateGrade(context.Background(), grd)
		return err
	})
	return grd
}

// School is a seeded set of live records.
type School struct {
	Teacher  user.User
	Subjects []academic.Subject
	Groups   []academic.Group
	Students map[int64][]academic.Student // by group ID
	Grades   map[int64][]academic.Grade   // by student ID
}

var seedGradeTypes = []academic.GradeType{academic.GradeTypeExam, academic.GradeTypeTest}

// Seed creates `groups` groups of `students` students with `grades` grades each (at most 10 grades).
func Seed(t *testing.T, st store.Store, groups, students, grades int) School {
	t.Helper()
	if grades > 10 {
		t.Fatalf("Seed() supports at most 10 grades per student; got %d", grades)
	}

	school := School{
		Teacher:  CreateTeacher(t, st, "Seed Teacher"),
		Students: make(map[int64][]academic.Student),
		Grades:   make(map[int64][]academic.Grade),
	}
	for i := 0; i < 5; i++ {
		school.Subjects = append(school.Subjects, CreateSubject(t, st, fmt.Sprintf("Subject %d", i+1)))
	}

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for g := 0; g < groups; g++ {
		grp := CreateGroup(t, st, fmt.Sprintf("Group %d", g+1), fmt.Sprintf("GRP-%d", g+1))
		school.Groups = append(school.Groups, grp)
		for s := 0; s < students; s++ {
			std := CreateStudent(t, st, fmt.Sprintf("S%02d%03d", g+1, s+1), fmt.Sprintf("Student %d-%d", g+1, s+1), &grp.ID)
			school.Students[grp.ID] = append(school.Students[grp.ID], std)
			for n := 0; n < grades; n++ {
				grd := CreateGrade(
					t, st, std.ID,
					school.Subjects[n%len(school.Subjects)].ID,
					school.Teacher.ID,
					seedGradeTypes[n/len(school.Subjects)],
					60+n,
					day.AddDate(0, 0, n),
				)
				school.Grades[std.ID] = append(school.Grades[std.ID], grd)
			}
		}
	}
	return school
}
