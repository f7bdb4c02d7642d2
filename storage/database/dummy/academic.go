package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
)

// =========================================================================
// Groups

type groupRepository struct {
	base
}

var _ academic.GroupRepository = (*groupRepository)(nil) // interface compliance check

func (repo *groupRepository) checkUnique(grp academic.Group) error {
	for _, g := range repo.t.groups {
		if g.ID != grp.ID && (g.Name == grp.Name || g.Code == grp.Code) {
			return academic.ErrDuplicate
		}
	}
	return nil
}

func (repo *groupRepository) CreateGroup(_ context.Context, grp academic.Group) (academic.Group, error) {
	if err := repo.writable(); err != nil {
		return academic.Group{}, err
	}
	if err := repo.checkUnique(grp); err != nil {
		return academic.Group{}, err
	}
	grp.ID = repo.t.nextID("student_group")
	repo.t.groups[grp.ID] = grp
	return grp, nil
}

func (repo *groupRepository) GetGroup(_ context.Context, id int64) (academic.Group, error) {
	if grp, ok := repo.t.groups[id]; ok {
		return grp, nil
	}
	return academic.Group{}, academic.ErrGroupNotFound
}

func (repo *groupRepository) QueryGroups(_ context.Context, filter *academic.GroupFilter, ordering ...core.DBOrdering) ([]academic.Group, error) {
	groups := make([]academic.Group, 0, len(repo.t.groups))
	for _, g := range repo.t.groups {
		if filter != nil {
			if filter.Search != "" && !containsFold(g.Name, filter.Search) && !containsFold(g.Code, filter.Search) {
				continue
			}
			if filter.IsActive != nil && g.IsActive != *filter.IsActive {
				continue
			}
		}
		groups = append(groups, g)
	}

	ords := core.AllowedOrderings(ordering, "id", "name", "code", "course_year")
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		for _, ord := range ords {
			switch ord.Field {
			case "name":
				if a.Name != b.Name {
					return (a.Name < b.Name) == ord.Ascending
				}
			case "code":
				if a.Code != b.Code {
					return (a.Code < b.Code) == ord.Ascending
				}
			case "course_year":
				if a.CourseYear != b.CourseYear {
					return (a.CourseYear < b.CourseYear) == ord.Ascending
				}
			default:
				if a.ID != b.ID {
					return (a.ID < b.ID) == ord.Ascending
				}
			}
		}
		return a.ID < b.ID
	})
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(_ context.Context, grp academic.Group) (academic.Group, error) {
	if err := repo.writable(); err != nil {
		return academic.Group{}, err
	}
	orig, ok := repo.t.groups[grp.ID]
	if !ok {
		return academic.Group{}, academic.ErrGroupNotFound
	}
	if err := repo.checkUnique(grp); err != nil {
		return academic.Group{}, err
	}
	grp.CreatedAt = orig.CreatedAt
	repo.t.groups[grp.ID] = grp
	return grp, nil
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id int64) error {
	if err := repo.writable(); err != nil {
		return err
	}
	if _, ok := repo.t.groups[id]; !ok {
		return academic.ErrGroupNotFound
	}
	for _, std := range repo.t.students {
		if std.GroupID != nil && *std.GroupID == id {
			return ErrConstraint
		}
	}
	delete(repo.t.groups, id)
	return nil
}

func (repo *groupRepository) GroupExists(_ context.Context, id int64) (bool, error) {
	_, ok := repo.t.groups[id]
	return ok, nil
}

func (repo *groupRepository) CountGroups(context.Context) (int64, error) {
	return int64(len(repo.t.groups)), nil
}

// =========================================================================
// Students

type studentRepository struct {
	base
}

var _ academic.StudentRepository = (*studentRepository)(nil) // interface compliance check

func (repo *studentRepository) checkRefs(std academic.Student) error {
	for _, s := range repo.t.students {
		if s.ID != std.ID && s.StudentNumber == std.StudentNumber {
			return academic.ErrDuplicate
		}
	}
	if _, ok := repo.t.users[std.UserID]; !ok {
		return ErrConstraint
	}
	if std.GroupID != nil {
		if _, ok := repo.t.groups[*std.GroupID]; !ok {
			return ErrConstraint
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, std academic.Student) (academic.Student, error) {
	if err := repo.writable(); err != nil {
		return academic.Student{}, err
	}
	if err := repo.checkRefs(std); err != nil {
		return academic.Student{}, err
	}
	std.ID = repo.t.nextID("student")
	std.GroupID = copyID(std.GroupID)
	repo.t.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id int64) (academic.Student, error) {
	if std, ok := repo.t.students[id]; ok {
		std.GroupID = copyID(std.GroupID)
		return std, nil
	}
	return academic.Student{}, academic.ErrStudentNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *academic.StudentFilter, ordering ...core.DBOrdering) ([]academic.Student, error) {
	students := make([]academic.Student, 0, len(repo.t.students))
	for _, s := range repo.t.students {
		if filter != nil {
			if filter.Search != "" && !containsFold(s.StudentNumber, filter.Search) {
				continue
			}
			if filter.GroupID != nil && !sameID(s.GroupID, filter.GroupID) {
				continue
			}
			if filter.IsActive != nil && s.IsActive != *filter.IsActive {
				continue
			}
		}
		s.GroupID = copyID(s.GroupID)
		students = append(students, s)
	}

	ords := core.AllowedOrderings(ordering, "id", "student_number", "course_year")
	sort.Slice(students, func(i, j int) bool {
		a, b := students[i], students[j]
		for _, ord := range ords {
			switch ord.Field {
			case "student_number":
				if a.StudentNumber != b.StudentNumber {
					return (a.StudentNumber < b.StudentNumber) == ord.Ascending
				}
			case "course_year":
				if a.CourseYear != b.CourseYear {
					return (a.CourseYear < b.CourseYear) == ord.Ascending
				}
			default:
				if a.ID != b.ID {
					return (a.ID < b.ID) == ord.Ascending
				}
			}
		}
		return a.ID < b.ID
	})
	return students, nil
}

func (repo *studentRepository) StudentsByGroup(ctx context.Context, groupID int64) ([]academic.Student, error) {
	return repo.QueryStudents(ctx, &academic.StudentFilter{GroupID: &groupID})
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std academic.Student) (academic.Student, error) {
	if err := repo.writable(); err != nil {
		return academic.Student{}, err
	}
	orig, ok := repo.t.students[std.ID]
	if !ok {
		return academic.Student{}, academic.ErrStudentNotFound
	}
	if err := repo.checkRefs(std); err != nil {
		return academic.Student{}, err
	}
	std.CreatedAt = orig.CreatedAt
	std.GroupID = copyID(std.GroupID)
	repo.t.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id int64) error {
	if err := repo.writable(); err != nil {
		return err
	}
	if _, ok := repo.t.students[id]; !ok {
		return academic.ErrStudentNotFound
	}
	for _, grd := range repo.t.grades {
		if grd.StudentID == id {
			return ErrConstraint
		}
	}
	delete(repo.t.students, id)
	return nil
}

func (repo *studentRepository) StudentExists(_ context.Context, id int64) (bool, error) {
	_, ok := repo.t.students[id]
	return ok, nil
}

func (repo *studentRepository) CountStudents(context.Context) (int64, error) {
	return int64(len(repo.t.students)), nil
}

// =========================================================================
// Subjects

type subjectRepository struct {
	base
}

var _ academic.SubjectRepository = (*subjectRepository)(nil) // interface compliance check

func (repo *subjectRepository) CreateSubject(_ context.Context, sub academic.Subject) (academic.Subject, error) {
	if err := repo.writable(); err != nil {
		return academic.Subject{}, err
	}
	for _, s := range repo.t.subjects {
		if s.Name == sub.Name {
			return academic.Subject{}, academic.ErrDuplicate
		}
	}
	sub.ID = repo.t.nextID("subject")
	repo.t.subjects[sub.ID] = sub
	return sub, nil
}

func (repo *subjectRepository) GetSubject(_ context.Context, id int64) (academic.Subject, error) {
	if sub, ok := repo.t.subjects[id]; ok {
		return sub, nil
	}
	return academic.Subject{}, academic.ErrSubjectNotFound
}

func (repo *subjectRepository) QuerySubjects(context.Context) ([]academic.Subject, error) {
	subjects := make([]academic.Subject, 0, len(repo.t.subjects))
	for _, s := range repo.t.subjects {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

// =========================================================================
// Grades

type gradeRepository struct {
	base
}

var _ academic.GradeRepository = (*gradeRepository)(nil) // interface compliance check

func (repo *gradeRepository) checkRefs(grd academic.Grade) error {
	for _, g := range repo.t.grades {
		if g.ID != grd.ID && g.StudentID == grd.StudentID && g.SubjectID == grd.SubjectID && g.Type == grd.Type {
			return academic.ErrDuplicate
		}
	}
	if _, ok := repo.t.students[grd.StudentID]; !ok {
		return ErrConstraint
	}
	if _, ok := repo.t.subjects[grd.SubjectID]; !ok {
		return ErrConstraint
	}
	if _, ok := repo.t.users[grd.TeacherID]; !ok {
		return ErrConstraint
	}
	return nil
}

func (repo *gradeRepository) CreateGrade(_ context.Context, grd academic.Grade) (academic.Grade, error) {
	if err := repo.writable(); err != nil {
		return academic.Grade{}, err
	}
	if err := repo.checkRefs(grd); err != nil {
		return academic.Grade{}, err
	}
	grd.ID = repo.t.nextID("grade")
	repo.t.grades[grd.ID] = grd
	return grd, nil
}

func (repo *gradeRepository) GetGrade(_ context.Context, id int64) (academic.Grade, error) {
	if grd, ok := repo.t.grades[id]; ok {
		return grd, nil
	}
	return academic.Grade{}, academic.ErrGradeNotFound
}

func (repo *gradeRepository) FindGrade(_ context.Context, studentID, subjectID int64, typ academic.GradeType) (academic.Grade, error) {
	for _, g := range repo.t.grades {
		if g.StudentID == studentID && g.SubjectID == subjectID && g.Type == typ {
			return g, nil
		}
	}
	return academic.Grade{}, academic.ErrGradeNotFound
}

func (repo *gradeRepository) GradesByStudent(_ context.Context, studentID int64) ([]academic.Grade, error) {
	grades := make([]academic.Grade, 0)
	for _, g := range repo.t.grades {
		if g.StudentID == studentID {
			grades = append(grades, g)
		}
	}
	sort.Slice(grades, func(i, j int) bool {
		if !grades[i].Date.Equal(grades[j].Date) {
			return grades[i].Date.After(grades[j].Date)
		}
		return grades[i].ID > grades[j].ID
	})
	return grades, nil
}

func (repo *gradeRepository) UpdateGrade(_ context.Context, grd academic.Grade) (academic.Grade, error) {
	if err := repo.writable(); err != nil {
		return academic.Grade{}, err
	}
	orig, ok := repo.t.grades[grd.ID]
	if !ok {
		return academic.Grade{}, academic.ErrGradeNotFound
	}
	if err := repo.checkRefs(grd); err != nil {
		return academic.Grade{}, err
	}
	grd.CreatedAt = orig.CreatedAt
	repo.t.grades[grd.ID] = grd
	return grd, nil
}

func (repo *gradeRepository) DeleteGrade(_ context.Context, id int64) error {
	if err := repo.writable(); err != nil {
		return err
	}
	if _, ok := repo.t.grades[id]; !ok {
		return academic.ErrGradeNotFound
	}
	delete(repo.t.grades, id)
	return nil
}

func (repo *gradeRepository) CountGrades(context.Context) (int64, error) {
	return int64(len(repo.t.grades)), nil
}

