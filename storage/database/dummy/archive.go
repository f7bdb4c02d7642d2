package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/registro/core/archive"
)

// newestFirst orders snapshots by ArchivedAt then ID, descending.
func newestFirst(atI, atJ time.Time, idI, idJ int64) bool {
	if !atI.Equal(atJ) {
		return atI.After(atJ)
	}
	return idI > idJ
}

func latest(at *time.Time, candidate time.Time) *time.Time {
	if at == nil || candidate.After(*at) {
		return &candidate
	}
	return at
}

// =========================================================================
// Archived groups

type archivedGroupRepository struct {
	base
}

var _ archive.GroupRepository = (*archivedGroupRepository)(nil) // interface compliance check

func (repo *archivedGroupRepository) SaveGroup(_ context.Context, grp archive.ArchivedStudentGroup) (archive.ArchivedStudentGroup, error) {
	if err := repo.writable(); err != nil {
		return archive.ArchivedStudentGroup{}, err
	}
	grp.ID = repo.t.nextID("archived_student_group")
	repo.t.archivedGroups[grp.ID] = grp
	return grp, nil
}

func (repo *archivedGroupRepository) GetGroup(_ context.Context, id int64) (archive.ArchivedStudentGroup, error) {
	if grp, ok := repo.t.archivedGroups[id]; ok {
		return grp, nil
	}
	return archive.ArchivedStudentGroup{}, archive.ErrNotFound
}

func (repo *archivedGroupRepository) QueryGroups(_ context.Context, filter *archive.GroupFilter) ([]archive.ArchivedStudentGroup, error) {
	groups := make([]archive.ArchivedStudentGroup, 0, len(repo.t.archivedGroups))
	for _, g := range repo.t.archivedGroups {
		if filter != nil {
			if filter.Code != "" && !containsFold(g.GroupCode, filter.Code) {
				continue
			}
			if filter.Name != "" && !containsFold(g.GroupName, filter.Name) {
				continue
			}
			if !filter.Period.Contains(g.ArchivedAt) {
				continue
			}
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return newestFirst(groups[i].ArchivedAt, groups[j].ArchivedAt, groups[i].ID, groups[j].ID)
	})
	return groups, nil
}

func (repo *archivedGroupRepository) DeleteGroup(_ context.Context, id int64) error {
	if err := repo.writable(); err != nil {
		return err
	}
	if _, ok := repo.t.archivedGroups[id]; !ok {
		return archive.ErrNotFound
	}
	delete(repo.t.archivedGroups, id)
	return nil
}

func (repo *archivedGroupRepository) GroupExists(_ context.Context, id int64) (bool, error) {
	_, ok := repo.t.archivedGroups[id]
	return ok, nil
}

func (repo *archivedGroupRepository) CountGroups(context.Context) (int64, error) {
	return int64(len(repo.t.archivedGroups)), nil
}

func (repo *archivedGroupRepository) LastGroupArchivedAt(context.Context) (*time.Time, error) {
	var at *time.Time
	for _, g := range repo.t.archivedGroups {
		at = latest(at, g.ArchivedAt)
	}
	return at, nil
}

// =========================================================================
// Archived students

type archivedStudentRepository struct {
	base
}

var _ archive.StudentRepository = (*archivedStudentRepository)(nil) // interface compliance check

func (repo *archivedStudentRepository) SaveStudent(_ context.Context, std archive.ArchivedStudent) (archive.ArchivedStudent, error) {
	if err := repo.writable(); err != nil {
		return archive.ArchivedStudent{}, err
	}
	std.ID = repo.t.nextID("archived_student")
	std.OriginalGroupID = copyID(std.OriginalGroupID)
	repo.t.archivedStudents[std.ID] = std
	return std, nil
}

func (repo *archivedStudentRepository) GetStudent(_ context.Context, id int64) (archive.ArchivedStudent, error) {
	if std, ok := repo.t.archivedStudents[id]; ok {
		std.OriginalGroupID = copyID(std.OriginalGroupID)
		return std, nil
	}
	return archive.ArchivedStudent{}, archive.ErrNotFound
}

func (repo *archivedStudentRepository) QueryStudents(_ context.Context, filter *archive.StudentFilter) ([]archive.ArchivedStudent, error) {
	students := make([]archive.ArchivedStudent, 0, len(repo.t.archivedStudents))
	for _, s := range repo.t.archivedStudents {
		if filter != nil {
			if filter.StudentNumber != "" && !containsFold(s.StudentNumber, filter.StudentNumber) {
				continue
			}
			if filter.OriginalGroupID != nil && !sameID(s.OriginalGroupID, filter.OriginalGroupID) {
				continue
			}
			if !filter.Period.Contains(s.ArchivedAt) {
				continue
			}
		}
		s.OriginalGroupID = copyID(s.OriginalGroupID)
		students = append(students, s)
	}
	sort.Slice(students, func(i, j int) bool {
		return newestFirst(students[i].ArchivedAt, students[j].ArchivedAt, students[i].ID, students[j].ID)
	})
	return students, nil
}

func (repo *archivedStudentRepository) DeleteStudent(_ context.Context, id int64) error {
	if err := repo.writable(); err != nil {
		return err
	}
	if _, ok := repo.t.archivedStudents[id]; !ok {
		return archive.ErrNotFound
	}
	delete(repo.t.archivedStudents, id)
	return nil
}

func (repo *archivedStudentRepository) StudentExists(_ context.Context, id int64) (bool, error) {
	_, ok := repo.t.archivedStudents[id]
	return ok, nil
}

func (repo *archivedStudentRepository) CountStudents(context.Context) (int64, error) {
	return int64(len(repo.t.archivedStudents)), nil
}

func (repo *archivedStudentRepository) LastStudentArchivedAt(context.Context) (*time.Time, error) {
	var at *time.Time
	for _, s := range repo.t.archivedStudents {
		at = latest(at, s.ArchivedAt)
	}
	return at, nil
}

// =========================================================================
// Archived grades

type archivedGradeRepository struct {
	base
}

var _ archive.GradeRepository = (*archivedGradeRepository)(nil) // interface compliance check

func (repo *archivedGradeRepository) SaveGrade(_ context.Context, grd archive.ArchivedGrade) (archive.ArchivedGrade, error) {
	if err := repo.writable(); err != nil {
		return archive.ArchivedGrade{}, err
	}
	grd.ID = repo.t.nextID("archived_grade")
	grd.OriginalGroupID = copyID(grd.OriginalGroupID)
	repo.t.archivedGrades[grd.ID] = grd
	return grd, nil
}

func (repo *archivedGradeRepository) GetGrade(_ context.Context, id int64) (archive.ArchivedGrade, error) {
	if grd, ok := repo.t.archivedGrades[id]; ok {
		grd.OriginalGroupID = copyID(grd.OriginalGroupID)
		return grd, nil
	}
	return archive.ArchivedGrade{}, archive.ErrNotFound
}

func (repo *archivedGradeRepository) QueryGrades(_ context.Context, filter *archive.GradeFilter) ([]archive.ArchivedGrade, error) {
	grades := make([]archive.ArchivedGrade, 0, len(repo.t.archivedGrades))
	for _, g := range repo.t.archivedGrades {
		if filter != nil {
			if filter.Search != "" && !containsFold(g.StudentNumber, filter.Search) && !containsFold(g.SubjectName, filter.Search) {
				continue
			}
			if filter.OriginalStudentID != nil && g.OriginalStudentID != *filter.OriginalStudentID {
				continue
			}
			if filter.OriginalGroupID != nil && !sameID(g.OriginalGroupID, filter.OriginalGroupID) {
				continue
			}
			if !filter.Period.Contains(g.ArchivedAt) {
				continue
			}
		}
		g.OriginalGroupID = copyID(g.OriginalGroupID)
		grades = append(grades, g)
	}
	sort.Slice(grades, func(i, j int) bool {
		return newestFirst(grades[i].ArchivedAt, grades[j].ArchivedAt, grades[i].ID, grades[j].ID)
	})
	return grades, nil
}

func (repo *archivedGradeRepository) DeleteGrade(_ context.Context, id int64) error {
	if err := repo.writable(); err != nil {
		return err
	}
	if _, ok := repo.t.archivedGrades[id]; !ok {
		return archive.ErrNotFound
	}
	delete(repo.t.archivedGrades, id)
	return nil
}

func (repo *archivedGradeRepository) GradeExists(_ context.Context, id int64) (bool, error) {
	_, ok := repo.t.archivedGrades[id]
	return ok, nil
}

func (repo *archivedGradeRepository) CountGrades(context.Context) (int64, error) {
	return int64(len(repo.t.archivedGrades)), nil
}

func (repo *archivedGradeRepository) LastGradeArchivedAt(context.Context) (*time.Time, error) {
	var at *time.Time
	for _, g := range repo.t.archivedGrades {
		at = latest(at, g.ArchivedAt)
	}
	return at, nil
}
