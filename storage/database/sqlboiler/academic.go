package boiledrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
)

const (
	groupTable   = "student_group"
	studentTable = "student"
	subjectTable = "subject"
	gradeTable   = "grade"
)

// =========================================================================
// Groups

var groupColumns = []string{
	"id", "name", "code", "course_year", "study_form", "max_capacity", "specialization",
	"enrollment_year", "is_active", "created_at", "updated_at",
}

type groupRow struct {
	ID             int64     `boil:"id"`
	Name           string    `boil:"name"`
	Code           string    `boil:"code"`
	CourseYear     int       `boil:"course_year"`
	StudyForm      string    `boil:"study_form"`
	MaxCapacity    int       `boil:"max_capacity"`
	Specialization string    `boil:"specialization"`
	EnrollmentYear int       `boil:"enrollment_year"`
	IsActive       bool      `boil:"is_active"`
	CreatedAt      time.Time `boil:"created_at"`
	UpdatedAt      time.Time `boil:"updated_at"`
}

type groupRepository struct {
	base
}

var _ academic.GroupRepository = (*groupRepository)(nil) // interface compliance check

func (repo groupRepository) boil(grp academic.Group) []interface{} {
	return []interface{}{
		grp.Name, grp.Code, grp.CourseYear, string(grp.StudyForm), grp.MaxCapacity, grp.Specialization,
		grp.EnrollmentYear, grp.IsActive, grp.CreatedAt.UTC(), grp.UpdatedAt.UTC(),
	}
}

func (repo groupRepository) unboil(row groupRow) academic.Group {
	return academic.Group{
		ID:             row.ID,
		Name:           row.Name,
		Code:           row.Code,
		CourseYear:     row.CourseYear,
		StudyForm:      academic.StudyForm(row.StudyForm),
		MaxCapacity:    row.MaxCapacity,
		Specialization: row.Specialization,
		EnrollmentYear: row.EnrollmentYear,
		IsActive:       row.IsActive,
		CreatedAt:      utc(row.CreatedAt),
		UpdatedAt:      utc(row.UpdatedAt),
	}
}

func (repo groupRepository) CreateGroup(ctx context.Context, grp academic.Group) (academic.Group, error) {
	id, err := repo.insert(ctx, groupTable, groupColumns[1:], repo.boil(grp)...)
	if err != nil {
		return academic.Group{}, trapWriteErr(err, academic.ErrDuplicate, "inserting student group")
	}
	grp.ID = id
	return grp, nil
}

func (repo groupRepository) GetGroup(ctx context.Context, id int64) (academic.Group, error) {
	var row groupRow
	if err := repo.newQuery(groupTable, groupColumns, qm.Where("id = ?", id)).Bind(ctx, repo.exec, &row); err != nil {
		return academic.Group{}, trapNoRowsErr(err, academic.ErrGroupNotFound, "finding student group")
	}
	return repo.unboil(row), nil
}

func (repo groupRepository) QueryGroups(ctx context.Context, filter *academic.GroupFilter, ordering ...core.DBOrdering) ([]academic.Group, error) {
	var mods []qm.QueryMod
	if filter != nil {
		if filter.Search != "" {
			mods = append(mods, repo.likeAny(filter.Search, "name", "code"))
		}
		if filter.IsActive != nil {
			mods = append(mods, qm.Where("is_active = ?", *filter.IsActive))
		}
	}
	mods = append(mods, orderBy(ordering, "id", "name", "code", "course_year"))

	var rows []groupRow
	if err := repo.newQuery(groupTable, groupColumns, mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying student groups")
	}
	groups := make([]academic.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, repo.unboil(row))
	}
	return groups, nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, grp academic.Group) (academic.Group, error) {
	// created_at is immutable
	cols, vals := groupColumns[1:len(groupColumns)-2], repo.boil(grp)
	cols = append(append([]string(nil), cols...), "updated_at")
	vals = append(vals[:len(vals)-2], grp.UpdatedAt.UTC())

	found, err := repo.update(ctx, groupTable, grp.ID, cols, vals...)
	if err != nil {
		return academic.Group{}, trapWriteErr(err, academic.ErrDuplicate, "updating student group")
	}
	if !found {
		return academic.Group{}, academic.ErrGroupNotFound
	}
	return repo.GetGroup(ctx, grp.ID)
}

func (repo groupRepository) DeleteGroup(ctx context.Context, id int64) error {
	found, err := repo.deleteByID(ctx, groupTable, id)
	if err != nil {
		return err
	}
	if !found {
		return academic.ErrGroupNotFound
	}
	return nil
}

func (repo groupRepository) GroupExists(ctx context.Context, id int64) (bool, error) {
	return repo.exists(ctx, groupTable, id)
}

func (repo groupRepository) CountGroups(ctx context.Context) (int64, error) {
	return repo.count(ctx, groupTable)
}

// =========================================================================
// Students

var studentColumns = []string{
	"id", "user_id", "student_number", "enrollment_year", "course_year", "study_form", "phone", "address",
	"is_active", "group_id", "created_at", "updated_at",
}

type studentRow struct {
	ID             int64      `boil:"id"`
	UserID         int64      `boil:"user_id"`
	StudentNumber  string     `boil:"student_number"`
	EnrollmentYear int        `boil:"enrollment_year"`
	CourseYear     int        `boil:"course_year"`
	StudyForm      string     `boil:"study_form"`
	Phone          string     `boil:"phone"`
	Address        string     `boil:"address"`
	IsActive       bool       `boil:"is_active"`
	GroupID        null.Int64 `boil:"group_id"`
	CreatedAt      time.Time  `boil:"created_at"`
	UpdatedAt      time.Time  `boil:"updated_at"`
}

type studentRepository struct {
	base
}

var _ academic.StudentRepository = (*studentRepository)(nil) // interface compliance check

func (repo studentRepository) boil(std academic.Student) []interface{} {
	return []interface{}{
		std.UserID, std.StudentNumber, std.EnrollmentYear, std.CourseYear, string(std.StudyForm), std.Phone,
		std.Address, std.IsActive, null.Int64FromPtr(std.GroupID), std.CreatedAt.UTC(), std.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) unboil(row studentRow) academic.Student {
	return academic.Student{
		ID:             row.ID,
		UserID:         row.UserID,
		StudentNumber:  row.StudentNumber,
		EnrollmentYear: row.EnrollmentYear,
		CourseYear:     row.CourseYear,
		StudyForm:      academic.StudyForm(row.StudyForm),
		Phone:          row.Phone,
		Address:        row.Address,
		IsActive:       row.IsActive,
		GroupID:        row.GroupID.Ptr(),
		CreatedAt:      utc(row.CreatedAt),
		UpdatedAt:      utc(row.UpdatedAt),
	}
}

func (repo studentRepository) all(ctx context.Context, mods ...qm.QueryMod) ([]academic.Student, error) {
	var rows []studentRow
	if err := repo.newQuery(studentTable, studentColumns, mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]academic.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, repo.unboil(row))
	}
	return students, nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, std academic.Student) (academic.Student, error) {
	id, err := repo.insert(ctx, studentTable, studentColumns[1:], repo.boil(std)...)
	if err != nil {
		return academic.Student{}, trapWriteErr(err, academic.ErrDuplicate, "inserting student")
	}
	std.ID = id
	return std, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id int64) (academic.Student, error) {
	var row studentRow
	if err := repo.newQuery(studentTable, studentColumns, qm.Where("id = ?", id)).Bind(ctx, repo.exec, &row); err != nil {
		return academic.Student{}, trapNoRowsErr(err, academic.ErrStudentNotFound, "finding student")
	}
	return repo.unboil(row), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *academic.StudentFilter, ordering ...core.DBOrdering) ([]academic.Student, error) {
	var mods []qm.QueryMod
	if filter != nil {
		if filter.Search != "" {
			mods = append(mods, repo.likeAny(filter.Search, "student_number"))
		}
		if filter.GroupID != nil {
			mods = append(mods, qm.Where("group_id = ?", *filter.GroupID))
		}
		if filter.IsActive != nil {
			mods = append(mods, qm.Where("is_active = ?", *filter.IsActive))
		}
	}
	mods = append(mods, orderBy(ordering, "id", "student_number", "course_year"))
	return repo.all(ctx, mods...)
}

func (repo studentRepository) StudentsByGroup(ctx context.Context, groupID int64) ([]academic.Student, error) {
	return repo.all(ctx, qm.Where("group_id = ?", groupID), qm.OrderBy("id ASC"))
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std academic.Student) (academic.Student, error) {
	cols := append(append([]string(nil), studentColumns[1:len(studentColumns)-2]...), "updated_at")
	vals := repo.boil(std)
	vals = append(vals[:len(vals)-2], std.UpdatedAt.UTC())

	found, err := repo.update(ctx, studentTable, std.ID, cols, vals...)
	if err != nil {
		return academic.Student{}, trapWriteErr(err, academic.ErrDuplicate, "updating student")
	}
	if !found {
		return academic.Student{}, academic.ErrStudentNotFound
	}
	return repo.GetStudent(ctx, std.ID)
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id int64) error {
	found, err := repo.deleteByID(ctx, studentTable, id)
	if err != nil {
		return err
	}
	if !found {
		return academic.ErrStudentNotFound
	}
	return nil
}

func (repo studentRepository) StudentExists(ctx context.Context, id int64) (bool, error) {
	return repo.exists(ctx, studentTable, id)
}

func (repo studentRepository) CountStudents(ctx context.Context) (int64, error) {
	return repo.count(ctx, studentTable)
}

// =========================================================================
// Subjects

var subjectColumns = []string{"id", "name", "code", "created_at", "updated_at"}

type subjectRow struct {
	ID        int64     `boil:"id"`
	Name      string    `boil:"name"`
	Code      string    `boil:"code"`
	CreatedAt time.Time `boil:"created_at"`
	UpdatedAt time.Time `boil:"updated_at"`
}

type subjectRepository struct {
	base
}

var _ academic.SubjectRepository = (*subjectRepository)(nil) // interface compliance check

func (repo subjectRepository) unboil(row subjectRow) academic.Subject {
	return academic.Subject{
		ID:        row.ID,
		Name:      row.Name,
		Code:      row.Code,
		CreatedAt: utc(row.CreatedAt),
		UpdatedAt: utc(row.UpdatedAt),
	}
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub academic.Subject) (academic.Subject, error) {
	id, err := repo.insert(ctx, subjectTable, subjectColumns[1:], sub.Name, sub.Code, sub.CreatedAt.UTC(), sub.UpdatedAt.UTC())
	if err != nil {
		return academic.Subject{}, trapWriteErr(err, academic.ErrDuplicate, "inserting subject")
	}
	sub.ID = id
	return sub, nil
}

func (repo subjectRepository) GetSubject(ctx context.Context, id int64) (academic.Subject, error) {
	var row subjectRow
	if err := repo.newQuery(subjectTable, subjectColumns, qm.Where("id = ?", id)).Bind(ctx, repo.exec, &row); err != nil {
		return academic.Subject{}, trapNoRowsErr(err, academic.ErrSubjectNotFound, "finding subject")
	}
	return repo.unboil(row), nil
}

func (repo subjectRepository) QuerySubjects(ctx context.Context) ([]academic.Subject, error) {
	var rows []subjectRow
	if err := repo.newQuery(subjectTable, subjectColumns, qm.OrderBy("name ASC")).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]academic.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, repo.unboil(row))
	}
	return subjects, nil
}

// =========================================================================
// Grades

var gradeColumns = []string{
	"id", "student_id", "subject_id", "teacher_id", "grade_value", "grade_type", "grade_category", "grade_date",
	"comments", "is_final", "created_at", "updated_at",
}

type gradeRow struct {
	ID            int64     `boil:"id"`
	StudentID     int64     `boil:"student_id"`
	SubjectID     int64     `boil:"subject_id"`
	TeacherID     int64     `boil:"teacher_id"`
	GradeValue    int       `boil:"grade_value"`
	GradeType     string    `boil:"grade_type"`
	GradeCategory string    `boil:"grade_category"`
	GradeDate     time.Time `boil:"grade_date"`
	Comments      string    `boil:"comments"`
	IsFinal       bool      `boil:"is_final"`
	CreatedAt     time.Time `boil:"created_at"`
	UpdatedAt     time.Time `boil:"updated_at"`
}

type gradeRepository struct {
	base
}

var _ academic.GradeRepository = (*gradeRepository)(nil) // interface compliance check

func (repo gradeRepository) boil(grd academic.Grade) []interface{} {
	return []interface{}{
		grd.StudentID, grd.SubjectID, grd.TeacherID, grd.Value, string(grd.Type), string(grd.Category),
		grd.Date.UTC(), grd.Comments, grd.IsFinal, grd.CreatedAt.UTC(), grd.UpdatedAt.UTC(),
	}
}

func (repo gradeRepository) unboil(row gradeRow) academic.Grade {
	return academic.Grade{
		ID:        row.ID,
		StudentID: row.StudentID,
		SubjectID: row.SubjectID,
		TeacherID: row.TeacherID,
		Value:     row.GradeValue,
		Type:      academic.GradeType(row.GradeType),
		Category:  academic.GradeCategory(row.GradeCategory),
		Date:      utc(row.GradeDate),
		Comments:  row.Comments,
		IsFinal:   row.IsFinal,
		CreatedAt: utc(row.CreatedAt),
		UpdatedAt: utc(row.UpdatedAt),
	}
}

func (repo gradeRepository) one(ctx context.Context, mods ...qm.QueryMod) (academic.Grade, error) {
	var row gradeRow
	if err := repo.newQuery(gradeTable, gradeColumns, mods...).Bind(ctx, repo.exec, &row); err != nil {
		return academic.Grade{}, trapNoRowsErr(err, academic.ErrGradeNotFound, "finding grade")
	}
	return repo.unboil(row), nil
}

func (repo gradeRepository) CreateGrade(ctx context.Context, grd academic.Grade) (academic.Grade, error) {
	id, err := repo.insert(ctx, gradeTable, gradeColumns[1:], repo.boil(grd)...)
	if err != nil {
		return academic.Grade{}, trapWriteErr(err, academic.ErrDuplicate, "inserting grade")
	}
	grd.ID = id
	return grd, nil
}

func (repo gradeRepository) GetGrade(ctx context.Context, id int64) (academic.Grade, error) {
	return repo.one(ctx, qm.Where("id = ?", id))
}

func (repo gradeRepository) FindGrade(ctx context.Context, studentID, subjectID int64, typ academic.GradeType) (academic.Grade, error) {
	return repo.one(ctx, qm.Where("student_id = ? AND subject_id = ? AND grade_type = ?", studentID, subjectID, string(typ)))
}

func (repo gradeRepository) GradesByStudent(ctx context.Context, studentID int64) ([]academic.Grade, error) {
	var rows []gradeRow
	q := repo.newQuery(gradeTable, gradeColumns, qm.Where("student_id = ?", studentID), qm.OrderBy("grade_date DESC, id DESC"))
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	grades := make([]academic.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, repo.unboil(row))
	}
	return grades, nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, grd academic.Grade) (academic.Grade, error) {
	cols := append(append([]string(nil), gradeColumns[1:len(gradeColumns)-2]...), "updated_at")
	vals := repo.boil(grd)
	vals = append(vals[:len(vals)-2], grd.UpdatedAt.UTC())

	found, err := repo.update(ctx, gradeTable, grd.ID, cols, vals...)
	if err != nil {
		return academic.Grade{}, trapWriteErr(err, academic.ErrDuplicate, "updating grade")
	}
	if !found {
		return academic.Grade{}, academic.ErrGradeNotFound
	}
	return repo.GetGrade(ctx, grd.ID)
}

func (repo gradeRepository) DeleteGrade(ctx context.Context, id int64) error {
	found, err := repo.deleteByID(ctx, gradeTable, id)
	if err != nil {
		return err
	}
	if !found {
		return academic.ErrGradeNotFound
	}
	return nil
}

func (repo gradeRepository) CountGrades(ctx context.Context) (int64, error) {
	return repo.count(ctx, gradeTable)
}
