package boiledrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
)

const (
	archivedGroupTable   = "archived_student_group"
	archivedStudentTable = "archived_student"
	archivedGradeTable   = "archived_grade"

	newestFirst = "archived_at DESC, id DESC"
)

func unboilMetadata(at time.Time, by, reason string) archive.Metadata {
	return archive.Metadata{ArchivedAt: utc(at), ArchivedBy: by, Reason: reason}
}

func boilMetadata(meta archive.Metadata) []interface{} {
	return []interface{}{meta.ArchivedAt.UTC(), meta.ArchivedBy, meta.Reason}
}

// =========================================================================
// Archived groups

var archivedGroupColumns = []string{
	"id", "original_group_id", "group_code", "group_name", "course_year", "study_form", "enrollment_year",
	"specialization", "max_capacity", "student_count", "original_created_at", "original_updated_at",
	"archived_at", "archived_by", "reason",
}

type archivedGroupRow struct {
	ID                int64     `boil:"id"`
	OriginalGroupID   int64     `boil:"original_group_id"`
	GroupCode         string    `boil:"group_code"`
	GroupName         string    `boil:"group_name"`
	CourseYear        int       `boil:"course_year"`
	StudyForm         string    `boil:"study_form"`
	EnrollmentYear    int       `boil:"enrollment_year"`
	Specialization    string    `boil:"specialization"`
	MaxCapacity       int       `boil:"max_capacity"`
	StudentCount      int       `boil:"student_count"`
	OriginalCreatedAt time.Time `boil:"original_created_at"`
	OriginalUpdatedAt time.Time `boil:"original_updated_at"`
	ArchivedAt        time.Time `boil:"archived_at"`
	ArchivedBy        string    `boil:"archived_by"`
	Reason            string    `boil:"reason"`
}

type archivedGroupRepository struct {
	base
}

var _ archive.GroupRepository = (*archivedGroupRepository)(nil) // interface compliance check

func (repo archivedGroupRepository) unboil(row archivedGroupRow) archive.ArchivedStudentGroup {
	return archive.ArchivedStudentGroup{
		ID:                row.ID,
		OriginalGroupID:   row.OriginalGroupID,
		GroupCode:         row.GroupCode,
		GroupName:         row.GroupName,
		CourseYear:        row.CourseYear,
		StudyForm:         academic.StudyForm(row.StudyForm),
		EnrollmentYear:    row.EnrollmentYear,
		Specialization:    row.Specialization,
		MaxCapacity:       row.MaxCapacity,
		StudentCount:      row.StudentCount,
		OriginalCreatedAt: utc(row.OriginalCreatedAt),
		OriginalUpdatedAt: utc(row.OriginalUpdatedAt),
		Metadata:          unboilMetadata(row.ArchivedAt, row.ArchivedBy, row.Reason),
	}
}

func (repo archivedGroupRepository) SaveGroup(ctx context.Context, grp archive.ArchivedStudentGroup) (archive.ArchivedStudentGroup, error) {
	vals := append([]interface{}{
		grp.OriginalGroupID, grp.GroupCode, grp.GroupName, grp.CourseYear, string(grp.StudyForm), grp.EnrollmentYear,
		grp.Specialization, grp.MaxCapacity, grp.StudentCount, grp.OriginalCreatedAt.UTC(), grp.OriginalUpdatedAt.UTC(),
	}, boilMetadata(grp.Metadata)...)

	id, err := repo.insert(ctx, archivedGroupTable, archivedGroupColumns[1:], vals...)
	if err != nil {
		return archive.ArchivedStudentGroup{}, errors.Wrap(err, "inserting archived student group")
	}
	grp.ID = id
	return grp, nil
}

func (repo archivedGroupRepository) GetGroup(ctx context.Context, id int64) (archive.ArchivedStudentGroup, error) {
	var row archivedGroupRow
	if err := repo.newQuery(archivedGroupTable, archivedGroupColumns, qm.Where("id = ?", id)).Bind(ctx, repo.exec, &row); err != nil {
		return archive.ArchivedStudentGroup{}, trapNoRowsErr(err, archive.ErrNotFound, "finding archived student group")
	}
	return repo.unboil(row), nil
}

func (repo archivedGroupRepository) QueryGroups(ctx context.Context, filter *archive.GroupFilter) ([]archive.ArchivedStudentGroup, error) {
	var mods []qm.QueryMod
	if filter != nil {
		if filter.Code != "" {
			mods = append(mods, repo.likeAny(filter.Code, "group_code"))
		}
		if filter.Name != "" {
			mods = append(mods, repo.likeAny(filter.Name, "group_name"))
		}
		mods = append(mods, archivedWithin(filter.From, filter.To)...)
	}
	mods = append(mods, qm.OrderBy(newestFirst))

	var rows []archivedGroupRow
	if err := repo.newQuery(archivedGroupTable, archivedGroupColumns, mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying archived student groups")
	}
	groups := make([]archive.ArchivedStudentGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, repo.unboil(row))
	}
	return groups, nil
}

func (repo archivedGroupRepository) DeleteGroup(ctx context.Context, id int64) error {
	found, err := repo.deleteByID(ctx, archivedGroupTable, id)
	if err != nil {
		return err
	}
	if !found {
		return archive.ErrNotFound
	}
	return nil
}

func (repo archivedGroupRepository) GroupExists(ctx context.Context, id int64) (bool, error) {
	return repo.exists(ctx, archivedGroupTable, id)
}

func (repo archivedGroupRepository) CountGroups(ctx context.Context) (int64, error) {
	return repo.count(ctx, archivedGroupTable)
}

func (repo archivedGroupRepository) LastGroupArchivedAt(ctx context.Context) (*time.Time, error) {
	return repo.lastArchivedAt(ctx, archivedGroupTable)
}

// =========================================================================
// Archived students

var archivedStudentColumns = []string{
	"id", "original_student_id", "student_number", "full_name", "enrollment_year", "course_year", "phone",
	"address", "study_form", "original_group_id", "group_code", "group_name", "original_created_at",
	"original_updated_at", "archived_at", "archived_by", "reason",
}

type archivedStudentRow struct {
	ID                int64      `boil:"id"`
	OriginalStudentID int64      `boil:"original_student_id"`
	StudentNumber     string     `boil:"student_number"`
	FullName          string     `boil:"full_name"`
	EnrollmentYear    int        `boil:"enrollment_year"`
	CourseYear        int        `boil:"course_year"`
	Phone             string     `boil:"phone"`
	Address           string     `boil:"address"`
	StudyForm         string     `boil:"study_form"`
	OriginalGroupID   null.Int64 `boil:"original_group_id"`
	GroupCode         string     `boil:"group_code"`
	GroupName         string     `boil:"group_name"`
	OriginalCreatedAt time.Time  `boil:"original_created_at"`
	OriginalUpdatedAt time.Time  `boil:"original_updated_at"`
	ArchivedAt        time.Time  `boil:"archived_at"`
	ArchivedBy        string     `boil:"archived_by"`
	Reason            string     `boil:"reason"`
}

type archivedStudentRepository struct {
	base
}

var _ archive.StudentRepository = (*archivedStudentRepository)(nil) // interface compliance check

func (repo archivedStudentRepository) unboil(row archivedStudentRow) archive.ArchivedStudent {
	return archive.ArchivedStudent{
		ID:                row.ID,
		OriginalStudentID: row.OriginalStudentID,
		StudentNumber:     row.StudentNumber,
		FullName:          row.FullName,
		EnrollmentYear:    row.EnrollmentYear,
		CourseYear:        row.CourseYear,
		Phone:             row.Phone,
		Address:           row.Address,
		StudyForm:         academic.StudyForm(row.StudyForm),
		OriginalGroupID:   row.OriginalGroupID.Ptr(),
		GroupCode:         row.GroupCode,
		GroupName:         row.GroupName,
		OriginalCreatedAt: utc(row.OriginalCreatedAt),
		OriginalUpdatedAt: utc(row.OriginalUpdatedAt),
		Metadata:          unboilMetadata(row.ArchivedAt, row.ArchivedBy, row.Reason),
	}
}

func (repo archivedStudentRepository) SaveStudent(ctx context.Context, std archive.ArchivedStudent) (archive.ArchivedStudent, error) {
	vals := append([]interface{}{
		std.OriginalStudentID, std.StudentNumber, std.FullName, std.EnrollmentYear, std.CourseYear, std.Phone,
		std.Address, string(std.StudyForm), null.Int64FromPtr(std.OriginalGroupID), std.GroupCode, std.GroupName,
		std.OriginalCreatedAt.UTC(), std.OriginalUpdatedAt.UTC(),
	}, boilMetadata(std.Metadata)...)

	id, err := repo.insert(ctx, archivedStudentTable, archivedStudentColumns[1:], vals...)
	if err != nil {
		return archive.ArchivedStudent{}, errors.Wrap(err, "inserting archived student")
	}
	std.ID = id
	return std, nil
}

func (repo archivedStudentRepository) GetStudent(ctx context.Context, id int64) (archive.ArchivedStudent, error) {
	var row archivedStudentRow
	if err := repo.newQuery(archivedStudentTable, archivedStudentColumns, qm.Where("id = ?", id)).Bind(ctx, repo.exec, &row); err != nil {
		return archive.ArchivedStudent{}, trapNoRowsErr(err, archive.ErrNotFound, "finding archived student")
	}
	return repo.unboil(row), nil
}

func (repo archivedStudentRepository) QueryStudents(ctx context.Context, filter *archive.StudentFilter) ([]archive.ArchivedStudent, error) {
	var mods []qm.QueryMod
	if filter != nil {
		if filter.StudentNumber != "" {
			mods = append(mods, repo.likeAny(filter.StudentNumber, "student_number"))
		}
		if filter.OriginalGroupID != nil {
			mods = append(mods, qm.Where("original_group_id = ?", *filter.OriginalGroupID))
		}
		mods = append(mods, archivedWithin(filter.From, filter.To)...)
	}
	mods = append(mods, qm.OrderBy(newestFirst))

	var rows []archivedStudentRow
	if err := repo.newQuery(archivedStudentTable, archivedStudentColumns, mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying archived students")
	}
	students := make([]archive.ArchivedStudent, 0, len(rows))
	for _, row := range rows {
		students = append(students, repo.unboil(row))
	}
	return students, nil
}

func (repo archivedStudentRepository) DeleteStudent(ctx context.Context, id int64) error {
	found, err := repo.deleteByID(ctx, archivedStudentTable, id)
	if err != nil {
		return err
	}
	if !found {
		return archive.ErrNotFound
	}
	return nil
}

func (repo archivedStudentRepository) StudentExists(ctx context.Context, id int64) (bool, error) {
	return repo.exists(ctx, archivedStudentTable, id)
}

func (repo archivedStudentRepository) CountStudents(ctx context.Context) (int64, error) {
	return repo.count(ctx, archivedStudentTable)
}

func (repo archivedStudentRepository) LastStudentArchivedAt(ctx context.Context) (*time.Time, error) {
	return repo.lastArchivedAt(ctx, archivedStudentTable)
}

// =========================================================================
// Archived grades

var archivedGradeColumns = []string{
	"id", "original_grade_id", "original_student_id", "student_number", "student_full_name", "original_subject_id",
	"subject_name", "original_teacher_id", "teacher_name", "grade_category", "grade_value", "grade_type",
	"grade_date", "is_final", "comments", "original_group_id", "group_code", "original_created_at",
	"original_updated_at", "archived_at", "archived_by", "reason",
}

type archivedGradeRow struct {
	ID                int64      `boil:"id"`
	OriginalGradeID   int64      `boil:"original_grade_id"`
	OriginalStudentID int64      `boil:"original_student_id"`
	StudentNumber     string     `boil:"student_number"`
	StudentFullName   string     `boil:"student_full_name"`
	OriginalSubjectID int64      `boil:"original_subject_id"`
	SubjectName       string     `boil:"subject_name"`
	OriginalTeacherID int64      `boil:"original_teacher_id"`
	TeacherName       string     `boil:"teacher_name"`
	GradeCategory     string     `boil:"grade_category"`
	GradeValue        int        `boil:"grade_value"`
	GradeType         string     `boil:"grade_type"`
	GradeDate         time.Time  `boil:"grade_date"`
	IsFinal           bool       `boil:"is_final"`
	Comments          string     `boil:"comments"`
	OriginalGroupID   null.Int64 `boil:"original_group_id"`
	GroupCode         string     `boil:"group_code"`
	OriginalCreatedAt time.Time  `boil:"original_created_at"`
	OriginalUpdatedAt time.Time  `boil:"original_updated_at"`
	ArchivedAt        time.Time  `boil:"archived_at"`
	ArchivedBy        string     `boil:"archived_by"`
	Reason            string     `boil:"reason"`
}

type archivedGradeRepository struct {
	base
}

var _ archive.GradeRepository = (*archivedGradeRepository)(nil) // interface compliance check

func (repo archivedGradeRepository) unboil(row archivedGradeRow) archive.ArchivedGrade {
	return archive.ArchivedGrade{
		ID:                row.ID,
		OriginalGradeID:   row.OriginalGradeID,
		OriginalStudentID: row.OriginalStudentID,
		StudentNumber:     row.StudentNumber,
		StudentFullName:   row.StudentFullName,
		OriginalSubjectID: row.OriginalSubjectID,
		SubjectName:       row.SubjectName,
		OriginalTeacherID: row.OriginalTeacherID,
		TeacherName:       row.TeacherName,
		GradeCategory:     academic.GradeCategory(row.GradeCategory),
		GradeValue:        row.GradeValue,
		GradeType:         academic.GradeType(row.GradeType),
		GradeDate:         utc(row.GradeDate),
		IsFinal:           row.IsFinal,
		Comments:          row.Comments,
		OriginalGroupID:   row.OriginalGroupID.Ptr(),
		GroupCode:         row.GroupCode,
		OriginalCreatedAt: utc(row.OriginalCreatedAt),
		OriginalUpdatedAt: utc(row.OriginalUpdatedAt),
		Metadata:          unboilMetadata(row.ArchivedAt, row.ArchivedBy, row.Reason),
	}
}

func (repo archivedGradeRepository) SaveGrade(ctx context.Context, grd archive.ArchivedGrade) (archive.ArchivedGrade, error) {
	vals := append([]interface{}{
		grd.OriginalGradeID, grd.OriginalStudentID, grd.StudentNumber, grd.StudentFullName, grd.OriginalSubjectID,
		grd.SubjectName, grd.OriginalTeacherID, grd.TeacherName, string(grd.GradeCategory), grd.GradeValue,
		string(grd.GradeType), grd.GradeDate.UTC(), grd.IsFinal, grd.Comments, null.Int64FromPtr(grd.OriginalGroupID),
		grd.GroupCode, grd.OriginalCreatedAt.UTC(), grd.OriginalUpdatedAt.UTC(),
	}, boilMetadata(grd.Metadata)...)

	id, err := repo.insert(ctx, archivedGradeTable, archivedGradeColumns[1:], vals...)
	if err != nil {
		return archive.ArchivedGrade{}, errors.Wrap(err, "inserting archived grade")
	}
	grd.ID = id
	return grd, nil
}

func (repo archivedGradeRepository) GetGrade(ctx context.Context, id int64) (archive.ArchivedGrade, error) {
	var row archivedGradeRow
	if err := repo.newQuery(archivedGradeTable, archivedGradeColumns, qm.Where("id = ?", id)).Bind(ctx, repo.exec, &row); err != nil {
		return archive.ArchivedGrade{}, trapNoRowsErr(err, archive.ErrNotFound, "finding archived grade")
	}
	return repo.unboil(row), nil
}

func (repo archivedGradeRepository) QueryGrades(ctx context.Context, filter *archive.GradeFilter) ([]archive.ArchivedGrade, error) {
	var mods []qm.QueryMod
	if filter != nil {
		if filter.Search != "" {
			mods = append(mods, repo.likeAny(filter.Search, "student_number", "subject_name"))
		}
		if filter.OriginalStudentID != nil {
			mods = append(mods, qm.Where("original_student_id = ?", *filter.OriginalStudentID))
		}
		if filter.OriginalGroupID != nil {
			mods = append(mods, qm.Where("original_group_id = ?", *filter.OriginalGroupID))
		}
		mods = append(mods, archivedWithin(filter.From, filter.To)...)
	}
	mods = append(mods, qm.OrderBy(newestFirst))

	var rows []archivedGradeRow
	if err := repo.newQuery(archivedGradeTable, archivedGradeColumns, mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying archived grades")
	}
	grades := make([]archive.ArchivedGrade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, repo.unboil(row))
	}
	return grades, nil
}

func (repo archivedGradeRepository) DeleteGrade(ctx context.Context, id int64) error {
	found, err := repo.deleteByID(ctx, archivedGradeTable, id)
	if err != nil {
		return err
	}
	if !found {
		return archive.ErrNotFound
	}
	return nil
}

func (repo archivedGradeRepository) GradeExists(ctx context.Context, id int64) (bool, error) {
	return repo.exists(ctx, archivedGradeTable, id)
}

func (repo archivedGradeRepository) CountGrades(ctx context.Context) (int64, error) {
	return repo.count(ctx, archivedGradeTable)
}

func (repo archivedGradeRepository) LastGradeArchivedAt(ctx context.Context) (*time.Time, error) {
	return repo.lastArchivedAt(ctx, archivedGradeTable)
}
