package archive

import "github.com/trezcool/registro/core/academic"

type (
	// StudentRefs holds what was resolved about a student when it was archived.
	StudentRefs struct {
		Student  academic.Student
		FullName string
		Group    *academic.Group
	}

	// GradeRefs holds what was resolved about a grade when it was archived.
	GradeRefs struct {
		Student     StudentRefs
		SubjectName string
		TeacherName string
	}
)

func (r StudentRefs) groupCodeAndName() (code, name string) {
	if r.Group == nil {
		return "", ""
	}
	return r.Group.Code, r.Group.Name
}

// SnapshotGrade builds the snapshot of `grd` from explicitly resolved references.
func SnapshotGrade(grd academic.Grade, refs GradeRefs, meta Metadata) ArchivedGrade {
	code, _ := refs.Student.groupCodeAndName()
	category := grd.Category
	if category == "" {
		category = grd.Type.Category()
	}
	return ArchivedGrade{
		OriginalGradeID:   grd.ID,
		OriginalStudentID: grd.StudentID,
		StudentNumber:     refs.Student.Student.StudentNumber,
		StudentFullName:   refs.Student.FullName,
		OriginalSubjectID: grd.SubjectID,
		SubjectName:       refs.SubjectName,
		OriginalTeacherID: grd.TeacherID,
		TeacherName:       refs.TeacherName,
		GradeCategory:     category,
		GradeValue:        grd.Value,
		GradeType:         grd.Type,
		GradeDate:         grd.Date,
		IsFinal:           grd.IsFinal,
		Comments:          grd.Comments,
		OriginalGroupID:   copyID(refs.Student.Student.GroupID),
		GroupCode:         code,
		OriginalCreatedAt: grd.CreatedAt,
		OriginalUpdatedAt: grd.UpdatedAt,
		Metadata:          meta,
	}
}

// SnapshotStudent builds the snapshot of a student from explicitly resolved references.
func SnapshotStudent(refs StudentRefs, meta Metadata) ArchivedStudent {
	std := refs.Student
	code, name := refs.groupCodeAndName()
	return ArchivedStudent{
		OriginalStudentID: std.ID,
		StudentNumber:     std.StudentNumber,
		FullName:          refs.FullName,
		EnrollmentYear:    std.EnrollmentYear,
		CourseYear:        std.CourseYear,
		Phone:             std.Phone,
		Address:           std.Address,
		StudyForm:         std.StudyForm,
		OriginalGroupID:   copyID(std.GroupID),
		GroupCode:         code,
		GroupName:         name,
		OriginalCreatedAt: std.CreatedAt,
		OriginalUpdatedAt: std.UpdatedAt,
		Metadata:          meta,
	}
}

// SnapshotGroup builds the snapshot of `grp`; `students` is the number of members archived with it.
func SnapshotGroup(grp academic.Group, students int, meta Metadata) ArchivedStudentGroup {
	return ArchivedStudentGroup{
		OriginalGroupID:   grp.ID,
		GroupCode:         grp.Code,
		GroupName:         grp.Name,
		CourseYear:        grp.CourseYear,
		StudyForm:         grp.StudyForm,
		EnrollmentYear:    grp.EnrollmentYear,
		Specialization:    grp.Specialization,
		MaxCapacity:       grp.MaxCapacity,
		StudentCount:      students,
		OriginalCreatedAt: grp.CreatedAt,
		OriginalUpdatedAt: grp.UpdatedAt,
		Metadata:          meta,
	}
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
