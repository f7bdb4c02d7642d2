package archive

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
)

var (
	errActorRequired  = errors.New("archiving actor is required")
	errReasonRequired = errors.New("archiving reason is required")
)

// Metadata records who archived a record, when and why. It is set once, when the snapshot is built.
type Metadata struct {
	ArchivedAt time.Time `json:"archived_at"` // UTC
	ArchivedBy string    `json:"archived_by"`
	Reason     string    `json:"reason"`
}

// NewMetadata returns the archive metadata for `actor` & `reason`, both mandatory.
func NewMetadata(actor, reason string, at time.Time) (Metadata, error) {
	actor, reason = core.CleanString(actor), core.CleanString(reason)

	var flds []core.FieldError
	var err error
	if actor == "" {
		err = errActorRequired
		flds = append(flds, core.FieldError{Field: "archived_by", Error: errActorRequired.Error()})
	}
	if reason == "" {
		if err == nil {
			err = errReasonRequired
		}
		flds = append(flds, core.FieldError{Field: "reason", Error: errReasonRequired.Error()})
	}
	if err != nil {
		return Metadata{}, core.NewValidationError(err, flds...)
	}
	return Metadata{ArchivedAt: at.UTC(), ArchivedBy: actor, Reason: reason}, nil
}

// WithReason returns a copy of the metadata with a different reason, archived at `at`.
func (m Metadata) WithReason(reason string, at time.Time) Metadata {
	return Metadata{ArchivedAt: at.UTC(), ArchivedBy: m.ArchivedBy, Reason: reason}
}

// ArchivedGrade is the immutable snapshot of a grade, denormalized so that it can be read
// after the student, the subject or the group are gone.
type ArchivedGrade struct {
	ID                int64                  `json:"id"`
	OriginalGradeID   int64                  `json:"original_grade_id"`
	OriginalStudentID int64                  `json:"original_student_id"`
	StudentNumber     string                 `json:"student_number"`
	StudentFullName   string                 `json:"student_full_name"`
	OriginalSubjectID int64                  `json:"original_subject_id"`
	SubjectName       string                 `json:"subject_name"`
	OriginalTeacherID int64                  `json:"original_teacher_id"`
	TeacherName       string                 `json:"teacher_name"`
	GradeCategory     academic.GradeCategory `json:"grade_category"`
	GradeValue        int                    `json:"grade_value"`
	GradeType         academic.GradeType     `json:"grade_type"`
	GradeDate         time.Time              `json:"grade_date"`
	IsFinal           bool                   `json:"is_final"`
	Comments          string                 `json:"comments"`
	OriginalGroupID   *int64                 `json:"original_group_id"`
	GroupCode         string                 `json:"group_code"`
	OriginalCreatedAt time.Time              `json:"original_created_at"`
	OriginalUpdatedAt time.Time              `json:"original_updated_at"`
	Metadata
}

// ArchivedStudent is the immutable snapshot of a student.
type ArchivedStudent struct {
	ID                int64              `json:"id"`
	OriginalStudentID int64              `json:"original_student_id"`
	StudentNumber     string             `json:"student_number"`
	FullName          string             `json:"full_name"`
	EnrollmentYear    int                `json:"enrollment_year"`
	CourseYear        int                `json:"course_year"`
	Phone             string             `json:"phone"`
	Address           string             `json:"address"`
	StudyForm         academic.StudyForm `json:"study_form"`
	OriginalGroupID   *int64             `json:"original_group_id"`
	GroupCode         string             `json:"group_code"`
	GroupName         string             `json:"group_name"`
	OriginalCreatedAt time.Time          `json:"original_created_at"`
	OriginalUpdatedAt time.Time          `json:"original_updated_at"`
	Metadata
}

// ArchivedStudentGroup is the immutable snapshot of a student group.
type ArchivedStudentGroup struct {
	ID                int64              `json:"id"`
	OriginalGroupID   int64              `json:"original_group_id"`
	GroupCode         string             `json:"group_code"`
	GroupName         string             `json:"group_name"`
	CourseYear        int                `json:"course_year"`
	StudyForm         academic.StudyForm `json:"study_form"`
	EnrollmentYear    int                `json:"enrollment_year"`
	Specialization    string             `json:"specialization"`
	MaxCapacity       int                `json:"max_capacity"`
	StudentCount      int                `json:"student_count"`
	OriginalCreatedAt time.Time          `json:"original_created_at"`
	OriginalUpdatedAt time.Time          `json:"original_updated_at"`
	Metadata
}

// Statistics summarizes the archive.
type Statistics struct {
	TotalGroups     int64      `json:"total_groups"`
	TotalStudents   int64      `json:"total_students"`
	TotalGrades     int64      `json:"total_grades"`
	LastArchiveDate *time.Time `json:"last_archive_date"`
}
