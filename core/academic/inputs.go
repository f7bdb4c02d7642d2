package academic

import (
	"time"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/user"
)

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name           string    `json:"name" validate:"required,notblank,max=100"`
	Code           string    `json:"code" validate:"required,max=20,alphanum_"`
	CourseYear     int       `json:"course_year" validate:"min=1,max=6"`
	StudyForm      StudyForm `json:"study_form" validate:"studyform"`
	MaxCapacity    int       `json:"max_capacity" validate:"min=0"`
	Specialization string    `json:"specialization" validate:"max=255"`
	EnrollmentYear int       `json:"enrollment_year" validate:"min=1900,max=2100"`
}

func (ng *NewGroup) Clean() {
	ng.Name = core.CleanString(ng.Name)
	ng.Code = core.CleanString(ng.Code)
	ng.Specialization = core.CleanString(ng.Specialization)
	if ng.StudyForm == "" {
		ng.StudyForm = StudyFormFullTime
	}
}

func (ng NewGroup) Build(now time.Time) Group {
	return Group{
		Name:           ng.Name,
		Code:           ng.Code,
		CourseYear:     ng.CourseYear,
		StudyForm:      ng.StudyForm,
		MaxCapacity:    ng.MaxCapacity,
		Specialization: ng.Specialization,
		EnrollmentYear: ng.EnrollmentYear,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewStudent contains information needed to enrol a new Student, person record included.
type NewStudent struct {
	Person         user.NewUser `json:"person"`
	StudentNumber  string       `json:"student_number" validate:"required,max=20,alphanum_"`
	EnrollmentYear int          `json:"enrollment_year" validate:"min=1900,max=2100"`
	CourseYear     int          `json:"course_year" validate:"min=1,max=6"`
	StudyForm      StudyForm    `json:"study_form" validate:"studyform"`
	Phone          string       `json:"phone" validate:"max=30"`
	Address        string       `json:"address" validate:"max=255"`
	GroupID        *int64       `json:"group_id"`
}

func (ns *NewStudent) Clean() {
	ns.Person.Clean()
	ns.Person.Roles = []string{user.RoleStudent}
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Address = core.CleanString(ns.Address)
	if ns.StudyForm == "" {
		ns.StudyForm = StudyFormFullTime
	}
}

func (ns NewStudent) Build(userID int64, now time.Time) Student {
	return Student{
		UserID:         userID,
		StudentNumber:  ns.StudentNumber,
		EnrollmentYear: ns.EnrollmentYear,
		CourseYear:     ns.CourseYear,
		StudyForm:      ns.StudyForm,
		Phone:          ns.Phone,
		Address:        ns.Address,
		IsActive:       true,
		GroupID:        ns.GroupID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type NewSubject struct {
	Name string `json:"name" validate:"required,notblank,max=200"`
	Code string `json:"code" validate:"omitempty,max=20,alphanum_"`
}

func (ns *NewSubject) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
}

func (ns NewSubject) Build(now time.Time) Subject {
	return Subject{Name: ns.Name, Code: ns.Code, CreatedAt: now, UpdatedAt: now}
}

// NewGrade contains information needed to record a Grade.
type NewGrade struct {
	StudentID int64     `json:"student_id" validate:"required"`
	SubjectID int64     `json:"subject_id" validate:"required"`
	TeacherID int64     `json:"teacher_id" validate:"required"`
	Value     int       `json:"value" validate:"min=0,max=100"`
	Type      GradeType `json:"type" validate:"gradetype"`
	Date      time.Time `json:"date"`
	Comments  string    `json:"comments" validate:"max=1000"`
	IsFinal   bool      `json:"is_final"`
}

func (ng *NewGrade) Clean() {
	ng.Comments = core.CleanString(ng.Comments)
}

func (ng NewGrade) Build(now time.Time) Grade {
	date := ng.Date
	if date.IsZero() {
		date = now
	}
	return Grade{
		StudentID: ng.StudentID,
		SubjectID: ng.SubjectID,
		TeacherID: ng.TeacherID,
		Value:     ng.Value,
		Type:      ng.Type,
		Category:  ng.Type.Category(),
		Date:      date.UTC().Truncate(24 * time.Hour),
		Comments:  ng.Comments,
		IsFinal:   ng.IsFinal,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
