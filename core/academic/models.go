package academic

import "time"

// StudyForm is the attendance mode of a group or a student.
type StudyForm string

const (
	StudyFormFullTime StudyForm = "full_time"
	StudyFormPartTime StudyForm = "part_time"
	StudyFormDistance StudyForm = "distance"
	StudyFormEvening  StudyForm = "evening"
)

var StudyForms = []StudyForm{StudyFormFullTime, StudyFormPartTime, StudyFormDistance, StudyFormEvening}

func (f StudyForm) Valid() bool {
	for _, sf := range StudyForms {
		if f == sf {
			return true
		}
	}
	return false
}

type (
	GradeType     string
	GradeCategory string
)

const (
	CategoryCurrentControl GradeCategory = "current_control"
	CategoryFinalControl   GradeCategory = "final_control"
	CategoryRetake         GradeCategory = "retake"
	CategoryMakeup         GradeCategory = "makeup"
)

const (
	GradeTypeLab                  GradeType = "lab"
	GradeTypePractical            GradeType = "practical"
	GradeTypeSeminar              GradeType = "seminar"
	GradeTypeHomework             GradeType = "homework"
	GradeTypeTest                 GradeType = "test"
	GradeTypeModule               GradeType = "module"
	GradeTypeCoursework           GradeType = "coursework"
	GradeTypeExam                 GradeType = "exam"
	GradeTypeCredit               GradeType = "credit"
	GradeTypeDifferentiatedCredit GradeType = "differentiated_credit"
	GradeTypeRetake               GradeType = "retake"
	GradeTypeMakeup               GradeType = "makeup"
)

var gradeCategories = map[GradeType]GradeCategory{
	GradeTypeLab:                  CategoryCurrentControl,
	GradeTypePractical:            CategoryCurrentControl,
	GradeTypeSeminar:              CategoryCurrentControl,
	GradeTypeHomework:             CategoryCurrentControl,
	GradeTypeTest:                 CategoryCurrentControl,
	GradeTypeModule:               CategoryCurrentControl,
	GradeTypeCoursework:           CategoryCurrentControl,
	GradeTypeExam:                 CategoryFinalControl,
	GradeTypeCredit:               CategoryFinalControl,
	GradeTypeDifferentiatedCredit: CategoryFinalControl,
	GradeTypeRetake:               CategoryRetake,
	GradeTypeMakeup:               CategoryMakeup,
}

func (t GradeType) Valid() bool {
	_, ok := gradeCategories[t]
	return ok
}

// Category derives the grade category from the grade type. Unknown types yield "".
func (t GradeType) Category() GradeCategory {
	return gradeCategories[t]
}

// Group is a cohort of students (a "student group").
type Group struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	CourseYear     int       `json:"course_year"`
	StudyForm      StudyForm `json:"study_form"`
	MaxCapacity    int       `json:"max_capacity"` // 0: unlimited
	Specialization string    `json:"specialization"`
	EnrollmentYear int       `json:"enrollment_year"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// HasRoomFor reports whether `n` more students fit in a group that already has `members`.
func (g Group) HasRoomFor(members, n int) bool {
	return g.MaxCapacity <= 0 || members+n <= g.MaxCapacity
}

type Student struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	StudentNumber  string    `json:"student_number"`
	EnrollmentYear int       `json:"enrollment_year"`
	CourseYear     int       `json:"course_year"`
	StudyForm      StudyForm `json:"study_form"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	IsActive       bool      `json:"is_active"`
	GroupID        *int64    `json:"group_id"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

type Subject struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Grade struct {
	ID        int64         `json:"id"`
	StudentID int64         `json:"student_id"`
	SubjectID int64         `json:"subject_id"`
	TeacherID int64         `json:"teacher_id"`
	Value     int           `json:"value"`
	Type      GradeType     `json:"type"`
	Category  GradeCategory `json:"category"`
	Date      time.Time     `json:"date"`
	Comments  string        `json:"comments"`
	IsFinal   bool          `json:"is_final"`
	CreatedAt time.Time     `json:"created_at"` // UTC
	UpdatedAt time.Time     `json:"updated_at"` // UTC
}
