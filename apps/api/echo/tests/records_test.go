package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/user"
	testutil "github.com/trezcool/registro/tests"
)

type recordGradeResult struct {
	Grade    academic.Grade         `json:"grade"`
	Replaced *archive.ArchivedGrade `json:"replaced"`
}

func Test_recordsApi_groups(t *testing.T) {
	app, _ := setup(t)

	newGroup := func(name, code string, capacity int) []byte {
		return marchallObj(t, academic.NewGroup{
			Name:           name,
			Code:           code,
			CourseYear:     1,
			MaxCapacity:    capacity,
			EnrollmentYear: 2024,
		})
	}

	rec := do(t, app, http.MethodPost, "/v1/groups", newGroup("  Computer Science 1 ", "CS-1", 1))
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d; want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var grp academic.Group
	unmarchall(t, rec, &grp)
	if grp.Name != "Computer Science 1" || grp.StudyForm != academic.StudyFormFullTime || !grp.IsActive {
		t.Errorf("created group = %+v", grp)
	}

	tests := []httpTest{
		{
			name: "duplicate code", method: http.MethodPost, path: "/v1/groups", body: newGroup("Other", "CS-1", 0),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: academic.ErrDuplicate.Error()}),
		},
		{
			name: "invalid input", method: http.MethodPost, path: "/v1/groups", body: newGroup(" ", "CS 2", -1),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":         "this field is required",
				"code":         "only alphanumeric characters, dashes and underscores are allowed",
				"max_capacity": "max_capacity must be 0 or greater",
			}),
		},
		{
			name: "deactivate", method: http.MethodPut, path: fmt.Sprintf("/v1/groups/%d/active", grp.ID),
			body: []byte(`{"is_active": false}`), wantCode: http.StatusOK,
		},
		{
			name: "active flag required", method: http.MethodPut, path: fmt.Sprintf("/v1/groups/%d/active", grp.ID),
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"is_active": "this field is required"}),
		},
		{name: "unknown group", method: http.MethodGet, path: "/v1/groups/999", wantCode: http.StatusNotFound},
		{
			name: "inactive groups", method: http.MethodGet, path: "/v1/groups?is_active=false", wantCode: http.StatusOK,
		},
		{
			name: "bad flag", method: http.MethodGet, path: "/v1/groups?is_active=maybe", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"is_active": "must be a boolean"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(t, app, tt.method, tt.path, tt.body))
		})
	}

	var grps []academic.Group
	unmarchall(t, do(t, app, http.MethodGet, "/v1/groups?is_active=false"), &grps)
	if len(grps) != 1 || grps[0].ID != grp.ID || grps[0].IsActive {
		t.Errorf("inactive groups = %+v; want the deactivated group", grps)
	}
}

func Test_recordsApi_students(t *testing.T) {
	app, db := setup(t)
	grp := testutil.CreateGroup(t, db, "Small", "SM-1", 1)

	newStudent := func(number string) []byte {
		return marchallObj(t, academic.NewStudent{
			Person:         user.NewUser{Name: "Student " + number, Username: "u" + number},
			StudentNumber:  number,
			EnrollmentYear: 2024,
			CourseYear:     1,
			GroupID:        &grp.ID,
		})
	}

	rec := do(t, app, http.MethodPost, "/v1/students", newStudent("S001"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d; want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var std academic.Student
	unmarchall(t, rec, &std)

	tests := []httpTest{
		{
			name: "group full", method: http.MethodPost, path: "/v1/students", body: newStudent("S002"),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: academic.ErrGroupFull.Error()}),
		},
		{
			name: "leave group", method: http.MethodPut, path: fmt.Sprintf("/v1/students/%d/group", std.ID),
			body: []byte(`{"group_id": null}`), wantCode: http.StatusOK,
		},
		{
			name: "room again", method: http.MethodPost, path: "/v1/students", body: newStudent("S002"),
			wantCode: http.StatusCreated,
		},
		{
			name: "unknown group", method: http.MethodPut, path: fmt.Sprintf("/v1/students/%d/group", std.ID),
			body: []byte(`{"group_id": 999}`), wantCode: http.StatusNotFound,
		},
		{name: "unknown student", method: http.MethodGet, path: "/v1/students/999", wantCode: http.StatusNotFound},
		{name: "grades of unknown student", method: http.MethodGet, path: "/v1/students/999/grades", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(t, app, tt.method, tt.path, tt.body))
		})
	}

	var members []academic.Student
	unmarchall(t, do(t, app, http.MethodGet, fmt.Sprintf("/v1/students?group_id=%d", grp.ID)), &members)
	if len(members) != 1 || members[0].StudentNumber != "S002" {
		t.Errorf("members = %+v; want S002 only", members)
	}
}

func Test_recordsApi_recordGrade(t *testing.T) {
	app, db := setup(t)
	school := testutil.Seed(t, db, 1, 1, 0)
	std := school.Students[school.Groups[0].ID][0]

	grade := func(value int) []byte {
		return marchallObj(t, map[string]interface{}{
			"student_id": std.ID,
			"subject_id": school.Subjects[0].ID,
			"teacher_id": school.Teacher.ID,
			"value":      value,
			"type":       academic.GradeTypeExam,
			"date":       "2024-05-20T00:00:00Z",
			"actor":      "teacher",
		})
	}

	var first recordGradeResult
	rec := do(t, app, http.MethodPost, "/v1/grades", grade(70))
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d; want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	unmarchall(t, rec, &first)
	if first.Replaced != nil || first.Grade.Category != academic.CategoryFinalControl {
		t.Errorf("first grade = %+v", first)
	}

	var second recordGradeResult
	rec = do(t, app, http.MethodPost, "/v1/grades", grade(85))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	unmarchall(t, rec, &second)
	if second.Replaced == nil || second.Replaced.OriginalGradeID != first.Grade.ID || second.Replaced.GradeValue != 70 {
		t.Fatalf("replaced = %+v; want a snapshot of grade %d", second.Replaced, first.Grade.ID)
	}
	if second.Replaced.Reason != "grade overwritten" || second.Replaced.ArchivedBy != "teacher" {
		t.Errorf("replaced metadata = %+v", second.Replaced.Metadata)
	}

	var live []academic.Grade
	unmarchall(t, do(t, app, http.MethodGet, fmt.Sprintf("/v1/students/%d/grades", std.ID)), &live)
	if len(live) != 1 || live[0].Value != 85 {
		t.Errorf("live grades = %+v; want the new grade only", live)
	}

	tests := []httpTest{
		{
			name: "actor required", method: http.MethodPost, path: "/v1/grades",
			body: []byte(fmt.Sprintf(
				`{"student_id": %d, "subject_id": %d, "teacher_id": %d, "value": 50, "type": "lab"}`,
				std.ID, school.Subjects[1].ID, school.Teacher.ID,
			)),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"actor": "this field is required"}),
		},
		{
			name: "unknown type", method: http.MethodPost, path: "/v1/grades",
			body: []byte(fmt.Sprintf(
				`{"student_id": %d, "subject_id": %d, "teacher_id": %d, "value": 50, "type": "quiz", "actor": "t"}`,
				std.ID, school.Subjects[1].ID, school.Teacher.ID,
			)),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"type": "invalid grade type"}),
		},
		{
			name: "unknown subject", method: http.MethodPost, path: "/v1/grades",
			body: []byte(fmt.Sprintf(
				`{"student_id": %d, "subject_id": 999, "teacher_id": %d, "value": 50, "type": "lab", "actor": "t"}`,
				std.ID, school.Teacher.ID,
			)),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "subject not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(t, app, tt.method, tt.path, tt.body))
		})
	}
}

func Test_recordsApi_subjectsAndTeachers(t *testing.T) {
	app, _ := setup(t)

	tests := []httpTest{
		{name: "subject", method: http.MethodPost, path: "/v1/subjects", body: []byte(`{"name": "Algebra", "code": "ALG"}`), wantCode: http.StatusCreated},
		{
			name: "duplicate subject", method: http.MethodPost, path: "/v1/subjects", body: []byte(`{"name": "Algebra"}`),
			wantCode: http.StatusConflict,
		},
		{name: "teacher", method: http.MethodPost, path: "/v1/teachers", body: []byte(`{"name": "Ada L.", "username": "Ada"}`), wantCode: http.StatusCreated},
		{
			name: "duplicate teacher", method: http.MethodPost, path: "/v1/teachers", body: []byte(`{"name": "Ada Bis", "username": "ada"}`),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: user.ErrUserExists.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(t, app, tt.method, tt.path, tt.body))
		})
	}

	var subs []academic.Subject
	unmarchall(t, do(t, app, http.MethodGet, "/v1/subjects"), &subs)
	if len(subs) != 1 || subs[0].Name != "Algebra" {
		t.Errorf("subjects = %+v", subs)
	}
}
