package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/archiving"
	"github.com/trezcool/registro/core/records"
	"github.com/trezcool/registro/core/user"
)

type (
	recordGradeRequest struct {
		academic.NewGrade
		Actor string `json:"actor" validate:"required,notblank"`
	}

	recordGradeResponse struct {
		Grade    academic.Grade         `json:"grade"`
		Replaced *archive.ArchivedGrade `json:"replaced"`
	}

	setActiveRequest struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}

	assignGroupRequest struct {
		GroupID *int64 `json:"group_id"`
	}
)

func (r *recordGradeRequest) Clean() {
	r.NewGrade.Clean()
	r.Actor = core.CleanString(r.Actor)
}

func (r *setActiveRequest) Clean()   {}
func (r *assignGroupRequest) Clean() {}

type recordsApi struct {
	svc        *records.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerRecordsAPI(
	g *echo.Group,
	svc *records.Service,
	archiveSvc *archiving.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := recordsApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}
	arch := archiveApi{svc: archiveSvc}

	gg := g.Group("/groups")
	gg.POST("", api.createGroup)
	gg.GET("", api.queryGroups)
	gg.GET("/:id", api.retrieveGroup)
	gg.PUT("/:id/active", api.setGroupActive)
	gg.POST("/:id/archive", arch.archiveGroup)

	sg := g.Group("/students")
	sg.POST("", api.createStudent)
	sg.GET("", api.queryStudents)
	sg.GET("/:id", api.retrieveStudent)
	sg.PUT("/:id/group", api.assignGroup)
	sg.GET("/:id/grades", api.studentGrades)
	sg.POST("/:id/archive", arch.archiveStudent)

	g.POST("/subjects", api.createSubject)
	g.GET("/subjects", api.querySubjects)
	g.POST("/teachers", api.createTeacher)

	g.POST("/grades", api.recordGrade)
	g.POST("/grades/:id/archive", arch.archiveGrade)
}

// Groups

func (api *recordsApi) createGroup(ctx echo.Context) error {
	var data academic.NewGroup
	if err := bindInput(ctx, &data, api.validate, api.translator); err != nil {
		return err
	}
	grp, err := api.svc.CreateGroup(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *recordsApi) queryGroups(ctx echo.Context) error {
	isActive, err := boolQuery(ctx, "is_active")
	if err != nil {
		return err
	}
	filter := &academic.GroupFilter{Search: core.CleanString(ctx.QueryParam("search")), IsActive: isActive}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	grps, err := api.svc.QueryGroups(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return err
	}
	if grps == nil {
		grps = []academic.Group{}
	}
	return ctx.JSON(http.StatusOK, grps)
}

func (api *recordsApi) retrieveGroup(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	grp, err := api.svc.GetGroup(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *recordsApi) setGroupActive(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data setActiveRequest
	if err = bindInput(ctx, &data, api.validate, api.translator); err != nil {
		return err
	}
	grp, err := api.svc.SetGroupActive(ctx.Request().Context(), id, *data.IsActive)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

// Students

func (api *recordsApi) createStudent(ctx echo.Context) error {
	var data academic.NewStudent
	if err := bindInput(ctx, &data, api.validate, api.translator); err != nil {
		return err
	}
	std, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *recordsApi) queryStudents(ctx echo.Context) error {
	groupID, err := int64Query(ctx, "group_id")
	if err != nil {
		return err
	}
	isActive, err := boolQuery(ctx, "is_active")
	if err != nil {
		return err
	}
	filter := &academic.StudentFilter{
		Search:   core.CleanString(ctx.QueryParam("search")),
		GroupID:  groupID,
		IsActive: isActive,
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	stds, err := api.svc.QueryStudents(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return err
	}
	if stds == nil {
		stds = []academic.Student{}
	}
	return ctx.JSON(http.StatusOK, stds)
}

func (api *recordsApi) retrieveStudent(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	std, err := api.svc.GetStudent(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *recordsApi) assignGroup(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data assignGroupRequest
	if err = bindInput(ctx, &data, api.validate, api.translator); err != nil {
		return err
	}
	std, err := api.svc.AssignGroup(ctx.Request().Context(), id, data.GroupID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *recordsApi) studentGrades(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	grds, err := api.svc.GradesByStudent(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if grds == nil {
		grds = []academic.Grade{}
	}
	return ctx.JSON(http.StatusOK, grds)
}

// Subjects & teachers

func (api *recordsApi) createSubject(ctx echo.Context) error {
	var data academic.NewSubject
	if err := bindInput(ctx, &data, api.validate, api.translator); err != nil {
		return err
	}
	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *recordsApi) querySubjects(ctx echo.Context) error {
	subs, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []academic.Subject{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *recordsApi) createTeacher(ctx echo.Context) error {
	var data user.NewUser
	if err := bindInput(ctx, &data, api.validate, api.translator); err != nil {
		return err
	}
	usr, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

// Grades

func (api *recordsApi) recordGrade(ctx echo.Context) error {
	var data recordGradeRequest
	if err := bindInput(ctx, &data, api.validate, api.translator); err != nil {
		return err
	}
	grd, replaced, err := api.svc.RecordGrade(ctx.Request().Context(), data.NewGrade, data.Actor)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}
	code := http.StatusCreated
	if replaced != nil {
		code = http.StatusOK
	}
	return ctx.JSON(code, recordGradeResponse{Grade: grd, Replaced: replaced})
}
