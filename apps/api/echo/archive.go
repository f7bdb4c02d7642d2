package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/archiving"
)

// archiveRequest carries the metadata of an archival; both fields are checked by the archiver.
type archiveRequest struct {
	ArchivedBy string `json:"archived_by"`
	Reason     string `json:"reason"`
}

type archiveApi struct {
	svc *archiving.Service
}

func registerArchiveAPI(g *echo.Group, svc *archiving.Service) {
	api := archiveApi{svc: svc}

	ag := g.Group("/archive")
	ag.GET("/stats", api.statistics)

	ag.GET("/groups", api.queryGroups)
	ag.GET("/groups/:id", api.retrieveGroup)
	ag.DELETE("/groups/:id", api.destroyGroup)

	ag.GET("/students", api.queryStudents)
	ag.GET("/students/:id", api.retrieveStudent)
	ag.DELETE("/students/:id", api.destroyStudent)

	ag.GET("/grades", api.queryGrades)
	ag.GET("/grades/:id", api.retrieveGrade)
	ag.DELETE("/grades/:id", api.destroyGrade)
}

// Archival endpoints hang off the live records: POST /v1/{grades,students,groups}/:id/archive

func (api *archiveApi) archiveGrade(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data archiveRequest
	if err = ctx.Bind(&data); err != nil {
		return err
	}

	snap, err := api.svc.ArchiveGrade(ctx.Request().Context(), id, data.ArchivedBy, data.Reason)
	if err != nil {
		return errors.Wrap(err, "archiving grade")
	}
	return ctx.JSON(http.StatusCreated, snap)
}

func (api *archiveApi) archiveStudent(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data archiveRequest
	if err = ctx.Bind(&data); err != nil {
		return err
	}

	rep, err := api.svc.ArchiveStudent(ctx.Request().Context(), id, data.ArchivedBy, data.Reason)
	if err != nil {
		return errors.Wrap(err, "archiving student")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *archiveApi) archiveGroup(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data archiveRequest
	if err = ctx.Bind(&data); err != nil {
		return err
	}

	rep, err := api.svc.ArchiveStudentGroup(ctx.Request().Context(), id, data.ArchivedBy, data.Reason)
	if err != nil {
		return errors.Wrap(err, "archiving student group")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *archiveApi) statistics(ctx echo.Context) error {
	stats, err := api.svc.GetArchiveStatistics(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

// queryGroups lists archived groups: `search` matches code or name, `from` & `to` bound the archive date.
func (api *archiveApi) queryGroups(ctx echo.Context) error {
	from, err := timeQuery(ctx, "from", false)
	if err != nil {
		return err
	}
	to, err := timeQuery(ctx, "to", true)
	if err != nil {
		return err
	}

	var grps []archive.ArchivedStudentGroup
	switch {
	case !from.IsZero() || !to.IsZero():
		if from.IsZero() || to.IsZero() {
			return errHttpBadPeriod
		}
		grps, err = api.svc.GetArchivedGroupsByDateRange(ctx.Request().Context(), from, to)
	default:
		grps, err = api.svc.SearchArchivedGroups(ctx.Request().Context(), ctx.QueryParam("search"))
	}
	if err != nil {
		return err
	}
	if grps == nil {
		grps = []archive.ArchivedStudentGroup{}
	}
	return ctx.JSON(http.StatusOK, grps)
}

func (api *archiveApi) retrieveGroup(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	grp, err := api.svc.GetArchivedGroup(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *archiveApi) destroyGroup(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteArchivedGroup(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryStudents lists archived students: `group_id` selects the students archived out of a live group,
// `search` matches the student number.
func (api *archiveApi) queryStudents(ctx echo.Context) error {
	groupID, err := int64Query(ctx, "group_id")
	if err != nil {
		return err
	}

	var stds []archive.ArchivedStudent
	if groupID != nil {
		stds, err = api.svc.GetArchivedStudentsByGroupID(ctx.Request().Context(), *groupID)
	} else {
		stds, err = api.svc.SearchArchivedStudents(ctx.Request().Context(), ctx.QueryParam("search"))
	}
	if err != nil {
		return err
	}
	if stds == nil {
		stds = []archive.ArchivedStudent{}
	}
	return ctx.JSON(http.StatusOK, stds)
}

func (api *archiveApi) retrieveStudent(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	std, err := api.svc.GetArchivedStudent(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *archiveApi) destroyStudent(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteArchivedStudent(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryGrades lists archived grades: `student_id` or `group_id` select the grades of a live student
// or group, `search` matches the student number or the subject name.
func (api *archiveApi) queryGrades(ctx echo.Context) error {
	studentID, err := int64Query(ctx, "student_id")
	if err != nil {
		return err
	}
	groupID, err := int64Query(ctx, "group_id")
	if err != nil {
		return err
	}

	var grds []archive.ArchivedGrade
	switch {
	case studentID != nil:
		grds, err = api.svc.GetArchivedGradesByStudentID(ctx.Request().Context(), *studentID)
	case groupID != nil:
		grds, err = api.svc.GetArchivedGradesByGroupID(ctx.Request().Context(), *groupID)
	default:
		grds, err = api.svc.SearchArchivedGrades(ctx.Request().Context(), ctx.QueryParam("search"))
	}
	if err != nil {
		return err
	}
	if grds == nil {
		grds = []archive.ArchivedGrade{}
	}
	return ctx.JSON(http.StatusOK, grds)
}

func (api *archiveApi) retrieveGrade(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	grd, err := api.svc.GetArchivedGrade(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *archiveApi) destroyGrade(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteArchivedGrade(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
