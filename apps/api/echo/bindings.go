package echoapi

import (
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type cleaner interface {
	Clean()
}

// bindInput binds the request body to `data`, cleans and validates it.
func bindInput(ctx echo.Context, data cleaner, validate *validator.Validate, translator ut.Translator) error {
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.Clean()
	if err := validate.Struct(data); err != nil {
		return core.TranslateErrors(err, translator)
	}
	return nil
}

// idParam parses the path parameter `name` as a record ID; malformed IDs are not found.
func idParam(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// int64Query parses the optional query parameter `name`.
func int64Query(ctx echo.Context, name string) (*int64, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fieldError(name, "must be an integer")
	}
	return &n, nil
}

// boolQuery parses the optional query parameter `name`.
func boolQuery(ctx echo.Context, name string) (*bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, fieldError(name, "must be a boolean")
	}
	return &b, nil
}

const dateLayout = "2006-01-02"

// timeQuery parses the optional query parameter `name`, either RFC 3339 or a plain date.
// A plain date used as an upper bound covers the whole day.
func timeQuery(ctx echo.Context, name string, upper bool) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, val)
	if err != nil {
		return time.Time{}, fieldError(name, "must be an RFC 3339 date-time or a YYYY-MM-DD date")
	}
	if upper {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return t, nil
}

func fieldError(field, msg string) error {
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: field, Error: msg})
}
