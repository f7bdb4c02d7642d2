package boiledrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/strmangle"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/trezcool/registro/core"
)

const (
	uniqueViolation = "23505"
	likeEscape      = `\`
)

// base is embedded by every repository of a unit of work.
type base struct {
	exec     core.DBExecutor
	dialect  *drivers.Dialect
	bindType int
	lower    string // SQL function folding text to lower case
}

// newQuery returns a SELECT of `cols` from `table`.
func (b base) newQuery(table string, cols []string, mods ...qm.QueryMod) *queries.Query {
	q := &queries.Query{}
	queries.SetDialect(q, b.dialect)
	qm.Apply(q, append([]qm.QueryMod{qm.Select(cols...), qm.From(table)}, mods...)...)
	return q
}

func (b base) count(ctx context.Context, table string, mods ...qm.QueryMod) (int64, error) {
	var n int64
	if err := b.newQuery(table, []string{"COUNT(*)"}, mods...).QueryRowContext(ctx, b.exec).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "counting %s", table)
	}
	return n, nil
}

func (b base) exists(ctx context.Context, table string, id int64) (bool, error) {
	n, err := b.count(ctx, table, qm.Where("id = ?", id))
	return n > 0, err
}

// insert inserts a row and returns its generated ID.
func (b base) insert(ctx context.Context, table string, cols []string, vals ...interface{}) (int64, error) {
	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		strmangle.IdentQuote(b.dialect.LQ, b.dialect.RQ, table),
		strings.Join(strmangle.IdentQuoteSlice(b.dialect.LQ, b.dialect.RQ, cols), ", "),
		strmangle.Placeholders(b.dialect.UseIndexPlaceholders, len(cols), 1, 1),
		strmangle.IdentQuote(b.dialect.LQ, b.dialect.RQ, "id"),
	)
	var id int64
	if err := b.exec.QueryRowContext(ctx, q, vals...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// update sets `cols` of the row `id`; reports whether the row exists.
func (b base) update(ctx context.Context, table string, id int64, cols []string, vals ...interface{}) (bool, error) {
	lq, rq := string(b.dialect.LQ), string(b.dialect.RQ)
	start, whereStart := 0, 0
	if b.dialect.UseIndexPlaceholders {
		start, whereStart = 1, len(cols)+1
	}
	q := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s",
		strmangle.IdentQuote(b.dialect.LQ, b.dialect.RQ, table),
		strmangle.SetParamNames(lq, rq, start, cols),
		strmangle.WhereClause(lq, rq, whereStart, []string{"id"}),
	)
	res, err := b.exec.ExecContext(ctx, q, append(vals, id)...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// deleteByID reports whether the row `id` existed.
func (b base) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	q := sqlx.Rebind(b.bindType, fmt.Sprintf("DELETE FROM %s WHERE id = ?", strmangle.IdentQuote(b.dialect.LQ, b.dialect.RQ, table)))
	res, err := b.exec.ExecContext(ctx, q, id)
	if err != nil {
		return false, errors.Wrapf(err, "deleting from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrapf(err, "deleting from %s", table)
	}
	return n > 0, nil
}

// lastArchivedAt returns the most recent archived_at of `table`, nil when it is empty.
func (b base) lastArchivedAt(ctx context.Context, table string) (*time.Time, error) {
	var at time.Time
	err := b.newQuery(table, []string{"archived_at"}, qm.OrderBy("archived_at DESC"), qm.Limit(1)).
		QueryRowContext(ctx, b.exec).
		Scan(&at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading last archive date of %s", table)
	}
	at = at.UTC()
	return &at, nil
}

// orderBy renders the allowed orderings, always ending with the ID as tie-breaker.
func orderBy(ordering []core.DBOrdering, allowed ...string) qm.QueryMod {
	ords := core.AllowedOrderings(ordering, allowed...)
	clauses := make([]string, 0, len(ords)+1)
	for _, ord := range ords {
		if ord.Field != "id" {
			clauses = append(clauses, ord.String())
		}
	}
	last := core.DBOrdering{Field: "id", Ascending: true}
	for _, ord := range ords {
		if ord.Field == "id" {
			last = ord
		}
	}
	return qm.OrderBy(strings.Join(append(clauses, last.String()), ", "))
}

// likeAny matches `term` as a case-insensitive substring of any of `cols`.
func (b base) likeAny(term string, cols ...string) qm.QueryMod {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	val := "%" + strings.ToLower(r.Replace(term)) + "%"

	clauses := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		clauses = append(clauses, fmt.Sprintf("%s(%s) LIKE ? ESCAPE '%s'", b.lower, col, likeEscape))
		args = append(args, val)
	}
	return qm.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func archivedWithin(from, to time.Time) []qm.QueryMod {
	var mods []qm.QueryMod
	if !from.IsZero() {
		mods = append(mods, qm.Where("archived_at >= ?", from.UTC()))
	}
	if !to.IsZero() {
		mods = append(mods, qm.Where("archived_at <= ?", to.UTC()))
	}
	return mods
}

// trapWriteErr maps unique constraint violations to `dupErr`.
func trapWriteErr(err error, dupErr error, msg string) error {
	if isUniqueViolation(err) {
		return dupErr
	}
	return errors.Wrap(err, msg)
}

// trapNoRowsErr maps "no rows" err to `notFoundErr`.
func trapNoRowsErr(err error, notFoundErr error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFoundErr
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
