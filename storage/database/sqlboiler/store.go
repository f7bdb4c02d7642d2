// Package boiledrepos implements the repositories on top of database/sql, building their queries
// with sqlboiler's query builder. PostgreSQL (lib/pq or pgx) and SQLite are supported.
package boiledrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/drivers"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/store"
	"github.com/trezcool/registro/storage/database"
)

// Store runs units of work in SQL transactions.
type Store struct {
	db       *sql.DB
	postgres bool
	dialect  drivers.Dialect
	bindType int
	lower    string
}

var _ store.Store = (*Store)(nil) // interface compliance check

// NewStore returns a Store on `db`, opened with the database.Engine* driver `engine`.
func NewStore(db *sql.DB, engine string) *Store {
	s := &Store{
		db:       db,
		postgres: database.IsPostgres(engine),
		dialect:  drivers.Dialect{LQ: '"', RQ: '"', UseDefaultKeyword: true},
		bindType: sqlx.QUESTION,
		lower:    database.SQLiteLower,
	}
	if s.postgres {
		s.dialect.UseIndexPlaceholders = true
		s.bindType = sqlx.DOLLAR
		s.lower = "LOWER"
	}
	return s
}

func (s *Store) repos(exec core.DBExecutor) store.Tx {
	b := base{exec: exec, dialect: &s.dialect, bindType: s.bindType, lower: s.lower}
	return store.Tx{
		Users:            &userRepository{b},
		Groups:           &groupRepository{b},
		Students:         &studentRepository{b},
		Subjects:         &subjectRepository{b},
		Grades:           &gradeRepository{b},
		ArchivedGroups:   &archivedGroupRepository{b},
		ArchivedStudents: &archivedStudentRepository{b},
		ArchivedGrades:   &archivedGradeRepository{b},
	}
}

// RunInTx runs fn in a SERIALIZABLE transaction on PostgreSQL. SQLite transactions are serializable.
func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Tx) error) (err error) {
	var opts *sql.TxOptions
	if s.postgres {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}

	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(s.repos(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// View runs fn in a read-only snapshot on PostgreSQL, and on the single SQLite connection otherwise.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if !s.postgres {
		return fn(s.repos(s.db))
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return errors.Wrap(err, "beginning read-only transaction")
	}
	defer func() { _ = tx.Rollback() }()
	return fn(s.repos(tx))
}

func (s *Store) Close() error {
	return s.db.Close()
}
