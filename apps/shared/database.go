package shared

import (
	"database/sql"
	"log"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/store"
	"github.com/trezcool/registro/storage/database"
	dummydb "github.com/trezcool/registro/storage/database/dummy"
	boiledrepos "github.com/trezcool/registro/storage/database/sqlboiler"
)

var errNoSQLDatabase = errors.New("the memory engine has no SQL database")

// Database is the storage an app runs on.
type Database struct {
	Engine string
	SQL    *sql.DB // nil with the memory engine
	Store  store.Store
}

// OpenDatabase opens the configured database, creating it first on PostgreSQL.
// Pending migrations are applied when `migrate` is set.
func OpenDatabase(conf *core.Config, migrate bool, migrationLog *log.Logger) (*Database, error) {
	engine := conf.Database.Engine
	if engine == database.EngineMemory {
		db, err := dummydb.Open()
		if err != nil {
			return nil, err
		}
		return &Database{Engine: engine, Store: db}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if migrationLog != nil {
		database.SetMigrationLogger(migrationLog)
	}
	if migrate {
		if err = database.Migrate(db, engine); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Database{Engine: engine, SQL: db, Store: boiledrepos.NewStore(db, engine)}, nil
}

// RunMigrations runs a goose command on the SQL database.
func (d *Database) RunMigrations(command string, args ...string) error {
	if d.SQL == nil {
		return errNoSQLDatabase
	}
	return database.RunMigrations(d.SQL, d.Engine, command, args...)
}

func (d *Database) Close() error {
	if d.SQL == nil {
		return nil
	}
	return d.SQL.Close()
}
