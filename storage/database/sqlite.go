package database

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// SQLiteLower is the SQL function folding text to lower case on SQLite.
// The built-in LOWER only folds ASCII letters.
const SQLiteLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(SQLiteLower, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default: // NULL & numbers
		return v, nil
	}
}
