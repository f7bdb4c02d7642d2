package main

import "github.com/trezcool/registro/apps/shared"

var runMigrationsFunc = func(db *shared.Database, command string, args ...string) error { // mockable
	return db.RunMigrations(command, args...)
}

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return runMigrationsFunc(cli.db, args[0], arguments...)
}
