package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/apps/shared"
	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/archiving"
	blobsvc "github.com/trezcool/registro/services/blob"
	"github.com/trezcool/registro/storage/database"
	dummydb "github.com/trezcool/registro/storage/database/dummy"
	testutil "github.com/trezcool/registro/tests"
)

func setup(t *testing.T) (*commandLine, *dummydb.DB, *blobsvc.FSStore) {
	t.Helper()

	// set up DB
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	blobs, err := blobsvc.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() failed: %v", err)
	}

	// start CLI
	archiver := &archiving.Archiver{NowFunc: testutil.Clock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), time.Second)}
	return &commandLine{
		db:         &shared.Database{Engine: database.EngineMemory, Store: db},
		archiveSvc: archiving.NewService(archiving.Deps{Store: db, Archiver: archiver}),
		blobStore:  func(context.Context) (core.BlobStore, error) { return blobs, nil },
		out:        io.Discard,
	}, db, blobs
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runTests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if errors.Cause(err) != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	runMigrationsFunc = func(_ *shared.Database, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runTests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	})
}

func Test_commandLine_migrateMemory(t *testing.T) {
	db, _ := dummydb.Open()
	d := &shared.Database{Engine: database.EngineMemory, Store: db}
	if err := d.RunMigrations("up"); err == nil {
		t.Error("RunMigrations() on the memory engine = nil; want an error")
	}
}

func Test_commandLine_archive(t *testing.T) {
	cli, db, _ := setup(t)
	school := testutil.Seed(t, db, 2, 2, 2)
	grp1, grp2 := school.Groups[0], school.Groups[1]
	loner := school.Students[grp2.ID][0]
	grade := school.Grades[school.Students[grp2.ID][1].ID][0]

	id := func(n int64) string { return strconv.FormatInt(n, 10) }

	runTests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "help", args: []string{"archive-group", "-h"}, wantErr: errHelp},
		{name: "no id", args: []string{"archive-group", "-by", "dean", "-reason", "closed"}, wantErrStr: "-id: a positive record ID is required"},
		{name: "no actor", args: []string{"archive-group", "-id", id(grp1.ID), "-reason", "closed"}, wantErrStr: "archiving actor is required"},
		{name: "unknown group", args: []string{"archive-group", "-id", "999", "-by", "dean", "-reason", "closed"}, wantErr: academic.ErrGroupNotFound},
		{name: "group", args: []string{"archive-group", "-id", id(grp1.ID), "-by", "dean", "-reason", "closed"}},
		{name: "student", args: []string{"archive-student", "-id", id(loner.ID), "-by", "registrar", "-reason", "transferred"}},
		{name: "grade", args: []string{"archive-grade", "-id", id(grade.ID), "-by", "teacher", "-reason", "appeal"}},
		{name: "stats", args: []string{"stats"}},
	})

	stats, err := cli.archiveSvc.GetArchiveStatistics(context.Background())
	if err != nil {
		t.Fatalf("GetArchiveStatistics() failed: %v", err)
	}
	// group 1: 2 students, 4 grades; the loner & its 2 grades; one grade of group 2
	if stats.TotalGroups != 1 || stats.TotalStudents != 3 || stats.TotalGrades != 7 {
		t.Errorf("stats = %+v; want 1/3/7", stats)
	}
}

func Test_commandLine_stats(t *testing.T) {
	cli, _, _ := setup(t)
	var out bytes.Buffer
	cli.out = &out

	if err := cli.run([]string{"admin", "stats"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	var stats archive.Statistics
	if err := json.Unmarshal(out.Bytes(), &stats); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", out.String(), err)
	}
	if stats != (archive.Statistics{}) {
		t.Errorf("stats = %+v; want an empty archive", stats)
	}
}

func Test_commandLine_purge(t *testing.T) {
	cli, db, _ := setup(t)
	school := testutil.Seed(t, db, 1, 1, 3)
	std := school.Students[school.Groups[0].ID][0]
	if _, err := cli.archiveSvc.ArchiveStudent(context.Background(), std.ID, "registrar", "left"); err != nil {
		t.Fatalf("ArchiveStudent() failed: %v", err)
	}
	grds, _ := cli.archiveSvc.ListArchivedGrades(context.Background())
	stds, _ := cli.archiveSvc.ListArchivedStudents(context.Background())
	id := func(n int64) string { return strconv.FormatInt(n, 10) }

	var answer string
	isTerminal := true
	isTerminalFunc = func(int) bool { return isTerminal }
	readLineFunc = func() (string, error) { return answer, nil }

	tests := []struct {
		cliTest
		terminal bool
		answer   string
	}{
		{cliTest: cliTest{name: "unknown kind", args: []string{"purge", "-kind", "lol", "-id", "1"}, wantErrStr: "-kind: must be one of group, student or grade"}},
		{cliTest: cliTest{name: "not a terminal", args: []string{"purge", "-kind", "grade", "-id", id(grds[0].ID)}, wantErr: errConfirmationRequired}},
		{cliTest: cliTest{name: "declined", args: []string{"purge", "-kind", "grade", "-id", id(grds[0].ID)}, wantErr: errAborted}, terminal: true, answer: "n\n"},
		{cliTest: cliTest{name: "confirmed", args: []string{"purge", "-kind", "grade", "-id", id(grds[0].ID)}}, terminal: true, answer: "YES\n"},
		{cliTest: cliTest{name: "already purged", args: []string{"purge", "-kind", "grade", "-id", id(grds[0].ID), "-yes"}, wantErr: archive.ErrNotFound}},
		{cliTest: cliTest{name: "forced", args: []string{"purge", "-kind", "student", "-id", id(stds[0].ID), "-yes"}}},
	}
	for _, tt := range tests {
		isTerminal, answer = tt.terminal, tt.answer
		runTests(t, cli, []cliTest{tt.cliTest})
	}

	stats, _ := cli.archiveSvc.GetArchiveStatistics(context.Background())
	if stats.TotalStudents != 0 || stats.TotalGrades != 2 {
		t.Errorf("stats = %+v; want no student and 2 grades left", stats)
	}
}

func Test_commandLine_export(t *testing.T) {
	cli, db, blobs := setup(t)
	school := testutil.Seed(t, db, 1, 2, 1)
	if _, err := cli.archiveSvc.ArchiveStudentGroup(context.Background(), school.Groups[0].ID, "dean", "closed"); err != nil {
		t.Fatalf("ArchiveStudentGroup() failed: %v", err)
	}

	if err := cli.run([]string{"admin", "export", "-key", "exports/june.json"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	rc, err := blobs.Get(context.Background(), "exports/june.json")
	if err != nil {
		t.Fatalf("blobs.Get() failed: %v", err)
	}
	defer rc.Close()
	var exp archiving.Export
	if err = json.NewDecoder(rc).Decode(&exp); err != nil {
		t.Fatalf("decoding export failed: %v", err)
	}
	if len(exp.Groups) != 1 || len(exp.Students) != 2 || len(exp.Grades) != 2 {
		t.Errorf("export has %d/%d/%d records; want 1/2/2", len(exp.Groups), len(exp.Students), len(exp.Grades))
	}
	if exp.Statistics.TotalGrades != 2 {
		t.Errorf("export statistics = %+v", exp.Statistics)
	}
}
