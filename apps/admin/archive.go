package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/registro/apps/shared"
)

var (
	errConfirmationRequired = errors.New("not a terminal: pass -yes to confirm")
	errAborted              = errors.New("aborted")
)

// archive runs one of the archive-* commands.
func (cli *commandLine) archive(ctx context.Context, cmd string, id int64, actor, reason string) error {
	switch cmd {
	case "archive-grade":
		snap, err := cli.archiveSvc.ArchiveGrade(ctx, id, actor, reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "grade %d archived as %d\n", id, snap.ID)
		return nil
	case "archive-student":
		rep, err := cli.archiveSvc.ArchiveStudent(ctx, id, actor, reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "student %d archived: %d student(s), %d grade(s)\n", id, rep.Students, rep.Grades)
		return nil
	default:
		rep, err := cli.archiveSvc.ArchiveStudentGroup(ctx, id, actor, reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "student group %d archived: %d group(s), %d student(s), %d grade(s)\n", id, rep.Groups, rep.Students, rep.Grades)
		return nil
	}
}

func (cli *commandLine) stats(ctx context.Context) error {
	stats, err := cli.archiveSvc.GetArchiveStatistics(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding statistics")
	}
	fmt.Fprintln(cli.out, string(data))
	return nil
}

// purge deletes an archived record for good, after asking for confirmation unless `yes` is set.
func (cli *commandLine) purge(ctx context.Context, kind string, id int64, yes bool) error {
	var deleteFunc func(context.Context, int64) error
	switch kind {
	case "group":
		deleteFunc = cli.archiveSvc.DeleteArchivedGroup
	case "student":
		deleteFunc = cli.archiveSvc.DeleteArchivedStudent
	case "grade":
		deleteFunc = cli.archiveSvc.DeleteArchivedGrade
	default:
		return shared.NewArgumentError("kind", "must be one of group, student or grade")
	}

	if !yes {
		if !isTerminalFunc(int(os.Stdin.Fd())) {
			return errConfirmationRequired
		}
		fmt.Fprintf(cli.out, "Delete archived %s %d for good? [y/N]: ", kind, id)
		answer, err := readLineFunc()
		if err != nil {
			return errors.Wrap(err, "reading confirmation")
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			return errAborted
		}
	}

	if err := deleteFunc(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "archived %s %d deleted\n", kind, id)
	return nil
}
