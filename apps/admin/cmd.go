package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/registro/apps/shared"
	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/archiving"
)

var (
	isTerminalFunc = term.IsTerminal // mockable
	readLineFunc   = func() (string, error) { // mockable
		return bufio.NewReader(os.Stdin).ReadString('\n')
	}

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *shared.Database
	archiveSvc *archiving.Service
	blobStore  func(ctx context.Context) (core.BlobStore, error)
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                              - run a migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version)")
	fmt.Fprintln(cli.out, "  archive-grade -id ID -by ACTOR -reason REASON       - archive a grade, keeping it live")
	fmt.Fprintln(cli.out, "  archive-student -id ID -by ACTOR -reason REASON     - archive a student and its grades")
	fmt.Fprintln(cli.out, "  archive-group -id ID -by ACTOR -reason REASON       - archive a student group, its students and their grades")
	fmt.Fprintln(cli.out, "  stats                                               - print the archive statistics")
	fmt.Fprintln(cli.out, "  purge -kind group|student|grade -id ID [-yes]       - delete an archived record for good")
	fmt.Fprintln(cli.out, "  export [-key KEY]                                   - upload the whole archive as JSON to the blob store")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse parses `args` with `fs`, turning help requests into errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch cmd := args[1]; cmd {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "archive-grade", "archive-student", "archive-group":
		archiveCmd := cli.newFlagSet(cmd)
		id := archiveCmd.Int64("id", 0, "The ID of the live record to archive.")
		actor := archiveCmd.String("by", "", "Who archives the record.")
		reason := archiveCmd.String("reason", "", "Why the record is archived.")
		if err := parse(archiveCmd, args[2:]); err != nil {
			return err
		}
		if *id <= 0 {
			archiveCmd.Usage()
			return shared.NewArgumentError("id", "a positive record ID is required")
		}
		return cli.archive(ctx, cmd, *id, *actor, *reason)
	case "stats":
		return cli.stats(ctx)
	case "purge":
		purgeCmd := cli.newFlagSet(cmd)
		kind := purgeCmd.String("kind", "", "The kind of archived record: group, student or grade.")
		id := purgeCmd.Int64("id", 0, "The ID of the archived record.")
		yes := purgeCmd.Bool("yes", false, "Do not ask for confirmation.")
		if err := parse(purgeCmd, args[2:]); err != nil {
			return err
		}
		if *id <= 0 {
			purgeCmd.Usage()
			return shared.NewArgumentError("id", "a positive record ID is required")
		}
		return cli.purge(ctx, *kind, *id, *yes)
	case "export":
		exportCmd := cli.newFlagSet(cmd)
		key := exportCmd.String("key", "", "The object key; defaults to archive/<timestamp>-<uuid>.json.")
		if err := parse(exportCmd, args[2:]); err != nil {
			return err
		}
		return cli.export(ctx, *key)
	default:
		cli.printUsage()
		return errHelp
	}
}
