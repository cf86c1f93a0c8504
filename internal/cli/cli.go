// Package cli implements the launcher command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	launcher "github.com/goliatone/go-launcher"
	"github.com/goliatone/go-launcher/internal/config"
	"github.com/goliatone/go-launcher/pkg/bootstrap"
	"github.com/goliatone/go-launcher/pkg/persist"
	"github.com/goliatone/go-launcher/pkg/state"
	"github.com/goliatone/go-launcher/schema"
	"github.com/rs/zerolog"
)

const usage = `usage: launcher <command> [flags]

commands:
  serve                 run the primary store and the bootstrap server
  snapshot [-mode m]    print the bootstrap snapshot of a running primary
  launch <button>       start the process of a launcher button
  backup                back up the game settings files
  backups               list backups
  restore <id>          restore a backup
  delete-backup <id>    delete a backup
  theme <name>          set the persisted user theme
  schema [-state mode]  print the JSON Schema of the persisted record
`

// Run executes the command in args. Logs go to stderr; command output goes
// to stdout.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg.Level())
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return usageError("missing command")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "serve":
		return runServe(ctx, cfg, rest, logger)
	case "snapshot":
		return runSnapshot(ctx, cfg, rest, stdout)
	case "schema":
		return runSchema(rest, stdout)
	case "theme":
		return runTheme(ctx, cfg, rest, stdout)
	case "launch", "backup", "backups", "restore", "delete-backup":
		p, err := openPrimary(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer p.Close()
		return runWithPrimary(ctx, p, command, rest, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return usageError("unknown command %q", command)
	}
}

func runServe(ctx context.Context, cfg config.Config, args []string, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.BootstrapAddr, "bootstrap listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := openPrimary(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	server, err := bootstrap.Listen(*addr, p.store, logger)
	if err != nil {
		return err
	}
	logger.Info().Str("addr", server.Addr()).Msg("launcher primary serving")
	return server.Serve(ctx)
}

func runSnapshot(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	addr := fs.String("addr", cfg.BootstrapAddr, "bootstrap address")
	mode := fs.String("mode", string(launcher.ModePartial), "store mode (full or partial)")
	timeout := fs.Duration("timeout", 5*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := bootstrap.Dial(*addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	resp, err := client.Fetch(ctx, launcher.Mode(*mode))
	if err != nil {
		return err
	}
	return writeJSON(stdout, resp)
}

func runSchema(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	mode := fs.String("state", "", "print the root state schema of a mode instead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var doc map[string]any
	var err error
	if *mode != "" {
		doc, err = schema.RootState(launcher.Mode(*mode))
	} else {
		doc, err = schema.PersistedRecord()
	}
	if err != nil {
		return err
	}
	data, err := schema.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}

func runTheme(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return usageError("launcher theme <name>")
	}
	backend, closer, err := cfg.OpenBackend()
	if err != nil {
		return err
	}
	defer closer.Close()

	theme := strings.TrimSpace(args[0])
	_, meta, err := persist.Update(ctx, backend, state.Meta{}, func(record *launcher.PersistedRecord) error {
		record.UserSettings.Theme = theme
		return nil
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "theme set to %s (snapshot %s)\n", theme, meta.SnapshotID)
	return err
}

func runWithPrimary(ctx context.Context, p *primary, command string, args []string, stdout io.Writer) error {
	switch command {
	case "launch":
		if len(args) != 1 {
			return usageError("launcher launch <button>")
		}
		run, err := p.launcher.Launch(ctx, args[0], nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "started %s (pid %d)\n", run.Command.Path, run.PID)
		select {
		case <-run.Done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if run.Err != nil {
			return run.Err
		}
		_, err = fmt.Fprintf(stdout, "exited with code %d\n", run.ExitCode)
		return err
	case "backup":
		info, err := p.backups.Create(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "created %s (%d files)\n", info.ID, len(info.Files))
		return err
	case "backups":
		return writeBackups(stdout, p.store.GetState().Main.Backups)
	case "restore":
		if len(args) != 1 {
			return usageError("launcher restore <id>")
		}
		info, err := p.backups.Restore(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "restored %s\n", info.ID)
		return err
	case "delete-backup":
		if len(args) != 1 {
			return usageError("launcher delete-backup <id>")
		}
		if err := p.backups.Delete(ctx, args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(stdout, "deleted %s\n", args[0])
		return err
	}
	return errors.New("cli: unreachable command " + command)
}

func writeBackups(w io.Writer, backups []launcher.BackupInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tFILES")
	for _, info := range backups {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", info.ID, info.CreatedAt.Format(time.RFC3339), len(info.Files))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
