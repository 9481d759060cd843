package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/Bouaris/ticketflow/internal/config"
)

var (
	errUnknownCommand   = errors.New("unknown command")
	errMissingArgument  = errors.New("missing argument")
	errTooManyArguments = errors.New("too many arguments")
	errConflictingFlags = errors.New("conflicting flags")
	errInvalidNumber    = errors.New("not a number")
	errInvalidSeverity  = errors.New("invalid severity")
	errInvalidEffort    = errors.New("invalid effort")
	errInvalidFormat    = errors.New("unknown format")
	errEmptyTitle       = errors.New("title cannot be empty")
	errSectionNotFound  = errors.New("section not found")
	errNoSectionType    = errors.New("cannot derive item type")
	errDuplicateID      = errors.New("id already used")
)

// Run is the main entry point. Returns exit code.
//
// sigCh may be nil. A signal on it cancels the command context.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("backlog", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.SetOutput(&strings.Builder{})

	workDir := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	backlogFile := globalFlags.StringP("file", "f", "", "Backlog `file` (overrides config)")
	verbose := globalFlags.BoolP("verbose", "v", false, "Log debug details to stderr")
	help := globalFlags.BoolP("help", "h", false, "Show help")

	if len(args) == 0 {
		args = []string{"backlog"}
	}

	sess := &session{stdin: stdin, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	commands := allCommands(sess)

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globalFlags, commands)

		return 1
	}

	rest := globalFlags.Args()
	if *help || len(rest) == 0 {
		printUsage(out, globalFlags, commands)

		return 0
	}

	cmd, ok := findCommand(commands, rest[0])
	if !ok {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", errUnknownCommand, rest[0]))
		fprintln(errOut)
		printUsage(errOut, globalFlags, commands)

		return 1
	}

	if *verbose {
		sess.log = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	input := config.Input{
		WorkDirOverride: *workDir,
		ConfigPath:      *configPath,
		Env:             env,
	}
	if globalFlags.Changed("file") {
		input.BacklogFileOverride = backlogFile
	}

	cfg, err := config.Load(input)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	sess.cfg = cfg
	sess.log.Debug("config loaded",
		"cwd", cfg.EffectiveCwd,
		"backlog", cfg.BacklogFileAbs,
		"global", cfg.Sources.Global,
		"project", cfg.Sources.Project,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-sigCh:
			sess.log.Debug("signal received, cancelling")
			cancel()
		case <-done:
		}
	}()

	return cmd.Run(ctx, NewIO(out, errOut), rest[1:])
}

func allCommands(sess *session) []*Command {
	return []*Command{
		LsCmd(sess),
		ShowCmd(sess),
		TypesCmd(sess),
		CheckCmd(sess),
		FmtCmd(sess),
		ToggleCmd(sess),
		SetCmd(sess),
		NewCmd(sess),
		RmCmd(sess),
		ExportCmd(sess),
		PrintConfigCmd(sess),
	}
}

func findCommand(commands []*Command, name string) (*Command, bool) {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd, true
		}
	}

	return nil, false
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globalFlags *flag.FlagSet, commands []*Command) {
	fprintln(w, "backlog - read and edit markdown backlogs")
	fprintln(w)
	fprintln(w, "Usage: backlog [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")

	var buf strings.Builder
	globalFlags.SetOutput(&buf)
	globalFlags.PrintDefaults()
	globalFlags.SetOutput(&strings.Builder{})
	_, _ = io.WriteString(w, buf.String())

	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}

	fprintln(w)
	fprintln(w, "Run 'backlog <command> --help' for command flags.")
}
