package cli

import (
	"context"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/Bouaris/ticketflow/internal/config"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(sess *session) *Command {
	fs := flag.NewFlagSet("print-config", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print the merged config as JSON")

	return &Command{
		Flags: fs,
		Usage: "print-config [--json]",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 0, ""); err != nil {
				return err
			}

			return execPrintConfig(o, sess.cfg, *asJSON)
		},
	}
}

func execPrintConfig(o *IO, cfg config.Config, asJSON bool) error {
	if asJSON {
		formatted, err := config.Format(cfg)
		if err != nil {
			return err
		}

		o.Println(formatted)

		return nil
	}

	o.Println("effective_cwd=" + cfg.EffectiveCwd)
	o.Println("backlog_file=" + cfg.BacklogFileAbs)

	if len(cfg.CustomTypes) > 0 {
		o.Println("custom_types=" + strings.Join(cfg.CustomTypes, ","))
	}

	o.Println("render_style=" + cfg.RenderStyle)
	o.Println("word_wrap=" + strconv.Itoa(cfg.Wrap()))

	o.Println("")
	o.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("(defaults only)")

		return nil
	}

	if cfg.Sources.Global != "" {
		o.Println("global_config=" + cfg.Sources.Global)
	}

	if cfg.Sources.Project != "" {
		o.Println("project_config=" + cfg.Sources.Project)
	}

	return nil
}
