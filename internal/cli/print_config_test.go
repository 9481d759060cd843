package cli_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bouaris/ticketflow/internal/cli"
)

func Test_PrintConfig_Shows_Defaults_When_No_Config_Exists(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun("print-config")

	want := "effective_cwd=" + c.Dir + "\n" +
		"backlog_file=" + c.BacklogPath() + "\n" +
		"render_style=auto\n" +
		"word_wrap=100\n" +
		"\n" +
		"# sources\n" +
		"(defaults only)\n"
	assert.Equal(t, want, stdout)
}

func Test_PrintConfig_Merges_Files_When_Global_And_Project_Exist(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.Env["XDG_CONFIG_HOME"] = filepath.Join(c.Dir, "xdg")
	c.WriteFile("xdg/backlog/config.json", `{
		// shared defaults
		"custom_types": ["ops"],
		"render_style": "dark",
	}`)
	c.WriteFile(".backlog.json", `{"backlog_file": "docs/plan.md", "custom_types": ["infra"]}`)

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "backlog_file="+filepath.Join(c.Dir, "docs", "plan.md")+"\n")
	cli.AssertContains(t, stdout, "custom_types=ops,infra\n")
	cli.AssertContains(t, stdout, "render_style=dark\n")
	cli.AssertContains(t, stdout, "global_config="+filepath.Join(c.Dir, "xdg", "backlog", "config.json")+"\n")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, ".backlog.json")+"\n")

	stdout = c.MustRun("-f", "other.md", "print-config")
	cli.AssertContains(t, stdout, "backlog_file="+filepath.Join(c.Dir, "other.md")+"\n")
}

func Test_PrintConfig_Uses_Explicit_File_When_Config_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".backlog.json", `{"word_wrap": 40}`)
	c.WriteFile("alt.json", `{"word_wrap": 60}`)

	stdout := c.MustRun("-c", "alt.json", "print-config")

	cli.AssertContains(t, stdout, "word_wrap=60\n")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, "alt.json")+"\n")

	cli.AssertContains(t, c.MustFail("--config", "missing.json", "print-config"), "config file not found: missing.json")
}

func Test_PrintConfig_Fails_When_Config_Is_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".backlog.json", `{"backlog_file": ""}`)

	cli.AssertContains(t, c.MustFail("print-config"), "backlog-file cannot be empty")

	c.WriteFile(".backlog.json", `{"word_wrap": -1}`)
	cli.AssertContains(t, c.MustFail("print-config"), "word_wrap must be non-negative")

	c.WriteFile(".backlog.json", `{not json`)
	cli.AssertContains(t, c.MustFail("print-config"), "invalid config file")
}

func Test_PrintConfig_Prints_JSON_When_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".backlog.json", `{"custom_types": ["ops"]}`)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.MustRun("print-config", "--json")), &got))

	assert.Equal(t, "BACKLOG.md", got["backlog_file"])
	assert.Equal(t, []any{"ops"}, got["custom_types"])
}
