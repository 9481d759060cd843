package cli_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bouaris/ticketflow/internal/cli"
)

func Test_Ls_Lists_Items_In_Document_Order_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog)

	stdout := c.MustRun("ls")

	want := "BUG-001 [P0 S] - Login crash (1/2)\n" +
		"BUG-002 [P2 -] - 🐛 Slow search\n" +
		"CT-001 [- M] - Export CSV\n"
	assert.Equal(t, want, stdout)
}

func Test_Ls_Filters_Items_When_Flags_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog)

	assert.Equal(t, "BUG-001 [P0 S] - Login crash (1/2)\n", c.MustRun("ls", "--open"))
	assert.Equal(t, "CT-001 [- M] - Export CSV\n", c.MustRun("ls", "--section", "court terme"))
	assert.Equal(t, "CT-001 [- M] - Export CSV\n", c.MustRun("ls", "-s", "2"))
	assert.Equal(t, "", c.MustRun("ls", "--type", "LT"))

	stderr := c.MustFail("ls", "--section", "nope")
	cli.AssertContains(t, stderr, "section not found")
}

func Test_Ls_Shows_Table_Groups_When_Groups_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog("## 1. Bugs\n\n### BUG-010 to BUG-011 | Batch\n**Severity:** P3\n\n| ID | Description | Action |\n|---|---|---|\n| BUG-010 | a | b |\n| BUG-011 | c | d |\n")

	assert.Equal(t, "", c.MustRun("ls"))
	assert.Equal(t, "BUG-010 to BUG-011 [P3 group] - Batch (2 rows)\n", c.MustRun("ls", "--groups"))
}

func Test_Ls_Truncates_Lines_When_Word_Wrap_Is_Set(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog)
	c.WriteFile(".backlog.json", `{"word_wrap": 20}`)

	for _, line := range strings.Split(strings.TrimSpace(c.MustRun("ls")), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 20, line)
	}

	assert.Contains(t, c.MustRun("ls"), "…")
}

// Contract: duplicates are listed once, reported and make the exit code 1.
func Test_Ls_Warns_When_IDs_Are_Duplicated(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog("## 1. Bugs\n\n### BUG-001 | First\n\n### BUG-001 | Second\n")

	stdout, stderr, code := c.Run("ls")

	assert.Equal(t, 1, code)
	assert.Equal(t, "BUG-001 [- -] - First\n", stdout)
	cli.AssertContains(t, stderr, "warning: BUG-001 duplicate id")
	cli.AssertContains(t, stderr, "Second")
}

func Test_Ls_Warns_When_Metadata_Is_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog("## 1. Bugs\n\n### BUG-001 | X\n**Severity:** urgent\n")

	stdout, stderr, code := c.Run("ls")

	assert.Equal(t, 1, code)
	assert.Equal(t, "BUG-001 [- -] - X\n", stdout)
	cli.AssertContains(t, stderr, `line 4: BUG-001 invalid severity: "urgent"`)
}

func Test_Ls_Fails_When_Document_Has_Unknown_Prefix(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog("## 1. Ops\n\n### OPS-001 | Rotate keys\n")

	stderr := c.MustFail("ls")
	cli.AssertContains(t, stderr, "unknown item type")

	c.WriteFile(".backlog.json", `{"custom_types": ["ops"]}`)
	assert.Equal(t, "OPS-001 [- -] - Rotate keys\n", c.MustRun("ls"))
}

func Test_Show_Prints_Block_When_Raw_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog)

	want := "### BUG-002 | 🐛 Slow search\n**Severity:** P2 - Medium\n\n"
	assert.Equal(t, want, c.MustRun("show", "BUG-002", "--raw"))
}

func Test_Show_Renders_Block_When_Style_Is_Configured(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog)

	c.WriteFile(".backlog.json", `{"render_style": "plain", "word_wrap": 0}`)
	assert.Equal(t, "### CT-001 | Export CSV\n**Effort:** M\n", c.MustRun("show", "CT-001"))

	c.WriteFile(".backlog.json", `{"render_style": "notty"}`)
	stdout := c.MustRun("show", "BUG-001")
	cli.AssertContains(t, stdout, "Login crash")
	cli.AssertContains(t, stdout, "App opens")
}

func Test_Show_Fails_When_Item_Is_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog)

	cli.AssertContains(t, c.MustFail("show", "BUG-404"), "item not found: BUG-404")
	cli.AssertContains(t, c.MustFail("show"), "missing argument: item id")
	cli.AssertContains(t, c.MustFail("show", "BUG-001", "BUG-002"), "too many arguments: BUG-002")
}

func Test_Types_Counts_Items_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog + "\n## 4. BUG V5\n")

	stdout := c.MustRun("types")
	assert.Equal(t, "BUG      2\nCT       1\nBUG_V5   0\n", stdout)

	all := c.MustRun("types", "--all")
	cli.AssertContains(t, all, "DATA     0\n")
	cli.AssertContains(t, all, "COS      0\n")
}
