package cli_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Bouaris/ticketflow/internal/cli"
)

type exportedCriterion struct {
	Checked bool   `json:"checked" yaml:"checked"`
	Text    string `json:"text"    yaml:"text"`
}

type exportedItem struct {
	ID       string              `json:"id"                    yaml:"id"`
	Type     string              `json:"type"                  yaml:"type"`
	Section  string              `json:"section"               yaml:"section"`
	Title    string              `json:"title"                 yaml:"title"`
	Emoji    string              `json:"emoji,omitempty"       yaml:"emoji,omitempty"`
	Severity string              `json:"severity,omitempty"    yaml:"severity,omitempty"`
	Effort   string              `json:"effort,omitempty"      yaml:"effort,omitempty"`
	Criteria []exportedCriterion `json:"criteria,omitempty"    yaml:"criteria,omitempty"`
	Raw      string              `json:"rawMarkdown,omitempty" yaml:"rawMarkdown,omitempty"`
}

type exportedDoc struct {
	Items []exportedItem `json:"items" yaml:"items"`
}

func Test_Export_Writes_JSON_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog)

	var doc exportedDoc
	require.NoError(t, json.Unmarshal([]byte(c.MustRun("export")), &doc))

	want := []exportedItem{
		{
			ID: "BUG-001", Type: "BUG", Section: "Bugs", Title: "Login crash", Severity: "P0", Effort: "S",
			Criteria: []exportedCriterion{{Text: "App opens"}, {Checked: true, Text: "No crash"}},
		},
		{ID: "BUG-002", Type: "BUG", Section: "Bugs", Title: "Slow search", Emoji: "🐛", Severity: "P2"},
		{ID: "CT-001", Type: "CT", Section: "Court terme", Title: "Export CSV", Effort: "M"},
	}

	if diff := cmp.Diff(want, doc.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func Test_Export_Includes_Blocks_When_Raw_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog)

	var doc exportedDoc
	require.NoError(t, yaml.Unmarshal([]byte(c.MustRun("export", "--format", "yaml", "--raw")), &doc))

	require.Len(t, doc.Items, 3)
	assert.Equal(t, "### CT-001 | Export CSV\n**Effort:** M\n\n", doc.Items[2].Raw)
	assert.Contains(t, c.MustRun("export", "--format", "YAML"), "- id: BUG-001\n")
}

func Test_Export_Writes_Sanitized_HTML_When_Format_Is_HTML(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog + "\n## 4. Roadmap\n\n<script>alert(1)</script>\n")

	stdout := c.MustRun("export", "--format", "html")

	cli.AssertContains(t, stdout, "<h3")
	cli.AssertContains(t, stdout, "Login crash")
	cli.AssertContains(t, stdout, `type="checkbox"`)
	cli.AssertContains(t, stdout, "<table>")
	cli.AssertNotContains(t, stdout, "<script")
}

func Test_Export_Fails_When_Format_Is_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteBacklog(demoBacklog)

	cli.AssertContains(t, c.MustFail("export", "--format", "csv"), `unknown format: "csv"`)
}
