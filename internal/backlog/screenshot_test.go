package backlog_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bouaris/ticketflow/internal/backlog"
)

func Test_ExtractScreenshots_Reads_Timestamp_When_Filename_Carries_One(t *testing.T) {
	t.Parallel()

	md := "text\n" +
		"![login](screenshots/BUG-001_1706123456789.png)\n" +
		"![menu](shots/menu_20240115-093000.jpg)\n" +
		"![](plain.png)\n"

	got := backlog.ExtractScreenshots(md, fixedNow)

	want := []backlog.Screenshot{
		{
			Filename:  "BUG-001_1706123456789.png",
			Path:      "screenshots/BUG-001_1706123456789.png",
			Alt:       "login",
			Timestamp: time.UnixMilli(1706123456789).UTC(),
		},
		{
			Filename:  "menu_20240115-093000.jpg",
			Path:      "shots/menu_20240115-093000.jpg",
			Alt:       "menu",
			Timestamp: time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC),
		},
		{
			Filename:  "plain.png",
			Path:      "plain.png",
			Timestamp: fixedNow,
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("screenshots mismatch (-want +got):\n%s", diff)
	}
}

func Test_ExtractScreenshots_Returns_Nil_When_No_Image(t *testing.T) {
	t.Parallel()

	assert.Nil(t, backlog.ExtractScreenshots("[link](a.png)\n", fixedNow))
}

// Contract: invalid metadata values are dropped and reported, never fatal.
func Test_Parse_Reports_Warning_When_Metadata_Value_Is_Invalid(t *testing.T) {
	t.Parallel()

	doc := "## 1. Bugs\n\n### BUG-001 | X\n**Severity:** P9\n**Effort:** huge\n**Priority:** whatever\n"

	var warnings []backlog.Warning

	parsed := mustParse(t, doc, backlog.WithWarnings(func(w backlog.Warning) {
		warnings = append(warnings, w)
	}))

	item := itemByID(t, parsed, "BUG-001")
	assert.Empty(t, item.Severity)
	assert.Empty(t, item.Effort)
	assert.Equal(t, "whatever", item.Priority)

	require.Len(t, warnings, 2)
	assert.Equal(t, backlog.Warning{Kind: backlog.WarnInvalidSeverity, Line: 4, ItemID: "BUG-001", Value: "P9"}, warnings[0])
	assert.Equal(t, backlog.Warning{Kind: backlog.WarnInvalidEffort, Line: 5, ItemID: "BUG-001", Value: "huge"}, warnings[1])
	assert.Equal(t, `line 4: BUG-001 invalid severity: "P9"`, warnings[0].String())

	assert.Equal(t, doc, backlog.Serialize(parsed), "dropped values stay in the raw block")
}

func Test_Parse_Extracts_Code_When_Metadata_Value_Has_Trailing_Text(t *testing.T) {
	t.Parallel()

	doc := "## 1. Bugs\n\n### BUG-001 | X\n**Sévérité:** P2 - Moyenne\n**Effort:** XL (two weeks)\n"

	item := itemByID(t, mustParse(t, doc), "BUG-001")
	assert.Equal(t, "P2", item.Severity)
	assert.Equal(t, "XL", item.Effort)
	assert.True(t, backlog.IsValidSeverity(item.Severity))
	assert.True(t, backlog.IsValidEffort(item.Effort))
	assert.False(t, backlog.IsValidEffort("XXL"))
}
