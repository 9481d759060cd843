package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bouaris/ticketflow/internal/backlog"
	"github.com/Bouaris/ticketflow/internal/workspace"
)

var errTestHandler = errors.New("test handler error")

const doc = "# Backlog\n\n## 1. Bugs\n\n### BUG-001 | Crash\n**Acceptance criteria:**\n- [ ] Fixed\n\n## 2. Court terme\n\n<!-- Type: CT -->\n\n"

func writeBacklog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "BACKLOG.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func Test_Load_Returns_ErrNotFound_When_File_Is_Missing(t *testing.T) {
	t.Parallel()

	_, err := workspace.Load(filepath.Join(t.TempDir(), "nope.md"))
	require.ErrorIs(t, err, workspace.ErrNotFound)
}

func Test_Load_Wraps_Parse_Error_With_Path_When_Document_Is_Invalid(t *testing.T) {
	t.Parallel()

	path := writeBacklog(t, "## 1. Bugs\n\n### XYZ-001 | Unknown\n")

	_, err := workspace.Load(path)
	require.ErrorIs(t, err, backlog.ErrUnknownType)
	assert.Contains(t, err.Error(), path)
}

func Test_Update_Writes_Serialized_Backlog_When_Handler_Changes_It(t *testing.T) {
	t.Parallel()

	path := writeBacklog(t, doc)

	err := workspace.Update(path, func(b *backlog.Backlog) (*backlog.Backlog, error) {
		next, _, toggleErr := backlog.ToggleBacklogCriterion(b, "BUG-001", 0)

		return next, toggleErr
	})
	require.NoError(t, err)

	got := readFile(t, path)
	assert.Contains(t, got, "- [x] Fixed\n")
	assert.Contains(t, got, "## 2. Court terme\n\n<!-- Type: CT -->\n\n")

	loaded, err := workspace.Load(path)
	require.NoError(t, err)

	item, ok := loaded.Item("BUG-001")
	require.True(t, ok)
	assert.True(t, item.Criteria[0].Checked)
}

func Test_Update_Leaves_File_When_Handler_Fails_Or_Returns_Nil(t *testing.T) {
	t.Parallel()

	path := writeBacklog(t, doc)

	err := workspace.Update(path, func(*backlog.Backlog) (*backlog.Backlog, error) {
		return nil, errTestHandler
	})
	require.ErrorIs(t, err, errTestHandler)
	assert.Equal(t, doc, readFile(t, path))

	err = workspace.Update(path, func(*backlog.Backlog) (*backlog.Backlog, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, doc, readFile(t, path))
}

func Test_UpdateText_Returns_ErrNotFound_When_File_Is_Missing(t *testing.T) {
	t.Parallel()

	err := workspace.UpdateText(filepath.Join(t.TempDir(), "missing.md"), func(text string) (string, error) {
		return text + "x", nil
	})
	require.ErrorIs(t, err, workspace.ErrNotFound)
}

// Contract: concurrent writers are serialized, no update is lost.
func Test_Update_Keeps_All_Items_When_Writers_Run_Concurrently(t *testing.T) {
	t.Parallel()

	path := writeBacklog(t, doc)

	const writers = 8

	var wg sync.WaitGroup

	errs := make(chan error, writers)

	for range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs <- workspace.Update(path, func(b *backlog.Backlog) (*backlog.Backlog, error) {
				next, _, addErr := backlog.AddItem(b, 0, backlog.Item{
					ID:    backlog.NextID(b, backlog.TypeBug),
					Title: "Concurrent",
				})

				return next, addErr
			})
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	loaded, err := workspace.Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.ItemsByType(backlog.TypeBug), writers+1)
	assert.Equal(t, "BUG-010", backlog.NextID(loaded, backlog.TypeBug))

	_, statErr := os.Stat(filepath.Join(filepath.Dir(path), ".locks", "BACKLOG.md.lock"))
	assert.True(t, os.IsNotExist(statErr), "lock file must be removed after release")
}

// Contract: a handler result that would not parse again never reaches disk.
func Test_Update_Refuses_Write_When_Result_Does_Not_Parse(t *testing.T) {
	t.Parallel()

	path := writeBacklog(t, doc)

	err := workspace.Update(path, func(b *backlog.Backlog) (*backlog.Backlog, error) {
		item, _ := b.Item("BUG-001")
		item.RawMarkdown = "### BUG-001 | Crash\n- [ ] x\n### FOO-1 | injected\n\n"

		return backlog.ReplaceItem(b, item)
	})

	require.ErrorIs(t, err, workspace.ErrUnparsable)
	require.ErrorIs(t, err, backlog.ErrUnknownType)
	assert.Contains(t, err.Error(), path)
	assert.Equal(t, doc, readFile(t, path))
}
