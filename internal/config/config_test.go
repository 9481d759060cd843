package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bouaris/ticketflow/internal/backlog"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func Test_Load_Returns_Defaults_When_No_File_Exists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := Load(Input{WorkDirOverride: dir, Env: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, DefaultBacklogFile, cfg.BacklogFile)
	assert.Equal(t, filepath.Join(dir, DefaultBacklogFile), cfg.BacklogFileAbs)
	assert.Equal(t, DefaultRenderStyle, cfg.RenderStyle)
	assert.Equal(t, DefaultWordWrap, cfg.Wrap())
	assert.Equal(t, Sources{}, cfg.Sources)
}

// Contract: global < project < CLI, custom types accumulate.
func Test_Load_Merges_Sources_When_All_Levels_Are_Set(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	writeFile(t, filepath.Join(xdg, "backlog", "config.json"), `{
		// user defaults
		"backlog_file": "global.md",
		"custom_types": ["ops"],
		"render_style": "dark",
	}`)
	writeFile(t, filepath.Join(dir, FileName), `{"backlog_file": "docs/BACKLOG.md", "custom_types": ["OPS", "sec"], "word_wrap": 0}`)

	cfg, err := Load(Input{WorkDirOverride: dir, Env: map[string]string{"XDG_CONFIG_HOME": xdg}})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "docs", "BACKLOG.md"), cfg.BacklogFileAbs)
	assert.Equal(t, []string{"ops", "sec"}, cfg.CustomTypes)
	assert.Equal(t, []backlog.ItemType{"OPS", "SEC"}, cfg.ItemTypes())
	assert.Equal(t, "dark", cfg.RenderStyle)
	assert.Equal(t, 0, cfg.Wrap())
	assert.Equal(t, filepath.Join(xdg, "backlog", "config.json"), cfg.Sources.Global)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.Sources.Project)

	override := "/abs/other.md"

	cfg, err = Load(Input{WorkDirOverride: dir, BacklogFileOverride: &override, Env: map[string]string{"XDG_CONFIG_HOME": xdg}})
	require.NoError(t, err)
	assert.Equal(t, "/abs/other.md", cfg.BacklogFileAbs)
}

func Test_Load_Uses_Home_When_XDG_Is_Unset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	home := t.TempDir()

	writeFile(t, filepath.Join(home, ".config", "backlog", "config.json"), `{"backlog_file": "home.md"}`)

	cfg, err := Load(Input{WorkDirOverride: dir, Env: map[string]string{"HOME": home}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "home.md"), cfg.BacklogFileAbs)
}

func Test_Load_Reads_Explicit_File_When_Config_Path_Given(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, FileName), `{"backlog_file": "project.md"}`)
	writeFile(t, filepath.Join(dir, "custom.json"), `{"backlog_file": "custom.md"}`)

	cfg, err := Load(Input{WorkDirOverride: dir, ConfigPath: "custom.json"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom.md"), cfg.BacklogFileAbs)
	assert.Equal(t, filepath.Join(dir, "custom.json"), cfg.Sources.Project)
}

func Test_Load_Returns_Error_When_Config_Is_Invalid(t *testing.T) {
	t.Parallel()

	empty := ""

	tests := []struct {
		name     string
		project  string
		input    Input
		wantErr  error
		contains string
	}{
		{name: "missing explicit file", input: Input{ConfigPath: "nope.json"}, wantErr: ErrFileNotFound},
		{name: "broken json", project: `{broken`, wantErr: ErrInvalid, contains: "invalid JSONC"},
		{name: "wrong field type", project: `{"word_wrap": "wide"}`, wantErr: ErrInvalid, contains: "invalid JSON"},
		{name: "explicit empty file", project: `{"backlog_file": ""}`, wantErr: ErrBacklogFileEmpty},
		{name: "empty override", input: Input{BacklogFileOverride: &empty}, wantErr: ErrBacklogFileEmpty},
		{name: "negative wrap", project: `{"word_wrap": -1}`, wantErr: ErrWordWrap},
		{name: "bad custom type", project: `{"custom_types": ["1x"]}`, wantErr: ErrCustomType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tt.project != "" {
				writeFile(t, filepath.Join(dir, FileName), tt.project)
			}

			input := tt.input
			input.WorkDirOverride = dir

			_, err := Load(input)
			require.ErrorIs(t, err, tt.wantErr)

			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func Test_Format_Omits_Resolved_Fields_When_Printing(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.EffectiveCwd = "/somewhere"

	out, err := Format(cfg)
	require.NoError(t, err)

	assert.Contains(t, out, `"backlog_file": "BACKLOG.md"`)
	assert.Contains(t, out, `"word_wrap": 100`)
	assert.NotContains(t, out, "somewhere")
}
