package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidate_Golden(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{
			name:     "text_valid",
			args:     []string{"testdata/content/valid.yaml"},
			wantCode: ExitSuccess,
		},
		{
			name: "text_mixed",
			args: []string{
				"testdata/content/valid.yaml",
				"testdata/content/broken.yaml",
				"testdata/content/warn.yaml",
				"testdata/content/unknown_field.json",
			},
			wantCode: ExitFailure,
		},
		{
			name:     "text_strict",
			args:     []string{"--strict", "testdata/content/warn.yaml"},
			wantCode: ExitFailure,
		},
		{
			name:     "json_report",
			args:     []string{"--format", "json", "testdata/content/valid.yaml", "testdata/content/broken.yaml"},
			wantCode: ExitFailure,
		},
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, tt.args...)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			g.Assert(t, tt.name, []byte(out))
		})
	}
}

func TestValidate_JSONParses(t *testing.T) {
	out, err := runCommand(t, "--format", "json", "--strict", "testdata/content/warn.yaml")
	require.Error(t, err)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Valid)
	assert.True(t, report.Strict)
	require.Len(t, report.Files, 1)
	assert.Equal(t, []string{"no story is unlocked at level 1"}, report.Files[0].Warnings)
	assert.Empty(t, report.Files[0].Errors)
}

func TestValidate_MissingFile(t *testing.T) {
	res := ValidateFile("testdata/content/missing.yaml", false)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "LOAD_ERROR", res.Errors[0].Code)
}

func TestValidate_UnsupportedExtension(t *testing.T) {
	res := ValidateFile("testdata/golden/text_valid.golden", false)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "unsupported content file extension")
}

func TestValidate_BadFlags(t *testing.T) {
	_, err := runCommand(t, "--format", "xml", "testdata/content/valid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = runCommand(t)
	assert.Error(t, err)
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.Flags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	strictFlag := cmd.Flags().Lookup("strict")
	require.NotNil(t, strictFlag)
	assert.Equal(t, "false", strictFlag.DefValue)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
}
