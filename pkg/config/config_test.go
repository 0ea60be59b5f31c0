package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forms.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[server]
listen = ":9090"

[defaults]
credentials = "sa.json"
call_timeout = "5s"

[[forms]]
id = "signups"
spreadsheet_id = "abc"
sheet_name = "Signups"
header_range = "A1:J1"
submission_id_header = "Submission ID"
verbose = true

[[forms]]
id = "feedback"
spreadsheet_id = "def"
sheet_name = "Feedback"
header_range = "B2:F2"
credentials = "other.json"
`)

	f, err := Load(path)
	require.NoError(t, err)
	c := f.Config
	assert.Equal(t, ":9090", c.Server.Listen)
	require.NotNil(t, c.Defaults.RequestsPerMinute)
	require.NotNil(t, c.Defaults.MaxRetries)
	assert.Equal(t, 60, *c.Defaults.RequestsPerMinute)
	assert.Equal(t, 5, *c.Defaults.MaxRetries)

	opts, err := c.SheetOptions()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, opts.CallTimeout)
	assert.Equal(t, 60, opts.RequestsPerMinute)

	signups, ok := c.Form("signups")
	require.True(t, ok)
	sc := signups.SheetConfig()
	assert.Equal(t, "abc", sc.SpreadsheetID)
	assert.Equal(t, "sa.json", sc.CredentialsPath)
	assert.Equal(t, "Signups", sc.SheetName)
	assert.Equal(t, "A1:J1", sc.HeaderRange)
	assert.Equal(t, "Submission ID", sc.SubmissionIDHeader)
	assert.True(t, sc.Verbose)

	feedback, ok := c.Form("feedback")
	require.True(t, ok)
	assert.Equal(t, "other.json", feedback.SheetConfig().CredentialsPath)

	_, ok = c.Form("missing")
	assert.False(t, ok)
}

func TestLoadExplicitZeroes(t *testing.T) {
	path := writeConfig(t, `
[defaults]
credentials = "sa.json"
requests_per_minute = 0
max_retries = 0

[[forms]]
id = "signups"
spreadsheet_id = "abc"
sheet_name = "Signups"
header_range = "A1:C1"
`)

	f, err := Load(path)
	require.NoError(t, err)
	opts, err := f.Config.SheetOptions()
	require.NoError(t, err)
	assert.Equal(t, 0, opts.RequestsPerMinute)
	assert.Equal(t, 0, opts.MaxRetries)
}

func TestLoadEnvironmentFallbacks(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")
	t.Setenv("SPREADSHEET_ID", "from-env")
	path := writeConfig(t, `
[[forms]]
id = "signups"
sheet_name = "Signups"
header_range = "A1:C1"
`)

	f, err := Load(path)
	require.NoError(t, err)
	form, _ := f.Config.Form("signups")
	assert.Equal(t, "from-env", form.SpreadsheetID)
	assert.Equal(t, "/secrets/sa.json", form.Credentials)
	assert.Equal(t, ":8080", f.Config.Server.Listen)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("SPREADSHEET_ID", "")
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "no forms",
			body: `[server]
listen = ":1"`,
			want: []string{"no forms configured"},
		},
		{
			name: "missing fields",
			body: `[[forms]]
header_range = "A1:C2"`,
			want: []string{"id is required", "spreadsheet_id is required", "sheet_name is required", "no credentials file", "single row"},
		},
		{
			name: "duplicate id and bad timeout",
			body: `[defaults]
credentials = "sa.json"
call_timeout = "soon"
max_retries = -1

[[forms]]
id = "a"
spreadsheet_id = "x"
sheet_name = "S"
header_range = "A1:B1"

[[forms]]
id = "a"
spreadsheet_id = "x"
sheet_name = "S"
header_range = "A1:B1"`,
			want: []string{"duplicate id", "call_timeout", "max_retries must not be negative"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestSaveExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms.toml")
	f := &File{Filename: path, Config: Example()}
	require.NoError(t, f.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	want := Example()
	want.Forms[0].Credentials = "credentials.json"
	assert.Equal(t, want, loaded.Config)
}
