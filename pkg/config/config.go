package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"formsync/pkg/formsync"
	"formsync/pkg/sheets"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Listen string `toml:"listen"`
}

// Defaults apply to every form unless the form overrides them.
type Defaults struct {
	// Credentials is the service account key file. Falls back to
	// $GOOGLE_APPLICATION_CREDENTIALS.
	Credentials string `toml:"credentials"`
	// RequestsPerMinute and MaxRetries take their defaults only when absent;
	// an explicit 0 disables pacing or retries.
	RequestsPerMinute *int   `toml:"requests_per_minute,omitempty"`
	CallTimeout       string `toml:"call_timeout"`
	MaxRetries        *int   `toml:"max_retries,omitempty"`
}

// Form binds a form id to the sheet its submissions are appended to.
type Form struct {
	ID                 string `toml:"id"`
	SpreadsheetID      string `toml:"spreadsheet_id"`
	SheetName          string `toml:"sheet_name"`
	HeaderRange        string `toml:"header_range"`
	Credentials        string `toml:"credentials,omitempty"`
	SubmissionIDHeader string `toml:"submission_id_header,omitempty"`
	Verbose            bool   `toml:"verbose,omitempty"`
}

type Config struct {
	Server   ServerConfig `toml:"server"`
	Defaults Defaults     `toml:"defaults"`
	Forms    []Form       `toml:"forms"`
}

type File struct {
	Filename string
	Config   Config
}

// Write the current config out to a toml file.
func (f *File) Save() error {
	b, err := toml.Marshal(f.Config)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Filename, b, 0644)
}

// Load the current config from a toml file.
func (f *File) Load() error {
	b, err := os.ReadFile(f.Filename)
	if err != nil {
		return err
	}
	return toml.Unmarshal(b, &f.Config)
}

// Load reads filename, fills blanks from defaults and the environment and
// validates the result.
func Load(filename string) (*File, error) {
	f := &File{Filename: filename}
	if err := f.Load(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}
	f.Config.applyDefaults()
	if err := f.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return f, nil
}

// Example is written by `formsync -init`.
func Example() Config {
	def := sheets.DefaultOptions()
	return Config{
		Server: ServerConfig{Listen: ":8080"},
		Defaults: Defaults{
			Credentials:       "credentials.json",
			RequestsPerMinute: intPtr(def.RequestsPerMinute),
			CallTimeout:       def.CallTimeout.String(),
			MaxRetries:        intPtr(def.MaxRetries),
		},
		Forms: []Form{{
			ID:                 "signups",
			SpreadsheetID:      "your-spreadsheet-id",
			SheetName:          "Signups",
			HeaderRange:        "A1:J1",
			SubmissionIDHeader: "Submission ID",
		}},
	}
}

func (c *Config) applyDefaults() {
	def := sheets.DefaultOptions()
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Defaults.Credentials == "" {
		c.Defaults.Credentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if c.Defaults.RequestsPerMinute == nil {
		c.Defaults.RequestsPerMinute = intPtr(def.RequestsPerMinute)
	}
	if c.Defaults.CallTimeout == "" {
		c.Defaults.CallTimeout = def.CallTimeout.String()
	}
	if c.Defaults.MaxRetries == nil {
		c.Defaults.MaxRetries = intPtr(def.MaxRetries)
	}
	for i := range c.Forms {
		if c.Forms[i].SpreadsheetID == "" {
			c.Forms[i].SpreadsheetID = os.Getenv("SPREADSHEET_ID")
		}
		if c.Forms[i].Credentials == "" {
			c.Forms[i].Credentials = c.Defaults.Credentials
		}
	}
}

// Validate reports every problem it finds, not just the first.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.SheetOptions(); err != nil {
		errs = append(errs, err)
	}
	if p := c.Defaults.RequestsPerMinute; p != nil && *p < 0 {
		errs = append(errs, errors.New("defaults.requests_per_minute must not be negative"))
	}
	if p := c.Defaults.MaxRetries; p != nil && *p < 0 {
		errs = append(errs, errors.New("defaults.max_retries must not be negative"))
	}
	if len(c.Forms) == 0 {
		errs = append(errs, errors.New("no forms configured"))
	}
	seen := make(map[string]bool)
	for i, f := range c.Forms {
		name := f.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			errs = append(errs, fmt.Errorf("form %s: id is required", name))
		} else if seen[f.ID] {
			errs = append(errs, fmt.Errorf("form %s: duplicate id", name))
		}
		seen[f.ID] = true
		if f.SpreadsheetID == "" {
			errs = append(errs, fmt.Errorf("form %s: spreadsheet_id is required", name))
		}
		if f.SheetName == "" {
			errs = append(errs, fmt.Errorf("form %s: sheet_name is required", name))
		}
		if f.Credentials == "" {
			errs = append(errs, fmt.Errorf("form %s: no credentials file", name))
		}
		if _, err := sheets.ParseHeaderRange(f.HeaderRange); err != nil {
			errs = append(errs, fmt.Errorf("form %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// SheetOptions converts the pacing defaults for the Sheets client.
func (c *Config) SheetOptions() (sheets.Options, error) {
	opts := sheets.DefaultOptions()
	if c.Defaults.RequestsPerMinute != nil {
		opts.RequestsPerMinute = *c.Defaults.RequestsPerMinute
	}
	if c.Defaults.MaxRetries != nil {
		opts.MaxRetries = *c.Defaults.MaxRetries
	}
	if c.Defaults.CallTimeout != "" {
		d, err := time.ParseDuration(c.Defaults.CallTimeout)
		if err != nil {
			return opts, fmt.Errorf("defaults.call_timeout: %w", err)
		}
		opts.CallTimeout = d
	}
	return opts, nil
}

func intPtr(i int) *int {
	return &i
}

// Form looks up a form binding by id.
func (c *Config) Form(id string) (Form, bool) {
	for _, f := range c.Forms {
		if f.ID == id {
			return f, true
		}
	}
	return Form{}, false
}

func (f Form) SheetConfig() formsync.SheetConfig {
	return formsync.SheetConfig{
		SpreadsheetID:      f.SpreadsheetID,
		CredentialsPath:    f.Credentials,
		SheetName:          f.SheetName,
		HeaderRange:        f.HeaderRange,
		SubmissionIDHeader: f.SubmissionIDHeader,
		Verbose:            f.Verbose,
	}
}
