package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account. Only the spreadsheets scope is
// strictly needed for a sheet shared with the account, the drive scopes
// cover sheets reached through a shared drive folder.
var Scopes = []string{
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/drive.file",
	sheetsv4.SpreadsheetsScope,
}

// LoadCredentials reads a service account key file and returns the client
// option that authorizes requests with it. A missing or malformed file fails
// here, before any network traffic.
func LoadCredentials(ctx context.Context, jsonPath string) (option.ClientOption, error) {
	if jsonPath == "" {
		return nil, fmt.Errorf("no credentials file configured")
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials %s: %w", jsonPath, err)
	}
	return option.WithCredentials(creds), nil
}
