package api

import (
	"context"
	"fmt"
	"sync"

	"formsync/pkg/formsync"
	"formsync/pkg/sheets"
)

type mockSheet struct {
	mu              sync.Mutex
	Headers         []string
	ReadErr         error
	AppendErr       error
	ReadRowCalls    []string
	AppendRowsCalls [][]string
}

func (m *mockSheet) ReadRow(ctx context.Context, a1Range string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadRowCalls = append(m.ReadRowCalls, a1Range)
	return m.Headers, m.ReadErr
}

func (m *mockSheet) AppendRow(ctx context.Context, a1Range string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.AppendRowsCalls = append(m.AppendRowsCalls, row)
	return nil
}

// mockConnector connects every form to the sheet registered under its
// spreadsheet id.
func mockConnector(bySpreadsheet map[string]*mockSheet) formsync.Connector {
	return func(ctx context.Context, cfg formsync.SheetConfig) (sheets.SheetAPI, error) {
		sheet, ok := bySpreadsheet[cfg.SpreadsheetID]
		if !ok {
			return nil, fmt.Errorf("no sheet %s", cfg.SpreadsheetID)
		}
		return sheet, nil
	}
}
