package sheets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

type SheetClient struct {
	service       *sheetsv4.Service
	spreadsheetID string
	limiter       *rate.Limiter
	opts          Options
}

var _ SheetAPI = (*SheetClient)(nil)

// NewSheetClient builds a client for one spreadsheet. clientOpts usually
// carries the option returned by LoadCredentials.
func NewSheetClient(ctx context.Context, spreadsheetID string, opts Options, clientOpts ...option.ClientOption) (*SheetClient, error) {
	srv, err := sheetsv4.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return &SheetClient{
		service:       srv,
		spreadsheetID: spreadsheetID,
		limiter:       limiter,
		opts:          opts,
	}, nil
}

// ReadRow returns the first row of values in a1Range. Cells keep their
// position, so blanks inside the row come back as "". The service trims
// trailing blanks.
func (s *SheetClient) ReadRow(ctx context.Context, a1Range string) ([]string, error) {
	var resp *sheetsv4.ValueRange
	err := s.do(ctx, "read", func(ctx context.Context) error {
		var err error
		resp, err = s.service.Spreadsheets.Values.Get(s.spreadsheetID, a1Range).
			MajorDimension(MajorDimensionRows).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", a1Range, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	row := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		if v != nil {
			row[i] = fmt.Sprint(v)
		}
	}
	return row, nil
}

// AppendRow appends row after the table anchored at a1Range. Values are
// written RAW so text starting with "=" stays text.
func (s *SheetClient) AppendRow(ctx context.Context, a1Range string, row []string) error {
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	err := s.do(ctx, "append", func(ctx context.Context) error {
		_, err := s.service.Spreadsheets.Values.Append(
			s.spreadsheetID,
			a1Range,
			&sheetsv4.ValueRange{
				MajorDimension: MajorDimensionRows,
				Values:         [][]interface{}{values},
			},
		).ValueInputOption(ValueInputRaw).InsertDataOption(InsertRows).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("appending to %s: %w", a1Range, err)
	}
	return nil
}

// do paces, times out and retries call. Only rejections the service
// guarantees were not applied are retried, an append that failed any other
// way may already have landed.
func (s *SheetClient) do(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = s.limiter.Wait(ctx); err != nil {
			return err
		}
		err = s.callWithTimeout(ctx, call)
		if err == nil {
			return nil
		}
		if !IsRateLimited(err) || attempt >= s.opts.MaxRetries {
			break
		}
		backoff := s.backoff(attempt)
		log.WithFields(log.Fields{
			"op":          op,
			"spreadsheet": s.spreadsheetID,
			"attempt":     attempt + 1,
		}).Warnf("Rate limited by Google Sheets API, retrying in %v...", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

func (s *SheetClient) callWithTimeout(ctx context.Context, call func(ctx context.Context) error) error {
	if s.opts.CallTimeout <= 0 {
		return call(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return call(ctx)
}

func (s *SheetClient) backoff(attempt int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(attempt))) * s.opts.BaseBackoff
	if s.opts.MaxBackoff > 0 && backoff > s.opts.MaxBackoff {
		backoff = s.opts.MaxBackoff
	}
	return backoff
}

// IsRateLimited reports whether err is a quota rejection from the Sheets API.
func IsRateLimited(err error) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}
	if gErr.Code == http.StatusTooManyRequests {
		return true
	}
	if gErr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range gErr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}

// IsUnauthorized reports whether the credentials were rejected, either by
// the token endpoint or by the Sheets API itself.
func IsUnauthorized(err error) bool {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		return true
	}
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusUnauthorized
}
