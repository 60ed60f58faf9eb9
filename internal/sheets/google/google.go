package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spesebot/internal/cache"
	"spesebot/internal/core"
	ports "spesebot/internal/sheets"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Options configures a Sheets client.
type Options struct {
	// CredentialsPath points to a service account key file.
	CredentialsPath string
	// CredentialsJSON is an inline service account key; takes precedence over CredentialsPath.
	CredentialsJSON string
	// SpreadsheetID selects the spreadsheet directly.
	SpreadsheetID string
	// SpreadsheetName is resolved through Drive when SpreadsheetID is empty.
	SpreadsheetName string
	// Location is used to read and write the Date column. Defaults to time.Local.
	Location *time.Location
}

// Client stores expenses in the first worksheet of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	loc           *time.Location
	titles        cache.Cache[string]
}

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

// New authenticates with a service account key and opens the spreadsheet.
func New(ctx context.Context, opts Options) (*Client, error) {
	creds, err := readCredentials(opts)
	if err != nil {
		return nil, err
	}

	// Token refreshes go through the pooled client as well.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	jwtCfg, err := goauth.JWTConfigFromJSON(creds, gsheet.SpreadsheetsScope, gdrive.DriveMetadataReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("service account config: %w", err)
	}
	httpClient := jwtCfg.Client(ctx)

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		name := strings.TrimSpace(opts.SpreadsheetName)
		if name == "" {
			return nil, errors.New("missing spreadsheet id or name")
		}
		driveSvc, err := gdrive.NewService(ctx, goption.WithHTTPClient(httpClient))
		if err != nil {
			return nil, fmt.Errorf("create drive service: %w", err)
		}
		spreadsheetID, err = findSpreadsheet(ctx, driveSvc, name)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Resolved spreadsheet by name", "name", name, "spreadsheet_id", spreadsheetID)
	}

	return newClient(svc, spreadsheetID, opts.Location), nil
}

func newClient(svc *gsheet.Service, spreadsheetID string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		loc:           loc,
		titles:        cache.NewTTL[string](4, 10*time.Minute),
	}
}

func readCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsPath) != "":
		b, err := os.ReadFile(opts.CredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_PATH or GOOGLE_CREDENTIALS_JSON)")
	}
}

// newHTTPClientWithPooling creates an HTTP client for the Google APIs with
// connection pooling and bounded timeouts
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// findSpreadsheet looks up a spreadsheet visible to the service account by title.
func findSpreadsheet(ctx context.Context, d *gdrive.Service, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), spreadsheetMimeType)
	resp, err := d.Files.List().Q(q).Fields("files(id, name)").PageSize(10).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search spreadsheet %q: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found or not shared with the service account", name)
	}
	if len(resp.Files) > 1 {
		slog.WarnContext(ctx, "Several spreadsheets share the same name, using the first", "name", name, "count", len(resp.Files))
	}
	return resp.Files[0].Id, nil
}

// escapeQuery escapes a literal for the Drive query language.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// quoteSheet quotes a worksheet title for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// SpreadsheetID returns the id of the backing spreadsheet.
func (c *Client) SpreadsheetID() string {
	return c.spreadsheetID
}

// firstSheet returns the title of the first worksheet.
func (c *Client) firstSheet(ctx context.Context) (string, error) {
	return cache.GetOrLoad(c.titles, c.spreadsheetID, func() (string, error) {
		ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("read spreadsheet metadata: %w", err)
		}
		if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
			return "", errors.New("spreadsheet has no worksheets")
		}
		return ss.Sheets[0].Properties.Title, nil
	})
}

// EnsureHeader writes the header row when the first worksheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title, err := c.firstSheet(ctx)
	if err != nil {
		return err
	}
	rng := quoteSheet(title) + "!A1:D1"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		if _, err := mapHeader(toStrings(resp.Values[0])); err != nil {
			slog.WarnContext(ctx, "Worksheet header does not match the expected layout", "sheet", title, "error", err)
		}
		return nil
	}
	row := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		row[i] = h
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Wrote header row", "sheet", title)
	return nil
}

// Append adds one row after the last non-empty row of the first worksheet.
func (c *Client) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title, err := c.firstSheet(ctx)
	if err != nil {
		return "", err
	}

	rng := quoteSheet(title) + "!A:D"
	vr := &gsheet.ValueRange{Values: [][]any{encodeRow(e, c.loc)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", title, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// ReadAll reads every row of the first worksheet, mapping columns by header.
func (c *Client) ReadAll(ctx context.Context) (core.Ledger, error) {
	if c.svc == nil {
		return core.Ledger{}, errors.New("sheets service not initialized")
	}
	title, err := c.firstSheet(ctx)
	if err != nil {
		return core.Ledger{}, err
	}
	rng := quoteSheet(title) + "!A:D"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return core.Ledger{}, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseRecords(resp.Values, c.loc)
}
