// Package sheets adapts the Google Sheets v4 API to the row sink used by the
// harvester: worksheet lookup by 1-based index, rectangular cell reads and
// header-aligned row appends.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Config holds the spreadsheet identity and service-account credentials.
type Config struct {
	SpreadsheetID string
	ClientEmail   string
	PrivateKey    string
	// Endpoint overrides the API base URL (emulators, tests).
	Endpoint string
	// HTTPClient replaces service-account auth when set.
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	spreadsheetID string
	svc           *gsheets.Service

	mu      sync.Mutex
	titles  map[int]string
	headers map[int][]string
}

// New builds a client. Credentials are exchanged lazily on the first call;
// use Authenticate to verify them up front.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("spreadsheet id is required")
	}

	opts := []option.ClientOption{}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	} else {
		if strings.TrimSpace(cfg.ClientEmail) == "" || strings.TrimSpace(cfg.PrivateKey) == "" {
			return nil, errors.New("client email and private key are required")
		}
		conf := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{gsheets.SpreadsheetsScope},
			TokenURL:   google.JWTTokenURL,
		}
		opts = append(opts, option.WithHTTPClient(conf.Client(ctx)))
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		spreadsheetID: cfg.SpreadsheetID,
		svc:           svc,
		titles:        make(map[int]string),
		headers:       make(map[int][]string),
	}, nil
}

// Authenticate fetches the spreadsheet metadata, which proves the
// credentials work and caches worksheet titles.
func (c *Client) Authenticate(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}

	titles := make(map[int]string, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh == nil || sh.Properties == nil {
			continue
		}
		titles[int(sh.Properties.Index)+1] = sh.Properties.Title
	}

	c.mu.Lock()
	c.titles = titles
	c.headers = make(map[int][]string)
	c.mu.Unlock()
	return nil
}

// ReadCells returns the non-empty values inside the inclusive 1-based
// rectangle rows x cols, row by row.
func (c *Client) ReadCells(ctx context.Context, sheetIndex int, rows, cols [2]int) ([]string, error) {
	title, err := c.title(ctx, sheetIndex)
	if err != nil {
		return nil, err
	}

	rng := fmt.Sprintf("%s!%s%d:%s%d", quoteTitle(title), ColumnName(cols[0]), rows[0], ColumnName(cols[1]), rows[1])
	vr, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rng, err)
	}

	var out []string
	for _, row := range vr.Values {
		for _, cell := range row {
			if s := strings.TrimSpace(fmt.Sprint(cell)); s != "" {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// AppendRow appends one row after the last row of the worksheet. values is
// keyed by column name and aligned to the worksheet's header row; keys with
// no matching header are dropped.
func (c *Client) AppendRow(ctx context.Context, sheetIndex int, values map[string]string) error {
	title, err := c.title(ctx, sheetIndex)
	if err != nil {
		return err
	}
	header, err := c.header(ctx, sheetIndex, title)
	if err != nil {
		return err
	}

	row := alignRow(header, values)
	vr := &gsheets.ValueRange{Values: [][]interface{}{row}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, quoteTitle(title)+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", title, err)
	}
	return nil
}

func (c *Client) title(ctx context.Context, sheetIndex int) (string, error) {
	c.mu.Lock()
	t, ok := c.titles[sheetIndex]
	c.mu.Unlock()
	if ok {
		return t, nil
	}

	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.titles[sheetIndex]; ok {
		return t, nil
	}
	return "", fmt.Errorf("worksheet %d not found in spreadsheet %s", sheetIndex, c.spreadsheetID)
}

func (c *Client) header(ctx context.Context, sheetIndex int, title string) ([]string, error) {
	c.mu.Lock()
	h, ok := c.headers[sheetIndex]
	c.mu.Unlock()
	if ok {
		return h, nil
	}

	vr, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteTitle(title)+"!1:1").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", title, err)
	}
	if len(vr.Values) == 0 || len(vr.Values[0]) == 0 {
		return nil, fmt.Errorf("worksheet %s has no header row", title)
	}

	h = make([]string, len(vr.Values[0]))
	for i, cell := range vr.Values[0] {
		h[i] = NormalizeHeader(fmt.Sprint(cell))
	}

	c.mu.Lock()
	c.headers[sheetIndex] = h
	c.mu.Unlock()
	return h, nil
}

func alignRow(header []string, values map[string]string) []interface{} {
	norm := make(map[string]string, len(values))
	for k, v := range values {
		norm[NormalizeHeader(k)] = v
	}
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = literalCell(norm[h])
	}
	return row
}

// literalCell keeps USER_ENTERED from evaluating scraped text. Numbers pass
// through so they stay numeric; other text that would start a formula is
// prefixed with a quote.
func literalCell(v string) string {
	if v == "" || !strings.ContainsAny(v[:1], "=+-@") {
		return v
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	return "'" + v
}

// NormalizeHeader lowercases a header and drops spaces and underscores, so
// "Engine Size" and "engine_size" match "enginesize".
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "").Replace(s)
}

// ColumnName converts a 1-based column index to A1 letters (1 -> A, 27 -> AA).
func ColumnName(n int) string {
	if n <= 0 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
