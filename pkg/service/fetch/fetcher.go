package fetch

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/xuri/excelize/v2"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "deathweek/0.1"
)

// SpreadsheetLayout describes where the data sits inside a workbook
type SpreadsheetLayout struct {
	// Sheet is the worksheet name. Empty selects the first sheet.
	Sheet string
	// SkipRows is the number of preamble rows above the header row
	SkipRows int
	// FooterRows is the number of trailing rows below the data
	FooterRows int
}

// DefaultSpreadsheetLayout matches the national statistics weekly deaths workbook
func DefaultSpreadsheetLayout() SpreadsheetLayout {
	return SpreadsheetLayout{SkipRows: 6, FooterRows: 2}
}

// Client fetches tabular resources over HTTP
type Client struct {
	http    *resty.Client
	tempDir string
}

// Option configures Client
type Option func(*Client)

// WithTimeout sets the request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.http.SetHeader("User-Agent", ua)
	}
}

// WithTempDir sets the directory for downloaded spreadsheets. Empty uses os.TempDir.
func WithTempDir(dir string) Option {
	return func(c *Client) {
		c.tempDir = dir
	}
}

// New creates a new Client
func New(opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetTimeout(defaultTimeout).
			SetHeader("User-Agent", defaultUserAgent),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCSV retrieves a delimited text resource and parses it into a Table
func (c *Client) FetchCSV(ctx context.Context, url string) (*Table, error) {
	logger := ctxlog.From(ctx)
	logger.Debug("fetching CSV", "url", url)

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch CSV",
			goerr.T(model.ErrTagNetwork),
			goerr.V("url", url))
	}
	if !resp.IsSuccess() {
		return nil, goerr.New("unexpected response status",
			goerr.T(model.ErrTagNetwork),
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode()))
	}

	table, err := ParseCSV(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse CSV", goerr.V("url", url))
	}

	logger.Debug("fetched CSV", "url", url, "rows", table.Len(), "columns", table.Width())
	return table, nil
}

// ParseCSV reads a header row and data rows from r
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, goerr.Wrap(err, "malformed delimited content", goerr.T(model.ErrTagParse))
	}
	if len(records) == 0 {
		return nil, goerr.New("delimited content is empty", goerr.T(model.ErrTagParse))
	}

	return NewTable(records[0], records[1:])
}

// FetchSpreadsheet downloads a workbook to a temporary file, reads one sheet and returns
// the rows between the preamble and the footer. The temporary file is removed before
// returning on every path.
func (c *Client) FetchSpreadsheet(ctx context.Context, url string, layout SpreadsheetLayout) (*Table, error) {
	logger := ctxlog.From(ctx)

	tmp, err := os.CreateTemp(c.tempDir, "deathweek-*.xlsx")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary file",
			goerr.T(model.ErrTagIO),
			goerr.V("dir", c.tempDir))
	}
	path := tmp.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove temporary file", "path", path, "error", err)
		}
	}()
	if err := tmp.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to close temporary file",
			goerr.T(model.ErrTagIO),
			goerr.V("path", path))
	}

	logger.Debug("downloading spreadsheet", "url", url, "path", path)
	resp, err := c.http.R().SetContext(ctx).SetOutput(path).Get(url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download spreadsheet",
			goerr.T(model.ErrTagNetwork),
			goerr.V("url", url))
	}
	if !resp.IsSuccess() {
		return nil, goerr.New("unexpected response status",
			goerr.T(model.ErrTagNetwork),
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode()))
	}

	table, err := ReadSpreadsheet(path, layout)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read spreadsheet", goerr.V("url", url))
	}

	logger.Debug("fetched spreadsheet", "url", url, "rows", table.Len(), "columns", table.Width())
	return table, nil
}

// ReadSpreadsheet opens a workbook file and slices out the data table
func ReadSpreadsheet(path string, layout SpreadsheetLayout) (*Table, error) {
	if layout.SkipRows < 0 || layout.FooterRows < 0 {
		return nil, goerr.New("negative spreadsheet layout",
			goerr.T(model.ErrTagShape),
			goerr.V("skip_rows", layout.SkipRows),
			goerr.V("footer_rows", layout.FooterRows))
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "unreadable spreadsheet",
			goerr.T(model.ErrTagParse),
			goerr.V("path", path))
	}
	defer wb.Close()

	sheet, err := selectSheet(wb, layout.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read sheet rows",
			goerr.T(model.ErrTagParse),
			goerr.V("sheet", sheet))
	}

	// header row plus at least zero data rows
	if len(rows) < layout.SkipRows+1+layout.FooterRows {
		return nil, goerr.New("spreadsheet has fewer rows than its layout",
			goerr.T(model.ErrTagShape),
			goerr.V("sheet", sheet),
			goerr.V("rows", len(rows)),
			goerr.V("skip_rows", layout.SkipRows),
			goerr.V("footer_rows", layout.FooterRows))
	}

	header := rows[layout.SkipRows]
	data := rows[layout.SkipRows+1 : len(rows)-layout.FooterRows]
	return NewTable(header, data)
}

func selectSheet(wb *excelize.File, name string) (string, error) {
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return "", goerr.New("workbook has no sheets", goerr.T(model.ErrTagParse))
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == name {
			return s, nil
		}
	}
	return "", goerr.New("sheet not found",
		goerr.T(model.ErrTagShape),
		goerr.V("sheet", name),
		goerr.V("available", sheets))
}
