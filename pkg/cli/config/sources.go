package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/service/fetch"
	"github.com/secmon-lab/deathweek/pkg/usecase"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Sources holds the locations and layout of the daily and weekly source tables
type Sources struct {
	File            string
	DailyURL        string
	WeeklyURL       string
	Sheet           string
	SkipRows        int
	FooterRows      int
	FirstWeekEnding string
	WeekColumn      string
	CovidColumn     string
	Timeout         time.Duration
	UserAgent       string
}

// SourcesFile is the YAML form of Sources. Keys left out of the file keep their flag value.
type SourcesFile struct {
	Daily struct {
		URL string `yaml:"url"`
	} `yaml:"daily"`
	Weekly struct {
		URL             string `yaml:"url"`
		Sheet           string `yaml:"sheet"`
		SkipRows        *int   `yaml:"skip_rows"`
		FooterRows      *int   `yaml:"footer_rows"`
		FirstWeekEnding string `yaml:"first_week_ending"`
		WeekColumn      string `yaml:"week_column"`
		CovidColumn     string `yaml:"covid_column"`
	} `yaml:"weekly"`
}

// Flags returns CLI flags for Sources configuration
func (s *Sources) Flags() []cli.Flag {
	defaultLayout := fetch.DefaultSpreadsheetLayout()
	defaultNational := usecase.DefaultNationalLayout()

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sources-file",
			Usage:       "YAML file describing source URLs and spreadsheet layout; its values take precedence over flags",
			Category:    "Sources",
			Sources:     cli.EnvVars("DEATHWEEK_SOURCES_FILE"),
			Destination: &s.File,
		},
		&cli.StringFlag{
			Name:        "daily-url",
			Usage:       "URL of the daily deaths CSV",
			Category:    "Sources",
			Sources:     cli.EnvVars("DEATHWEEK_DAILY_URL"),
			Destination: &s.DailyURL,
		},
		&cli.StringFlag{
			Name:        "weekly-url",
			Usage:       "URL of the weekly deaths spreadsheet",
			Category:    "Sources",
			Sources:     cli.EnvVars("DEATHWEEK_WEEKLY_URL"),
			Destination: &s.WeeklyURL,
		},
		&cli.StringFlag{
			Name:        "weekly-sheet",
			Usage:       "Worksheet name in the weekly spreadsheet (first sheet when empty)",
			Category:    "Sources",
			Sources:     cli.EnvVars("DEATHWEEK_WEEKLY_SHEET"),
			Destination: &s.Sheet,
		},
		&cli.IntFlag{
			Name:        "weekly-skip-rows",
			Usage:       "Preamble rows above the weekly spreadsheet header",
			Category:    "Sources",
			Value:       defaultLayout.SkipRows,
			Sources:     cli.EnvVars("DEATHWEEK_WEEKLY_SKIP_ROWS"),
			Destination: &s.SkipRows,
		},
		&cli.IntFlag{
			Name:        "weekly-footer-rows",
			Usage:       "Footer rows below the weekly spreadsheet data",
			Category:    "Sources",
			Value:       defaultLayout.FooterRows,
			Sources:     cli.EnvVars("DEATHWEEK_WEEKLY_FOOTER_ROWS"),
			Destination: &s.FooterRows,
		},
		&cli.StringFlag{
			Name:        "first-week-ending",
			Usage:       "Week ending date of week 1 (YYYY-MM-DD)",
			Category:    "Sources",
			Value:       defaultNational.FirstWeekEnding.Format(time.DateOnly),
			Sources:     cli.EnvVars("DEATHWEEK_FIRST_WEEK_ENDING"),
			Destination: &s.FirstWeekEnding,
		},
		&cli.StringFlag{
			Name:        "week-column",
			Usage:       "Header of the week number column",
			Category:    "Sources",
			Value:       defaultNational.WeekColumn,
			Sources:     cli.EnvVars("DEATHWEEK_WEEK_COLUMN"),
			Destination: &s.WeekColumn,
		},
		&cli.StringFlag{
			Name:        "covid-column",
			Usage:       "Header of the Covid-19 deaths column",
			Category:    "Sources",
			Value:       defaultNational.CovidColumn,
			Sources:     cli.EnvVars("DEATHWEEK_COVID_COLUMN"),
			Destination: &s.CovidColumn,
		},
		&cli.DurationFlag{
			Name:        "fetch-timeout",
			Usage:       "HTTP timeout for each source download",
			Category:    "Sources",
			Value:       time.Minute,
			Sources:     cli.EnvVars("DEATHWEEK_FETCH_TIMEOUT"),
			Destination: &s.Timeout,
		},
		&cli.StringFlag{
			Name:        "user-agent",
			Usage:       "User-Agent header sent to the sources",
			Category:    "Sources",
			Value:       "deathweek",
			Sources:     cli.EnvVars("DEATHWEEK_USER_AGENT"),
			Destination: &s.UserAgent,
		},
	}
}

// Configure merges the sources file into the flag values and returns the pipeline sources
func (s *Sources) Configure() (usecase.Sources, error) {
	if s.File != "" {
		file, err := LoadSourcesFromFile(s.File)
		if err != nil {
			return usecase.Sources{}, err
		}
		s.apply(file)
	}

	firstWeek, err := time.Parse(time.DateOnly, s.FirstWeekEnding)
	if err != nil {
		return usecase.Sources{}, goerr.Wrap(err, "invalid first week ending date",
			goerr.V("first_week_ending", s.FirstWeekEnding))
	}

	if s.SkipRows < 0 || s.FooterRows < 0 {
		return usecase.Sources{}, goerr.New("row counts must not be negative",
			goerr.V("skip_rows", s.SkipRows),
			goerr.V("footer_rows", s.FooterRows))
	}

	sources := usecase.Sources{
		DailyURL:  s.DailyURL,
		WeeklyURL: s.WeeklyURL,
		Spreadsheet: fetch.SpreadsheetLayout{
			Sheet:      s.Sheet,
			SkipRows:   s.SkipRows,
			FooterRows: s.FooterRows,
		},
		National: usecase.NationalLayout{
			WeekColumn:      s.WeekColumn,
			CovidColumn:     s.CovidColumn,
			FirstWeekEnding: model.TruncateDay(firstWeek),
		},
	}
	if err := sources.Validate(); err != nil {
		return usecase.Sources{}, err
	}

	return sources, nil
}

// NewFetcher builds the HTTP client used to download the sources
func (s *Sources) NewFetcher() *fetch.Client {
	return fetch.New(
		fetch.WithTimeout(s.Timeout),
		fetch.WithUserAgent(s.UserAgent),
	)
}

func (s *Sources) apply(file *SourcesFile) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&s.DailyURL, file.Daily.URL)
	setString(&s.WeeklyURL, file.Weekly.URL)
	setString(&s.Sheet, file.Weekly.Sheet)
	setString(&s.FirstWeekEnding, file.Weekly.FirstWeekEnding)
	setString(&s.WeekColumn, file.Weekly.WeekColumn)
	setString(&s.CovidColumn, file.Weekly.CovidColumn)
	if file.Weekly.SkipRows != nil {
		s.SkipRows = *file.Weekly.SkipRows
	}
	if file.Weekly.FooterRows != nil {
		s.FooterRows = *file.Weekly.FooterRows
	}
}

// LoadSourcesFromFile loads source definitions from a YAML file
func LoadSourcesFromFile(path string) (*SourcesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "sources file not found",
				goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read sources file",
			goerr.V("path", path))
	}

	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse sources file",
			goerr.V("path", path))
	}

	return &file, nil
}

// LogValue returns structured log value
func (s Sources) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("file", s.File),
		slog.String("daily_url", s.DailyURL),
		slog.String("weekly_url", s.WeeklyURL),
		slog.String("sheet", s.Sheet),
		slog.Int("skip_rows", s.SkipRows),
		slog.Int("footer_rows", s.FooterRows),
		slog.String("first_week_ending", s.FirstWeekEnding),
	)
}
