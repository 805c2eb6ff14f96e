package llm

import (
	"bytes"
	"context"
	"embed"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
)

// Error tags for categorization
var (
	ErrTagEmptyResponse   = goerr.NewTag("empty_response")
	ErrTagTemplateFailure = goerr.NewTag("template_failure")
	ErrTagNoData          = goerr.NewTag("no_data")
)

const defaultMaxWords = 150

//go:embed templates/*.md
var templateFS embed.FS

// NarrativeService asks an LLM for a prose summary of a report
type NarrativeService struct {
	llmClient gollem.LLMClient
	maxWords  int
}

// NarrativeTemplateData contains data for the narrative prompt template
type NarrativeTemplateData struct {
	MaxWords     int
	Weeks        []TemplateWeek
	PartialWeeks []TemplateWeek
	National     []TemplateNational
}

// TemplateWeek is one weekly row rendered into the prompt
type TemplateWeek struct {
	WeekStart string
	Total     int64
	Change    string
	Days      int
}

// TemplateNational is one national statistics row rendered into the prompt
type TemplateNational struct {
	WeekEnding string
	Deaths     int64
}

// Option configures NarrativeService
type Option func(*NarrativeService)

// WithMaxWords sets the word limit requested from the model
func WithMaxWords(n int) Option {
	return func(s *NarrativeService) {
		if n > 0 {
			s.maxWords = n
		}
	}
}

// NewNarrativeService creates a new NarrativeService instance
func NewNarrativeService(llmClient gollem.LLMClient, opts ...Option) *NarrativeService {
	s := &NarrativeService{
		llmClient: llmClient,
		maxWords:  defaultMaxWords,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Narrate implements interfaces.Narrator
func (s *NarrativeService) Narrate(ctx context.Context, report *model.Report) (string, error) {
	if report == nil || len(report.Weeks) == 0 {
		return "", goerr.New("report has no weekly data to narrate", goerr.T(ErrTagNoData))
	}

	prompt, err := s.renderPrompt(buildTemplateData(report, s.maxWords))
	if err != nil {
		return "", goerr.Wrap(err, "failed to render narrative template",
			goerr.T(ErrTagTemplateFailure))
	}

	session, err := s.llmClient.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	response, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate LLM response")
	}

	text := strings.TrimSpace(strings.Join(response.Texts, ""))
	if text == "" {
		return "", goerr.New("empty response from LLM",
			goerr.T(ErrTagEmptyResponse),
			goerr.V("report", report.ID))
	}
	return text, nil
}

func buildTemplateData(report *model.Report, maxWords int) NarrativeTemplateData {
	data := NarrativeTemplateData{MaxWords: maxWords}
	for _, w := range report.CompleteWeeks() {
		change := "n/a"
		if w.HasChange() {
			change = strconv.FormatInt(*w.Change, 10)
			if *w.Change > 0 {
				change = "+" + change
			}
		}
		data.Weeks = append(data.Weeks, TemplateWeek{
			WeekStart: w.WeekStart.Format(time.DateOnly),
			Total:     w.TotalDeaths,
			Change:    change,
			Days:      w.DayCount,
		})
	}
	for _, w := range report.PartialWeeks {
		data.PartialWeeks = append(data.PartialWeeks, TemplateWeek{
			WeekStart: w.WeekStart.Format(time.DateOnly),
			Total:     w.TotalDeaths,
			Days:      w.DayCount,
		})
	}
	for _, n := range report.National {
		data.National = append(data.National, TemplateNational{
			WeekEnding: n.WeekEnding.Format(time.DateOnly),
			Deaths:     n.CovidDeaths,
		})
	}
	return data
}

func (s *NarrativeService) renderPrompt(data NarrativeTemplateData) (string, error) {
	templateContent, err := templateFS.ReadFile("templates/narrative.md")
	if err != nil {
		return "", goerr.Wrap(err, "failed to read narrative template")
	}

	tmpl, err := template.New("narrative").Parse(string(templateContent))
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse narrative template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute narrative template")
	}
	return buf.String(), nil
}
