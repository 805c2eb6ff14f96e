package llm_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/service/llm"
)

func sampleReport() *model.Report {
	r := model.NewReport(time.Now())
	r.Weeks = model.WithWeekOverWeekChange([]model.WeeklyAggregate{
		{WeekStart: model.Date(2020, time.March, 2), TotalDeaths: 2, DayCount: 4},
		{WeekStart: model.Date(2020, time.March, 9), TotalDeaths: 41, DayCount: 7},
		{WeekStart: model.Date(2020, time.March, 16), TotalDeaths: 242, DayCount: 7},
	})
	_, r.PartialWeeks = model.PartitionComplete(r.Weeks)
	r.National = []model.NationalStatsRecord{
		{WeekNumber: 12, WeekEnding: model.Date(2020, time.March, 20), CovidDeaths: 103},
	}
	return r
}

func TestNarrativeService_Narrate_Success(t *testing.T) {
	ctx := context.Background()

	var prompt string
	mockClient := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					gt.A(t, input).Length(1)
					text, ok := input[0].(gollem.Text)
					gt.True(t, ok)
					prompt = string(text)
					return &gollem.Response{Texts: []string{"  Deaths rose sharply in mid March.  "}}, nil
				},
			}, nil
		},
	}

	service := llm.NewNarrativeService(mockClient, llm.WithMaxWords(80))
	narrative, err := service.Narrate(ctx, sampleReport())
	gt.NoError(t, err)
	gt.Equal(t, narrative, "Deaths rose sharply in mid March.")

	gt.S(t, prompt).Contains("at most 80 words")
	gt.S(t, prompt).Contains("| 2020-03-16 | 242 | +201 |")
	gt.S(t, prompt).Contains("- 2020-03-02: 2 deaths over 4 days")
	gt.S(t, prompt).Contains("- 2020-03-20: 103")
	// the partial week must not appear in the trend table
	gt.False(t, strings.Contains(prompt, "| 2020-03-02 |"))
}

func TestNarrativeService_Narrate_EmptyResponse(t *testing.T) {
	mockClient := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{}}, nil
				},
			}, nil
		},
	}

	_, err := llm.NewNarrativeService(mockClient).Narrate(context.Background(), sampleReport())
	gt.Error(t, err)
	gt.B(t, goerr.HasTag(err, llm.ErrTagEmptyResponse)).True()
}

func TestNarrativeService_Narrate_NoData(t *testing.T) {
	mockClient := &mock.LLMClientMock{}

	_, err := llm.NewNarrativeService(mockClient).Narrate(context.Background(), model.NewReport(time.Now()))
	gt.Error(t, err)
	gt.B(t, goerr.HasTag(err, llm.ErrTagNoData)).True()
}

func TestNarrativeService_Narrate_SessionError(t *testing.T) {
	mockClient := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return nil, goerr.New("quota exceeded")
		},
	}

	_, err := llm.NewNarrativeService(mockClient).Narrate(context.Background(), sampleReport())
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("failed to create LLM session")
}
