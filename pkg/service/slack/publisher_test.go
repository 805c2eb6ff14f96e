package slack_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/domain/types"
	slackSvc "github.com/secmon-lab/deathweek/pkg/service/slack"
	"github.com/slack-go/slack"
)

type fakeSlackClient struct {
	posts    []string
	uploads  []slack.UploadFileV2Parameters
	postErr  error
	uploadFn func(params slack.UploadFileV2Parameters) error
}

func (f *fakeSlackClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if f.postErr != nil {
		return "", "", f.postErr
	}
	f.posts = append(f.posts, channelID)
	return channelID, "1700000000.000100", nil
}

func (f *fakeSlackClient) UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
	if f.uploadFn != nil {
		if err := f.uploadFn(params); err != nil {
			return nil, err
		}
	}
	f.uploads = append(f.uploads, params)
	return &slack.FileSummary{ID: "F123", Title: params.Title}, nil
}

func reportWithCharts(t *testing.T) *model.Report {
	t.Helper()
	dir := t.TempDir()

	r := model.NewReport(time.Date(2020, time.April, 1, 9, 0, 0, 0, time.UTC))
	r.Weeks = model.WithWeekOverWeekChange([]model.WeeklyAggregate{
		{WeekStart: model.Date(2020, time.March, 9), TotalDeaths: 41, DayCount: 7},
		{WeekStart: model.Date(2020, time.March, 16), TotalDeaths: 242, DayCount: 7},
		{WeekStart: model.Date(2020, time.March, 23), TotalDeaths: 300, DayCount: 3},
	})
	_, r.PartialWeeks = model.PartitionComplete(r.Weeks)

	for _, name := range []types.ChartName{types.ChartWeeklyTotals, types.ChartWeeklyChange} {
		path := filepath.Join(dir, name.String()+".png")
		gt.NoError(t, os.WriteFile(path, []byte("png"), 0o600))
		r.Charts = append(r.Charts, model.Chart{Name: name, Path: path})
	}
	return r
}

func TestPublisher_Publish(t *testing.T) {
	t.Run("posts summary and uploads charts into its thread", func(t *testing.T) {
		client := &fakeSlackClient{}
		report := reportWithCharts(t)

		err := slackSvc.NewPublisher(client, "C0123").Publish(context.Background(), report)
		gt.NoError(t, err)
		gt.Equal(t, client.posts, []string{"C0123"})
		gt.A(t, client.uploads).Length(2)
		for _, u := range client.uploads {
			gt.Equal(t, u.Channel, "C0123")
			gt.Equal(t, u.ThreadTimestamp, "1700000000.000100")
			gt.Equal(t, u.FileSize, 3)
		}
		gt.Equal(t, client.uploads[0].Title, "weekly_totals")
		gt.Equal(t, client.uploads[1].Filename, "weekly_change.png")
	})

	t.Run("post failure stops before uploads", func(t *testing.T) {
		client := &fakeSlackClient{postErr: goerr.New("channel_not_found")}

		err := slackSvc.NewPublisher(client, "C0123").Publish(context.Background(), reportWithCharts(t))
		gt.Error(t, err)
		gt.B(t, goerr.HasTag(err, model.ErrTagNetwork)).True()
		gt.A(t, client.uploads).Length(0)
	})

	t.Run("missing chart file is an IO error", func(t *testing.T) {
		client := &fakeSlackClient{}
		report := reportWithCharts(t)
		report.Charts[0].Path = filepath.Join(t.TempDir(), "missing.png")

		err := slackSvc.NewPublisher(client, "C0123").Publish(context.Background(), report)
		gt.Error(t, err)
		gt.B(t, goerr.HasTag(err, model.ErrTagIO)).True()
	})

	t.Run("upload failure is reported", func(t *testing.T) {
		client := &fakeSlackClient{uploadFn: func(slack.UploadFileV2Parameters) error {
			return goerr.New("not_allowed_token_type")
		}}

		err := slackSvc.NewPublisher(client, "C0123").Publish(context.Background(), reportWithCharts(t))
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("failed to upload chart")
	})
}

func TestSummaryText(t *testing.T) {
	report := reportWithCharts(t)
	gt.Equal(t, slackSvc.SummaryText(report),
		"UK Covid-19 deaths: week starting 2020-03-16 had 242 deaths (+201 on previous week)")

	empty := model.NewReport(time.Now())
	gt.Equal(t, slackSvc.SummaryText(empty), "UK Covid-19 deaths: no complete week in the data")
}

func TestBuildReportBlocks(t *testing.T) {
	report := reportWithCharts(t)
	report.Narrative = "Deaths rose."

	blocks := slackSvc.BuildReportBlocks(report)
	// header, summary, divider, narrative, partial weeks, footer
	gt.A(t, blocks).Length(6)
	gt.Equal(t, blocks[0].BlockType(), slack.MBTHeader)
	gt.Equal(t, blocks[4].BlockType(), slack.MBTContext)

	ctxBlock, ok := blocks[4].(*slack.ContextBlock)
	gt.True(t, ok)
	text, ok := ctxBlock.ContextElements.Elements[0].(*slack.TextBlockObject)
	gt.True(t, ok)
	gt.S(t, text.Text).Contains("2020-03-23 (3/7 days, 300 deaths)")
}

func TestFormatChange(t *testing.T) {
	up, down, flat := int64(5), int64(-3), int64(0)
	gt.Equal(t, slackSvc.FormatChange(model.WeeklyAggregate{Change: &up}), "+5")
	gt.Equal(t, slackSvc.FormatChange(model.WeeklyAggregate{Change: &down}), "-3")
	gt.Equal(t, slackSvc.FormatChange(model.WeeklyAggregate{Change: &flat}), "0")
	gt.Equal(t, slackSvc.FormatChange(model.WeeklyAggregate{}), "n/a")
	gt.Equal(t, slackSvc.ChangeEmoji(model.WeeklyAggregate{Change: &up}), "📈")
}
