package slack

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/interfaces"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Publisher posts reports and their charts to a Slack channel
type Publisher struct {
	client    interfaces.SlackClient
	channelID string
}

// New creates a Publisher backed by a Slack OAuth token
func New(token, channelID string) *Publisher {
	return NewPublisher(slack.New(token), channelID)
}

// NewPublisher creates a Publisher with the given client
func NewPublisher(client interfaces.SlackClient, channelID string) *Publisher {
	return &Publisher{
		client:    client,
		channelID: channelID,
	}
}

// Publish implements interfaces.Publisher. Charts are uploaded into the summary
// message's thread.
func (p *Publisher) Publish(ctx context.Context, report *model.Report) error {
	if report == nil {
		return goerr.New("report is nil")
	}
	logger := ctxlog.From(ctx)

	_, ts, err := p.client.PostMessageContext(ctx, p.channelID,
		slack.MsgOptionText(SummaryText(report), false),
		slack.MsgOptionBlocks(BuildReportBlocks(report)...),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post report to Slack",
			goerr.T(model.ErrTagNetwork),
			goerr.V("channel", p.channelID))
	}

	for _, c := range report.Charts {
		info, err := os.Stat(c.Path)
		if err != nil {
			return goerr.Wrap(err, "failed to stat chart",
				goerr.T(model.ErrTagIO),
				goerr.V("path", c.Path))
		}

		_, err = p.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
			Channel:         p.channelID,
			ThreadTimestamp: ts,
			File:            c.Path,
			FileSize:        int(info.Size()),
			Filename:        filepath.Base(c.Path),
			Title:           c.Name.String(),
		})
		if err != nil {
			return goerr.Wrap(err, "failed to upload chart to Slack",
				goerr.T(model.ErrTagNetwork),
				goerr.V("channel", p.channelID),
				goerr.V("chart", c.Name))
		}
	}

	logger.Info("report published to Slack",
		"channel", p.channelID,
		"report", report.ID,
		"charts", len(report.Charts))
	return nil
}
