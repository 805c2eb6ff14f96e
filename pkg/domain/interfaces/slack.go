package interfaces

import (
	"context"

	"github.com/slack-go/slack"
)

// SlackClient is the subset of *slack.Client used to publish reports
type SlackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}
