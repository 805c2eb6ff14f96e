package config

import (
	"log/slog"

	"github.com/secmon-lab/deathweek/pkg/domain/interfaces"
	slackSvc "github.com/secmon-lab/deathweek/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds Slack configuration
type Slack struct {
	OAuthToken string
	ChannelID  string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-oauth-token",
			Usage:       "Slack OAuth token for posting reports",
			Category:    "Slack",
			Sources:     cli.EnvVars("DEATHWEEK_SLACK_OAUTH_TOKEN"),
			Destination: &s.OAuthToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID to post reports to",
			Category:    "Slack",
			Sources:     cli.EnvVars("DEATHWEEK_SLACK_CHANNEL"),
			Destination: &s.ChannelID,
		},
	}
}

// ConfigureOptional creates a report publisher if configured, returns nil if not
func (s *Slack) ConfigureOptional(logger *slog.Logger) interfaces.Publisher {
	if !s.IsConfigured() {
		logger.Info("Slack not configured, reports will not be posted")
		return nil
	}

	logger.Info("Configuring Slack publisher", slog.String("channel", s.ChannelID))
	return slackSvc.New(s.OAuthToken, s.ChannelID)
}

// IsConfigured checks if both token and channel are set
func (s *Slack) IsConfigured() bool {
	return s.OAuthToken != "" && s.ChannelID != ""
}

// LogValue returns structured log value
func (s Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("has_oauth_token", s.OAuthToken != ""),
		slog.String("channel", s.ChannelID),
	)
}
