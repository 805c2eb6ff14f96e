package slack

import (
	"fmt"
	"strings"
	"time"

	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/slack-go/slack"
)

// maxSectionText is Slack's limit for a section block text
const maxSectionText = 3000

// FormatChange formats a week-over-week change with an explicit sign
func FormatChange(w model.WeeklyAggregate) string {
	if !w.HasChange() {
		return "n/a"
	}
	c := *w.Change
	switch {
	case c > 0:
		return fmt.Sprintf("+%d", c)
	default:
		return fmt.Sprintf("%d", c)
	}
}

// ChangeEmoji returns an arrow for the direction of change
func ChangeEmoji(w model.WeeklyAggregate) string {
	switch {
	case !w.HasChange():
		return "➖"
	case *w.Change > 0:
		return "📈"
	case *w.Change < 0:
		return "📉"
	default:
		return "➖"
	}
}

// SummaryText returns the plain text fallback for a report message
func SummaryText(report *model.Report) string {
	latest, ok := report.LatestCompleteWeek()
	if !ok {
		return "UK Covid-19 deaths: no complete week in the data"
	}
	return fmt.Sprintf("UK Covid-19 deaths: week starting %s had %d deaths (%s on previous week)",
		latest.WeekStart.Format(time.DateOnly), latest.TotalDeaths, FormatChange(latest))
}

// BuildReportBlocks builds the Slack message blocks for a report
func BuildReportBlocks(report *model.Report) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, "UK Covid-19 deaths: weekly report", false, false),
		),
	}

	if latest, ok := report.LatestCompleteWeek(); ok {
		fields := []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*Week starting*\n%s", latest.WeekStart.Format(time.DateOnly)), false, false),
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*Deaths*\n%d", latest.TotalDeaths), false, false),
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*Change*\n%s %s", ChangeEmoji(latest), FormatChange(latest)), false, false),
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*Complete weeks*\n%d", len(report.CompleteWeeks())), false, false),
		}
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	} else {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "_No complete week in the data._", false, false),
			nil, nil))
	}

	if report.Narrative != "" {
		text := report.Narrative
		if runes := []rune(text); len(runes) > maxSectionText {
			text = string(runes[:maxSectionText-3]) + "..."
		}
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		)
	}

	if len(report.PartialWeeks) > 0 {
		parts := make([]string, 0, len(report.PartialWeeks))
		for _, w := range report.PartialWeeks {
			parts = append(parts, fmt.Sprintf("%s (%d/%d days, %d deaths)",
				w.WeekStart.Format(time.DateOnly), w.DayCount, model.DaysPerWeek, w.TotalDeaths))
		}
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType,
				"Excluded partial weeks: "+strings.Join(parts, ", "), false, false),
		))
	}

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("Report `%s` generated %s", report.ID, report.GeneratedAt.UTC().Format(time.RFC3339)), false, false),
	))
	return blocks
}
