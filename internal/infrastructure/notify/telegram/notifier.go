// Package telegram pushes the morning digest to a Telegram chat.
package telegram

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/studydeck/studydeck/internal/application/dashboard"
	"github.com/studydeck/studydeck/pkg/logger"
)

// Config holds notifier configuration.
type Config struct {
	// Token is the bot API token.
	Token string

	// ChatID is the destination chat.
	ChatID int64
}

// Notifier sends digest messages through the Bot API.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *logger.Logger
}

// New connects to the Bot API.
func New(cfg Config, log *logger.Logger) (*Notifier, error) {
	if log == nil {
		log = logger.Default()
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect bot: %w", err)
	}
	return &Notifier{
		api:    api,
		chatID: cfg.ChatID,
		logger: log.With(logger.Component("telegram")),
	}, nil
}

// SendDigest formats and sends the day's overview.
func (n *Notifier) SendDigest(overview dashboard.Overview) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatDigest(overview))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send digest: %w", err)
	}
	n.logger.Info("digest sent", logger.DateKey(overview.Date))
	return nil
}

// FormatDigest renders the overview as an HTML message.
func FormatDigest(overview dashboard.Overview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s — %s</b>\n", overview.DayLabel, overview.Date)

	if len(overview.Tasks) > 0 {
		b.WriteString("\n<b>Tasks</b>\n")
		for _, task := range overview.Tasks {
			mark := "○"
			if task.Done {
				mark = "✓"
			}
			fmt.Fprintf(&b, "%s %s\n", mark, html.EscapeString(task.Name))
		}
	}

	if len(overview.Classes) > 0 {
		b.WriteString("\n<b>Classes</b>\n")
		for _, c := range overview.Classes {
			line := fmt.Sprintf("%s %s", c.Time, c.Subject)
			if c.Room != "" {
				line += " (" + c.Room + ")"
			}
			b.WriteString(html.EscapeString(line) + "\n")
		}
	}

	if len(overview.Exams) > 0 {
		b.WriteString("\n<b>Exams this week</b>\n")
		for _, e := range overview.Exams {
			fmt.Fprintf(&b, "%s — %s\n", e.Date, html.EscapeString(e.Subject))
		}
	}

	if len(overview.Events) > 0 {
		b.WriteString("\n<b>Events this week</b>\n")
		for _, e := range overview.Events {
			fmt.Fprintf(&b, "%s — %s\n", e.Date, html.EscapeString(e.Name))
		}
	}

	if overview.Attendance.Total > 0 {
		fmt.Fprintf(&b, "\nAttendance: %d%%", overview.Attendance.Percent)
		if !overview.Attendance.Good() {
			b.WriteString(" ⚠")
		}
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}
