package notifier

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/models"
)

type Notifier interface {
	NotifyRegistration(student models.User, event models.Event) error
	NotifyCancellation(student models.User, event models.Event) error
}

// messageSender is the part of *discordgo.Session the notifier uses.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   messageSender
	channelID string
}

// NewDiscordNotifier builds a notifier from the bot token and channel in cfg.
func NewDiscordNotifier(cfg *config.Config) (*DiscordNotifier, error) {
	if cfg.DiscordBotToken == "" {
		return nil, errors.New("discord bot token is empty")
	}
	if cfg.DiscordNotificationsChannelID == "" {
		return nil, errors.New("discord channel ID is empty")
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: cfg.DiscordNotificationsChannelID}, nil
}

func (n *DiscordNotifier) NotifyRegistration(student models.User, event models.Event) error {
	return n.send(registrationMessage(student, event))
}

func (n *DiscordNotifier) NotifyCancellation(student models.User, event models.Event) error {
	return n.send(cancellationMessage(student, event))
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		slog.Error("failed to send discord message", "error", err)
		return err
	}
	return nil
}

func eventWhen(event models.Event) string {
	when := event.StartTime.Format("2006-01-02 15:04")
	if event.EndTime != nil {
		when += " - " + event.EndTime.Format("2006-01-02 15:04")
	}
	return when
}

func registrationMessage(student models.User, event models.Event) string {
	location := ""
	if event.Location != "" {
		location = fmt.Sprintf("\n**Location:** %s", event.Location)
	}
	return fmt.Sprintf("🎉 **New Registration**\n**Student:** %s\n**Event:** %s\n**When:** %s%s",
		student.Username,
		event.Name,
		eventWhen(event),
		location,
	)
}

func cancellationMessage(student models.User, event models.Event) string {
	return fmt.Sprintf("😢 **Registration Cancelled**\n**Student:** %s\n**Event:** %s\n**When:** %s",
		student.Username,
		event.Name,
		eventWhen(event),
	)
}

// Nop discards notifications. It is used when Discord is not configured.
type Nop struct{}

func (Nop) NotifyRegistration(models.User, models.Event) error { return nil }
func (Nop) NotifyCancellation(models.User, models.Event) error { return nil }
