package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/j-vseg/piwo/config"
	"github.com/j-vseg/piwo/internal/feed"
	"github.com/j-vseg/piwo/internal/service"
)

type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          *config.Config
	members      *service.MemberService
	events       *service.EventService
	activities   *service.ActivityService
	availability *service.AvailabilityService
	retention    *service.RetentionService
	server       *http.Server
}

func New(cfg *config.Config, members *service.MemberService, events *service.EventService, activities *service.ActivityService, availability *service.AvailabilityService, retention *service.RetentionService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("Authorized as @%s", api.Self.UserName)

	bot := &Bot{
		api:          api,
		cfg:          cfg,
		members:      members,
		events:       events,
		activities:   activities,
		availability: availability,
		retention:    retention,
	}

	// Set bot commands (menu button)
	bot.setCommands()

	return bot, nil
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "week", Description: "📅 This week's activities"},
		{Command: "agenda", Description: "🗓 Upcoming activities"},
		{Command: "feed", Description: "🔗 Calendar subscription link"},
		{Command: "help", Description: "❓ Command overview"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		log.Printf("Failed to set commands: %v", err)
	}
}

func (b *Bot) SetupWebhook() error {
	webhookURL := b.cfg.WebhookURL + "/bot"

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}

	_, err = b.api.Request(wh)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}

	if info.LastErrorDate != 0 {
		log.Printf("Webhook last error: %s", info.LastErrorMessage)
	}

	log.Printf("Webhook set to: %s", webhookURL)
	return nil
}

func (b *Bot) Start(ctx context.Context) error {
	updates := b.api.ListenForWebhook("/bot")

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Read-only ICS feed of the agenda
	http.HandleFunc("/feed.ics", b.handleFeed)

	b.server = &http.Server{
		Addr:    ":" + b.cfg.ServerPort,
		Handler: nil, // use DefaultServeMux
	}

	go func() {
		log.Printf("Starting webhook server on :%s", b.cfg.ServerPort)
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

func (b *Bot) Stop(ctx context.Context) error {
	if b.server != nil {
		return b.server.Shutdown(ctx)
	}
	return nil
}

func (b *Bot) handleFeed(w http.ResponseWriter, r *http.Request) {
	if b.cfg.FeedToken == "" || r.URL.Query().Get("token") != b.cfg.FeedToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	from, until := b.cfg.Window(now)
	occurrences, err := b.activities.ListOccurrences(from, until)
	if err != nil {
		log.Printf("Error building feed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data, err := feed.Encode(feed.BuildCalendar(occurrences, now))
	if err != nil {
		log.Printf("Error encoding feed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Write(data)
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = keyboard
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}
