package bot

import (
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/j-vseg/piwo/internal/domain"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	member, err := b.members.GetByTelegramID(msg.From.ID)
	if err != nil {
		log.Printf("Error getting member: %v", err)
		return
	}

	if msg.IsCommand() {
		cmd := msg.Command()
		if member == nil && cmd != "start" {
			b.SendMessage(chatID, "You are not registered yet. /start to register")
			return
		}
		if member != nil && !member.Approved && cmd != "start" {
			b.SendMessage(chatID, "⏳ Your registration is still waiting for approval.")
			return
		}
		b.handleCommand(msg, member)
		return
	}

	if strings.TrimSpace(msg.Text) != "" {
		b.SendMessage(chatID, "/help for the command overview")
	}
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	msgID := callback.Message.MessageID

	member, err := b.members.GetByTelegramID(callback.From.ID)
	if err != nil {
		log.Printf("Error getting member: %v", err)
		return
	}

	parts := strings.Split(callback.Data, "|")
	action := parts[0]

	switch {
	case action == "v" && len(parts) == 2:
		b.answerCallback(callback.ID, "")
		if member == nil || !member.Approved {
			return
		}
		b.sendOccurrenceDetail(chatID, member, parts[1])

	case action == "av" && len(parts) == 3:
		if member == nil || !member.Approved {
			b.answerCallback(callback.ID, "⛔ Not approved yet")
			return
		}
		b.setAvailability(callback, member, parts[1], parts[2], chatID, msgID)

	case action == "ok" && len(parts) == 2:
		if member == nil || !member.IsAdmin() {
			b.answerCallback(callback.ID, "⛔ Admins only")
			return
		}
		b.approveMember(callback, parts[1], chatID, msgID)

	case action == "rm" && len(parts) == 2:
		// Only the account owner can confirm their own deletion.
		if member == nil || member.ID != parts[1] {
			b.answerCallback(callback.ID, "⛔ Not your account")
			return
		}
		if err := b.members.DeleteAccount(member.ID); err != nil {
			log.Printf("Error deleting account %s: %v", member.ID, err)
			b.answerCallback(callback.ID, "❌ Deletion failed")
			return
		}
		b.answerCallback(callback.ID, "Account deleted")
		b.SendMessage(chatID, "👋 Your account and all your answers are deleted.")

	default:
		b.answerCallback(callback.ID, "")
	}
}

func (b *Bot) setAvailability(callback *tgbotapi.CallbackQuery, member *domain.Member, occurrenceID, code string, chatID int64, msgID int) {
	// Resolve first so a stale button for a deleted activity fails cleanly.
	occ, err := b.activities.GetOccurrence(occurrenceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMalformedOccurrenceID) {
			b.answerCallback(callback.ID, "❌ This activity no longer exists")
			return
		}
		log.Printf("Error resolving occurrence %s: %v", occurrenceID, err)
		b.answerCallback(callback.ID, "❌ Failed to load the activity")
		return
	}

	var status *domain.Status
	if s, ok := statusFromCode(code); ok {
		status = &s
	}

	if err := b.availability.SetStatus(occ.ID, member.ID, status); err != nil {
		log.Printf("Error setting availability: %v", err)
		b.answerCallback(callback.ID, "❌ Saving failed")
		return
	}

	if status != nil {
		b.answerCallback(callback.ID, "Saved "+domain.StatusEmoji(*status))
	} else {
		b.answerCallback(callback.ID, "Answer cleared")
	}

	// Refresh the detail message in place.
	text, err := b.renderOccurrence(occ)
	if err != nil {
		log.Printf("Error rendering occurrence: %v", err)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = "HTML"
	kb := availabilityKeyboard(occ.ID, status)
	edit.ReplyMarkup = &kb
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error updating detail message: %v", err)
	}
}

func (b *Bot) approveMember(callback *tgbotapi.CallbackQuery, memberID string, chatID int64, msgID int) {
	if err := b.members.Approve(memberID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			b.answerCallback(callback.ID, "❌ Member no longer exists")
			return
		}
		log.Printf("Error approving member %s: %v", memberID, err)
		b.answerCallback(callback.ID, "❌ Approval failed")
		return
	}
	b.answerCallback(callback.ID, "Approved ✅")

	edit := tgbotapi.NewEditMessageText(chatID, msgID, callback.Message.Text+"\n\n✅ Approved")
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error updating approval message: %v", err)
	}

	approved, err := b.members.Get(memberID)
	if err != nil {
		log.Printf("Error getting approved member: %v", err)
		return
	}
	if err := b.SendMessage(approved.TelegramID, "🎉 You're approved! /week to see this week's activities"); err != nil {
		log.Printf("Error notifying approved member: %v", err)
	}
}

func (b *Bot) sendOccurrenceDetail(chatID int64, member *domain.Member, occurrenceID string) {
	occ, err := b.activities.GetOccurrence(occurrenceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMalformedOccurrenceID) {
			b.SendMessage(chatID, "❌ Activity not found.")
			return
		}
		log.Printf("Error resolving occurrence %s: %v", occurrenceID, err)
		b.SendMessage(chatID, "❌ Failed to load the activity.")
		return
	}

	text, err := b.renderOccurrence(occ)
	if err != nil {
		log.Printf("Error rendering occurrence: %v", err)
		b.SendMessage(chatID, "❌ Failed to load the attendance.")
		return
	}

	var current *domain.Status
	if member != nil {
		current, err = b.availability.GetStatus(occ.ID, member.ID)
		if err != nil {
			log.Printf("Error getting status: %v", err)
		}
	}

	b.SendMessageWithKeyboard(chatID, text, availabilityKeyboard(occ.ID, current))
}

// renderOccurrence formats the detail view with per-status attendee lists.
func (b *Bot) renderOccurrence(occ domain.Occurrence) (string, error) {
	grouped, err := b.availability.GroupByStatus(occ.ID)
	if err != nil {
		return "", err
	}
	names, err := b.members.DisplayNames()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s</b>\n", domain.CategoryEmoji(occ.Category), occ.Name))
	sb.WriteString(fmt.Sprintf("📅 %s %s\n\n", occ.FormatDate(b.cfg.Timezone), occ.FormatTime(b.cfg.Timezone)))

	sb.WriteString("<b>Attendance</b>\n")
	for _, status := range domain.Statuses {
		memberIDs := grouped[status]
		var displayNames []string
		for _, id := range memberIDs {
			if name, ok := names[id]; ok {
				displayNames = append(displayNames, name)
			}
		}
		line := "—"
		if len(displayNames) > 0 {
			line = strings.Join(displayNames, ", ")
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", domain.StatusEmoji(status), line))
	}

	return sb.String(), nil
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}
