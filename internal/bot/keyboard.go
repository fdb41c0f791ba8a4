package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/j-vseg/piwo/internal/domain"
)

// Callback data stays under Telegram's 64-byte limit: short prefixes,
// single-letter status codes and 20-char event ids leave room for the
// 25-char occurrence timestamp suffix.

func statusCode(s domain.Status) string {
	switch s {
	case domain.StatusPresent:
		return "p"
	case domain.StatusAbsent:
		return "a"
	case domain.StatusMaybe:
		return "m"
	}
	return "x"
}

func statusFromCode(code string) (domain.Status, bool) {
	switch code {
	case "p":
		return domain.StatusPresent, true
	case "a":
		return domain.StatusAbsent, true
	case "m":
		return domain.StatusMaybe, true
	}
	return "", false
}

// availabilityKeyboard offers the three answers plus a clear button. The
// member's current answer is marked.
func availabilityKeyboard(occurrenceID string, current *domain.Status) tgbotapi.InlineKeyboardMarkup {
	label := func(s domain.Status, text string) string {
		if current != nil && *current == s {
			return "• " + text
		}
		return text
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label(domain.StatusPresent, "✅ Present"), "av|"+occurrenceID+"|p"),
			tgbotapi.NewInlineKeyboardButtonData(label(domain.StatusAbsent, "❌ Absent"), "av|"+occurrenceID+"|a"),
			tgbotapi.NewInlineKeyboardButtonData(label(domain.StatusMaybe, "❓ Maybe"), "av|"+occurrenceID+"|m"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Clear answer", "av|"+occurrenceID+"|x"),
		),
	)
}

// occurrenceListKeyboard renders one view button per occurrence.
func occurrenceListKeyboard(occurrences []domain.Occurrence, loc *time.Location) *tgbotapi.InlineKeyboardMarkup {
	if len(occurrences) == 0 {
		return nil
	}

	const maxRows = 10
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, occ := range occurrences {
		if len(rows) == maxRows {
			break
		}
		label := domain.CategoryEmoji(occ.Category) + " " + occ.FormatDate(loc) + " " + truncate(occ.Name, 25)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "v|"+occ.ID),
		))
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func approveKeyboard(memberID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "ok|"+memberID),
		),
	)
}

func deleteAccountKeyboard(memberID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, delete my account", "rm|"+memberID),
		),
	)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
