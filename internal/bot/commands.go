package bot

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/j-vseg/piwo/internal/domain"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message, member *domain.Member) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	switch cmd {
	case "start":
		b.cmdStart(msg)
	case "help":
		b.cmdHelp(chatID, member)
	case "week":
		b.cmdWeek(chatID)
	case "agenda":
		b.cmdAgenda(chatID)
	case "activity":
		b.cmdActivity(chatID, member, args)
	case "feed":
		b.cmdFeed(chatID)
	case "deleteme":
		b.cmdDeleteMe(chatID, member)
	case "addactivity":
		b.cmdAddActivity(chatID, member, args)
	case "delactivity":
		b.cmdDelActivity(chatID, member, args)
	case "activities":
		b.cmdActivities(chatID, member)
	case "sweep":
		b.cmdSweep(chatID, member)
	default:
		b.SendMessage(chatID, "Unknown command. /help for the command overview")
	}
}

func (b *Bot) cmdStart(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	telegramID := msg.From.ID

	member, err := b.members.GetByTelegramID(telegramID)
	if err != nil {
		log.Printf("Error getting member: %v", err)
		return
	}
	if member != nil {
		if !member.Approved {
			b.SendMessage(chatID, "⏳ Your registration is still waiting for approval.")
			return
		}
		b.SendMessage(chatID, fmt.Sprintf("👋 Welcome back, %s!", member.FirstName))
		return
	}

	member, err = b.members.Register(telegramID, msg.From.FirstName, msg.From.LastName, b.cfg.IsAdmin(telegramID))
	if err != nil {
		log.Printf("Error registering member: %v", err)
		b.SendMessage(chatID, "❌ Registration failed, please try again later.")
		return
	}

	if member.Approved {
		b.SendMessage(chatID, fmt.Sprintf("👋 Hi %s! You're registered as admin.\n\n/help — command overview", member.FirstName))
		return
	}

	b.SendMessage(chatID, fmt.Sprintf("👋 Hi %s! Your registration has been sent to the admins for approval.", member.FirstName))
	b.notifyAdmins(fmt.Sprintf("🆕 <b>%s</b> wants to join.", member.DisplayName()), approveKeyboard(member.ID))
}

func (b *Bot) notifyAdmins(text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	for _, adminID := range b.cfg.AdminTelegramIDs {
		if err := b.SendMessageWithKeyboard(adminID, text, keyboard); err != nil {
			log.Printf("Error notifying admin %d: %v", adminID, err)
		}
	}
}

func (b *Bot) cmdHelp(chatID int64, member *domain.Member) {
	text := `<b>Commands:</b>

<b>Activities</b>
/week — this week's activities
/agenda — upcoming activities
/feed — calendar subscription link

<b>Account</b>
/deleteme — delete your account
/help — this overview

Tap an activity to give your availability.`

	if member != nil && member.IsAdmin() {
		text += `

<b>Admin</b>
/addactivity 2026-09-05 18:00-20:00 group [repeat:weekly] Name
/activities — all activities with ids
/delactivity ID — delete an activity
/sweep — run the retention sweep now`
	}

	b.SendMessage(chatID, text)
}

func (b *Bot) cmdWeek(chatID int64) {
	now := time.Now().In(b.cfg.Timezone)
	b.sendGroupedAgenda(chatID, "📅 <b>This week</b>", now, endOfWeek(now))
}

func (b *Bot) cmdAgenda(chatID int64) {
	from, until := b.cfg.Window(time.Now().In(b.cfg.Timezone))
	b.sendGroupedAgenda(chatID, "🗓 <b>Upcoming activities</b>", from, until)
}

func (b *Bot) sendGroupedAgenda(chatID int64, header string, from, until time.Time) {
	groups, err := b.activities.ListGroupedByDate(from, until)
	if err != nil {
		log.Printf("Error listing occurrences: %v", err)
		b.SendMessage(chatID, "❌ Failed to load the activities.")
		return
	}
	if len(groups) == 0 {
		b.SendMessage(chatID, header+"\n\nNo planned activities.")
		return
	}

	var sb strings.Builder
	sb.WriteString(header + "\n\n")
	var flat []domain.Occurrence
	for _, g := range groups {
		sb.WriteString("<b>" + strings.ToUpper(g.Date.Format("Mon 02 Jan")) + "</b>\n")
		for _, occ := range g.Occurrences {
			sb.WriteString(fmt.Sprintf("  %s %s %s\n", domain.CategoryEmoji(occ.Category), occ.FormatTime(b.cfg.Timezone), occ.Name))
			flat = append(flat, occ)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Tap an activity for details and availability:")

	kb := occurrenceListKeyboard(flat, b.cfg.Timezone)
	if kb == nil {
		b.SendMessage(chatID, sb.String())
		return
	}
	b.SendMessageWithKeyboard(chatID, sb.String(), *kb)
}

func (b *Bot) cmdActivity(chatID int64, member *domain.Member, args string) {
	if args == "" {
		b.SendMessage(chatID, "Usage: /activity OCCURRENCE-ID")
		return
	}
	b.sendOccurrenceDetail(chatID, member, args)
}

func (b *Bot) cmdFeed(chatID int64) {
	if b.cfg.FeedToken == "" {
		b.SendMessage(chatID, "The calendar feed is not enabled.")
		return
	}
	url := fmt.Sprintf("%s/feed.ics?token=%s", b.cfg.WebhookURL, b.cfg.FeedToken)
	b.SendMessage(chatID, "🔗 Subscribe to the agenda from your calendar app:\n\n"+url)
}

func (b *Bot) cmdDeleteMe(chatID int64, member *domain.Member) {
	if member == nil {
		b.SendMessage(chatID, "You are not registered. /start to register")
		return
	}
	b.SendMessageWithKeyboard(chatID,
		"⚠️ This deletes your account and all your availability answers. This cannot be undone.",
		deleteAccountKeyboard(member.ID))
}

func (b *Bot) cmdAddActivity(chatID int64, member *domain.Member, args string) {
	if member == nil || !member.IsAdmin() {
		b.SendMessage(chatID, "⛔ Admins only")
		return
	}

	name, category, start, end, rec, err := b.events.ParseAddArgs(args, b.cfg.Timezone)
	if err != nil {
		b.SendMessage(chatID, "❌ "+err.Error())
		return
	}

	event, err := b.events.Create(name, category, start, end, rec)
	if err != nil {
		b.SendMessage(chatID, "❌ "+err.Error())
		return
	}

	text := fmt.Sprintf("✅ Added <b>%s</b> (%s) on %s", event.Name, event.Category, start.Format("Mon 02 Jan 15:04"))
	if event.IsRecurring() {
		text += ", " + event.Recurrence.Describe()
	}
	b.SendMessage(chatID, text)
}

func (b *Bot) cmdDelActivity(chatID int64, member *domain.Member, args string) {
	if member == nil || !member.IsAdmin() {
		b.SendMessage(chatID, "⛔ Admins only")
		return
	}
	if args == "" {
		b.SendMessage(chatID, "Usage: /delactivity ID (see /activities)")
		return
	}

	if err := b.events.Delete(args); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			b.SendMessage(chatID, "❌ No activity with that id.")
			return
		}
		log.Printf("Error deleting event %s: %v", args, err)
		b.SendMessage(chatID, "❌ Failed to delete the activity.")
		return
	}
	b.SendMessage(chatID, "🗑 Activity and all its availability answers deleted.")
}

func (b *Bot) cmdActivities(chatID int64, member *domain.Member) {
	if member == nil || !member.IsAdmin() {
		b.SendMessage(chatID, "⛔ Admins only")
		return
	}

	events, err := b.events.List()
	if err != nil {
		log.Printf("Error listing events: %v", err)
		b.SendMessage(chatID, "❌ Failed to load the activities.")
		return
	}
	if len(events) == 0 {
		b.SendMessage(chatID, "No activities yet. /addactivity to create one")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>All activities:</b>\n\n")
	for _, e := range events {
		sb.WriteString(fmt.Sprintf("%s <b>%s</b>\n<code>%s</code>\n%s",
			domain.CategoryEmoji(e.Category), e.Name, e.ID,
			e.StartDate.In(b.cfg.Timezone).Format("Mon 02 Jan 15:04")))
		if e.IsRecurring() {
			sb.WriteString(", " + e.Recurrence.Describe())
		}
		sb.WriteString("\n\n")
	}
	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdSweep(chatID int64, member *domain.Member) {
	if member == nil || !member.IsAdmin() {
		b.SendMessage(chatID, "⛔ Admins only")
		return
	}

	result, err := b.retention.Sweep(time.Now())
	text := fmt.Sprintf("🧹 Sweep done: %d availability records and %d expired activities removed.", result.RecordsDeleted, result.EventsDeleted)
	if err != nil {
		text += "\n⚠️ Some items failed and will be retried on the next sweep."
		log.Printf("Manual sweep errors: %v", err)
	}
	b.SendMessage(chatID, text)
}

// endOfWeek returns the start of the next Monday in t's location.
func endOfWeek(t time.Time) time.Time {
	days := int(time.Monday - t.Weekday())
	if days <= 0 {
		days += 7
	}
	day := t.AddDate(0, 0, days)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}
