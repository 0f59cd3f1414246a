package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gopkg.in/gomail.v2"

	"taskdeck/internal/models"
)

// NotifierService pushes transition notifications to Telegram and sends
// the overdue digest mail. Both channels are optional; a notifier with
// neither configured is a no-op.
type NotifierService struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	dialer   *gomail.Dialer
	from     string
	digestTo string
}

func NewNotifierService(botToken string, chatID int64, smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, digestTo string) *NotifierService {
	n := &NotifierService{chatID: chatID, from: fromEmail, digestTo: digestTo}
	if botToken != "" {
		bot, err := tgbotapi.NewBotAPI(botToken)
		if err != nil {
			log.Printf("[notify][tg][warn] bot init failed: %v", err)
		} else {
			n.bot = bot
		}
	}
	if smtpHost != "" {
		n.dialer = gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	}
	return n
}

// NotifyStatusChanged announces an automatic status change.
func (n *NotifierService) NotifyStatusChanged(task *models.Task, from, to models.TaskStatus) {
	if n == nil || n.bot == nil || n.chatID == 0 {
		return
	}
	text := fmt.Sprintf("Task %q moved from %s to %s", task.Title, from, to)
	if to == models.StatusOverdue {
		text = fmt.Sprintf("Task %q is overdue", task.Title)
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("[notify][tg][err] send failed: %v", err)
	}
}

// SendOverdueDigest mails the list of overdue tasks.
func (n *NotifierService) SendOverdueDigest(tasks []models.Task) error {
	if n == nil || n.dialer == nil || n.digestTo == "" || len(tasks) == 0 {
		return nil
	}
	body := "<h3>Overdue tasks</h3><ul>"
	for _, t := range tasks {
		line := t.Title
		if due, ok := t.DueAt(); ok {
			line = fmt.Sprintf("%s (due %s)", t.Title, due.Format("2006-01-02 15:04"))
		}
		body += "<li>" + line + "</li>"
	}
	body += "</ul>"

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.digestTo)
	m.SetHeader("Subject", fmt.Sprintf("Taskdeck: %d overdue task(s)", len(tasks)))
	m.SetBody("text/html", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send overdue digest: %w", err)
	}
	return nil
}
