package notify

import (
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/Dosada05/tkd-tournament/services"
)

const defaultQueueSize = 64

// Sender - часть tgbotapi.BotAPI, которая нужна для отправки сообщений.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramConfig struct {
	Token     string
	ChatID    int64
	QueueSize int
}

func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

// Telegram пересылает итоги поединков и импорта в чат судейской коллегии.
// Publish не блокирует: при переполненной очереди сообщение отбрасывается.
type Telegram struct {
	sender Sender
	chatID int64
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan string
	done   chan struct{}
}

func NewTelegram(cfg TelegramConfig, logger *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	bot.Debug = false
	return NewTelegramWithSender(bot, cfg.ChatID, cfg.QueueSize, logger), nil
}

func NewTelegramWithSender(sender Sender, chatID int64, queueSize int, logger *slog.Logger) *Telegram {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &Telegram{
		sender: sender,
		chatID: chatID,
		logger: logger,
		queue:  make(chan string, queueSize),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Telegram) Publish(eventType string, payload interface{}) {
	text, ok := FormatEvent(eventType, payload)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- text:
	default:
		t.logger.Warn("telegram queue is full, message dropped", slog.String("event", eventType))
	}
}

// Stop дожидается отправки уже поставленных в очередь сообщений.
func (t *Telegram) Stop() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()
	<-t.done
}

func (t *Telegram) run() {
	defer close(t.done)
	for text := range t.queue {
		if _, err := t.sender.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
			t.logger.Error("telegram send failed", slog.Int64("chat_id", t.chatID), slog.Any("error", err))
		}
	}
}

// FormatEvent возвращает текст сообщения; false - событие в чат не идёт.
func FormatEvent(eventType string, payload interface{}) (string, bool) {
	switch eventType {
	case services.EventWinnerDeclared:
		m, ok := payload.(*models.Match)
		if !ok || m.WinnerID == nil {
			return "", false
		}
		return fmt.Sprintf("Ринг %s, раунд %d, поединок #%d: победил #%d (красный #%d, синий #%d)",
			m.Ring, m.Round, m.ID, *m.WinnerID, m.RedAthleteID, m.BlueAthleteID), true

	case services.EventResultRecorded:
		r, ok := payload.(*models.Result)
		if !ok {
			return "", false
		}
		text := fmt.Sprintf("Категория #%d: %d место - спортсмен #%d", r.CategoryID, r.Place, r.AthleteID)
		if r.Medal != "" {
			text += fmt.Sprintf(" (%s)", r.Medal)
		}
		return text, true

	case services.EventRosterImported:
		rep, ok := payload.(*services.SyncReport)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("Импорт заявок %s: получено %d, добавлено %d, пропущено %d",
			rep.CompetitionID, rep.Fetched, rep.Imported, rep.Skipped), true
	}
	return "", false
}
