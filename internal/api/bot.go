package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	app "soil-bot/internal/application"
	"soil-bot/internal/container"
	"soil-bot/internal/domain/entity"
)

const historyLimit = 10

const (
	msgStart = `👋 Hi! I guide you through a soil sample analysis.

📋 Protocol:
1️⃣ Send the sampling location
2️⃣ Send a photo of the sample (or /camera then /capture)
3️⃣ /total — weigh the unwashed sample
4️⃣ /gravel — weigh the gravel fraction
5️⃣ /sand — weigh the sand fraction and classify

Send /analyze to begin, /help for all commands.`

	msgHelp = `ℹ️ Commands:

/analyze — show the current analysis step
/location <text> — set the sampling location
/camera — start the lab camera
/capture — take a photo with the lab camera
/total — record total weight (1)
/gravel — record gravel weight (2)
/sand — record sand weight and classify (3)
/check — read the scale without recording (W)
/reset — start over (R)
/status — current session
/history — recent analyses
/token <jwt> — authorize the final weighing
/logout — forget the token`

	msgProcessing      = "⏳ Processing..."
	msgUnknownCommand  = "❓ Unknown command. Use /help for the list of commands."
	msgProcessingError = "⚠️ Something went wrong. Please try again."
	msgTokenSaved      = "🔑 Token saved. You can now complete the sand weighing."
	msgLoggedOut       = "🔒 Token removed."
	msgCameraStarted   = "📷 Camera started. Send /capture when the sample is in frame."
)

// sender отправка сообщений в Telegram
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api       *tgbotapi.BotAPI
	sender    sender
	operators *app.OperatorService
	analysis  *app.AnalysisService
	download  func(ctx context.Context, fileID string) ([]byte, error)
	log       *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, eris.Wrap(err, "telegram: connect")
	}

	log.Info("authorized on account", zap.String("username", api.Self.UserName))

	b := &Bot{
		api:       api,
		sender:    api,
		operators: c.OperatorService,
		analysis:  c.AnalysisService,
		log:       log,
	}
	b.download = b.downloadFile
	return b, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx.
// Каждое сообщение обрабатывается в своей горутине, поэтому долгий
// вызов весов не блокирует других операторов.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}

			msg := update.Message
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleMessage(ctx, msg)
			}()
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	b.handleText(ctx, msg)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	operatorID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "analyze", "status":
		snap, err := b.analysis.Status(ctx, operatorID, chatID)
		b.reply(chatID, snap, err)

	case "location":
		snap, err := b.analysis.SubmitLocation(ctx, operatorID, chatID, msg.CommandArguments())
		b.reply(chatID, snap, err)

	case "camera":
		if err := b.analysis.StartCamera(ctx, operatorID, chatID); err != nil {
			b.sendMessage(chatID, renderError(err))
			return
		}
		b.sendMessage(chatID, msgCameraStarted)

	case "capture":
		b.sendMessage(chatID, msgProcessing)
		snap, err := b.analysis.CaptureImage(ctx, operatorID, chatID)
		b.reply(chatID, snap, err)

	case "total":
		b.recordWeight(ctx, msg, entity.WeightTotal)

	case "gravel":
		b.recordWeight(ctx, msg, entity.WeightGravel)

	case "sand":
		b.recordWeight(ctx, msg, entity.WeightSand)

	case "check":
		weight, err := b.analysis.CheckWeight(ctx, operatorID, chatID)
		if err != nil {
			b.sendMessage(chatID, renderError(err))
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("⚖️ Current weight: %.2f g", weight))

	case "reset":
		snap, err := b.analysis.Reset(ctx, operatorID, chatID)
		b.reply(chatID, snap, err)

	case "history":
		records, err := b.analysis.History(ctx, operatorID, historyLimit)
		if err != nil {
			b.log.Error("load history", zap.Int64("operator_id", operatorID), zap.Error(err))
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, renderHistory(records))

	case "token":
		if _, err := b.operators.Authorize(ctx, operatorID, chatID, msg.CommandArguments()); err != nil {
			b.sendMessage(chatID, renderError(err))
			return
		}
		b.sendMessage(chatID, msgTokenSaved)

	case "logout":
		if err := b.operators.Logout(ctx, operatorID, chatID); err != nil {
			b.log.Error("logout", zap.Int64("operator_id", operatorID), zap.Error(err))
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, msgLoggedOut)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) recordWeight(ctx context.Context, msg *tgbotapi.Message, kind entity.WeightKind) {
	operatorID, chatID := msg.From.ID, msg.Chat.ID

	auth := entity.Auth{}
	if kind == entity.WeightSand {
		var err error
		if auth, err = b.operators.Auth(ctx, operatorID, chatID); err != nil {
			b.log.Error("load operator token", zap.Int64("operator_id", operatorID), zap.Error(err))
			b.sendMessage(chatID, msgProcessingError)
			return
		}
	}

	b.sendMessage(chatID, msgProcessing)
	snap, err := b.analysis.RecordWeight(ctx, operatorID, chatID, kind, auth)
	b.reply(chatID, snap, err)
}

// handlePhoto обрабатывает входящее фото пробы
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	operatorID, chatID := msg.From.ID, msg.Chat.ID

	b.sendMessage(chatID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.download(ctx, photo.FileID)
	if err != nil {
		b.log.Error("download photo", zap.Int64("operator_id", operatorID), zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	b.log.Debug("received image", zap.Int64("operator_id", operatorID), zap.Int("bytes", len(imageData)))

	snap, err := b.analysis.SubmitImage(ctx, operatorID, chatID, imageData)
	b.reply(chatID, snap, err)
}

// handleText принимает текст как место отбора пробы, если его ждём
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	operatorID, chatID := msg.From.ID, msg.Chat.ID

	snap, err := b.analysis.Status(ctx, operatorID, chatID)
	if err != nil {
		b.sendMessage(chatID, renderError(err))
		return
	}
	if snap.Step != entity.StepAwaitingLocation {
		b.sendMessage(chatID, "📋 "+snap.Step.Prompt())
		return
	}

	snap, err = b.analysis.SubmitLocation(ctx, operatorID, chatID, msg.Text)
	b.reply(chatID, snap, err)
}

// reply отправляет состояние сессии или ошибку
func (b *Bot) reply(chatID int64, snap entity.SessionSnapshot, err error) {
	if err != nil {
		b.log.Info("operation rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendMessage(chatID, renderError(err))
		return
	}
	b.sendMessage(chatID, renderSession(snap))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, eris.Wrap(err, "telegram: get file")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, eris.Wrap(err, "telegram: build download request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "telegram: download file")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("telegram: download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "telegram: read file")
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Warn("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
