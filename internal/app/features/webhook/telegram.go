// internal/app/features/webhook/telegram.go
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-telegram/bot/models"
	"github.com/nestoreco/nestor/internal/app/system/aiflows"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/llm"
	"github.com/nestoreco/nestor/internal/app/system/telegram"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Replies sent when the message cannot be answered.
const (
	replyDisabled = "AI assistance is not enabled on this server."
	replyTooLarge = "That file is too large to process (limit 20 MB)."
	replyFailed   = "Sorry, I could not process that message. Please try again later."
)

// HandleTelegram handles POST /webhook/telegram.
//
// Anything past the secret check answers 200 so Telegram does not
// redeliver an update that failed on our side.
func (h *Handler) HandleTelegram(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.Metrics.Webhook(appmetrics.OutcomeError)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxWebhookBody)
	var upd models.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.Log.Warn("telegram update not decodable", zap.Error(err))
		h.Metrics.Webhook(appmetrics.OutcomeError)
		w.WriteHeader(http.StatusOK)
		return
	}

	msg := upd.Message
	if msg == nil {
		h.Metrics.Webhook(appmetrics.OutcomeNoop)
		w.WriteHeader(http.StatusOK)
		return
	}
	_, hasFile := telegram.File(msg)
	if telegram.Body(msg) == "" && !hasFile {
		h.Metrics.Webhook(appmetrics.OutcomeNoop)
		w.WriteHeader(http.StatusOK)
		return
	}

	outcome := h.process(r.Context(), upd.ID, msg)
	h.Metrics.Webhook(outcome)
	w.WriteHeader(http.StatusOK)
}

// authorized compares the secret token header in constant time. An empty
// configured secret rejects everything.
func (h *Handler) authorized(r *http.Request) bool {
	if h.Secret == "" {
		return false
	}
	got := r.Header.Get(telegram.SecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) == 1
}

func (h *Handler) process(ctx context.Context, updateID int64, msg *models.Message) string {
	log := h.Log.With(zap.Int64("update_id", updateID), zap.Int64("chat_id", msg.Chat.ID))

	if !h.Flows.Enabled() {
		h.reply(ctx, log, msg.Chat.ID, replyDisabled)
		return appmetrics.OutcomeNoop
	}

	in := aiflows.MessageInput{Text: telegram.Body(msg)}
	if ref, ok := telegram.File(msg); ok {
		dctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), log, "telegram.download")
		data, err := h.Bot.Download(dctx, ref.FileID)
		cancel()
		switch {
		case errors.Is(err, telegram.ErrFileTooLarge):
			h.reply(ctx, log, msg.Chat.ID, replyTooLarge)
			return appmetrics.OutcomeNoop
		case err != nil:
			log.Error("telegram download failed", zap.String("file_id", ref.FileID), zap.Error(err))
			h.reply(ctx, log, msg.Chat.ID, replyFailed)
			return appmetrics.OutcomeError
		}
		mime := ref.MimeType
		if mime == "" {
			mime = http.DetectContentType(data)
		}
		in.File = &llm.File{MIMEType: mime, Data: data}
		in.FileName = ref.FileName
	}

	pctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), log, "telegram.projects")
	projects, err := h.Projects.All(pctx)
	cancel()
	if err != nil {
		// The model can still answer without project context.
		log.Warn("loading projects for telegram context failed", zap.Error(err))
	}
	in.Projects = projects

	answer, err := h.Flows.ProcessMessage(ctx, in)
	if err != nil {
		h.reply(ctx, log, msg.Chat.ID, replyFailed)
		return appmetrics.OutcomeError
	}
	if !h.reply(ctx, log, msg.Chat.ID, answer) {
		return appmetrics.OutcomeError
	}
	return appmetrics.OutcomeOK
}

func (h *Handler) reply(ctx context.Context, log *zap.Logger, chatID int64, text string) bool {
	sctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), log, "telegram.send")
	defer cancel()
	if err := h.Bot.SendMessage(sctx, chatID, text); err != nil {
		log.Error("telegram sendMessage failed", zap.Error(err))
		return false
	}
	return true
}
