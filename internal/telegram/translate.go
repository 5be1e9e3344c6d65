package telegram

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	usagedomain "github.com/ahlabot/ahlabot/internal/usage/domain"
)

var (
	replyMarkup = &tele.ReplyMarkup{}

	btnExplain  = replyMarkup.Data("📖 Разбор", "explain")
	btnQuizNext = replyMarkup.Data("🎲 Квиз", "quiz_next")
)

func translationKeyboard() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(btnExplain, btnQuizNext))
	return m
}

func (h *Handler) onText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return nil
	}

	userID := c.Sender().ID

	// An open receipt intake claims the chat's messages first.
	if h.receipts.Awaiting(userID) {
		return h.handleReceipt(c)
	}

	ctx, cancel := h.ctx()
	defer cancel()

	if ok, reason := h.usage.TryConsumeMessage(ctx, userID, usagedomain.KindText, utf8.RuneCountInString(text)); !ok {
		return c.Send(reason)
	}

	translation, err := h.nlp.Translate(ctx, text)
	if err != nil {
		h.log.Warn("translation failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send("Перевод сейчас недоступен, попробуйте ещё раз чуть позже.")
	}

	h.rememberExchange(userID, text, translation)
	return c.Send(renderTranslation(text, translation), translationKeyboard())
}

func (h *Handler) onVoice(c tele.Context) error {
	userID := c.Sender().ID

	voice := c.Message().Voice
	if voice == nil {
		return nil
	}

	ctx, cancel := h.ctx()
	defer cancel()

	if ok, reason := h.usage.TryConsumeMessage(ctx, userID, usagedomain.KindAudio, voice.Duration); !ok {
		return c.Send(reason)
	}

	rc, err := h.bot.File(&voice.File)
	if err != nil {
		h.log.Warn("voice download failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send("Не получилось скачать голосовое, попробуйте ещё раз.")
	}
	defer rc.Close()

	audio, err := io.ReadAll(rc)
	if err != nil {
		return c.Send("Не получилось скачать голосовое, попробуйте ещё раз.")
	}

	transcript, err := h.nlp.Transcribe(ctx, audio)
	if err != nil {
		h.log.Warn("transcription failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send("Распознавание сейчас недоступно, попробуйте позже.")
	}
	if strings.TrimSpace(transcript) == "" {
		return c.Send("Не расслышал — в голосовом не нашлось речи.")
	}

	translation, err := h.nlp.Translate(ctx, transcript)
	if err != nil {
		h.log.Warn("translation failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send("🎤 " + transcript + "\n\nПеревод сейчас недоступен, попробуйте позже.")
	}

	h.rememberExchange(userID, transcript, translation)
	return c.Send("🎤 "+renderTranslation(transcript, translation), translationKeyboard())
}

func (h *Handler) onExplain(c tele.Context) error {
	userID := c.Sender().ID

	ex, ok := h.lastExchange(userID)
	if !ok {
		if err := c.Respond(&tele.CallbackResponse{Text: "Сначала пришлите фразу."}); err != nil {
			return err
		}
		return nil
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "Разбираю..."}); err != nil {
		h.log.Warn("callback ack failed", zap.Error(err))
	}

	ctx, cancel := h.ctx()
	defer cancel()

	explanation, err := h.nlp.Explain(ctx, ex.source, ex.translation)
	if err != nil {
		h.log.Error("explain failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send("Разбор сейчас недоступен.")
	}

	text := explanation.Text
	if explanation.Offline {
		text += "\n\n(офлайн-режим: полный разбор временно недоступен)"
	}
	return c.Send(text)
}

func renderTranslation(source, translation string) string {
	return fmt.Sprintf("🇮🇱 %s\n\n🇷🇺 %s", source, translation)
}
