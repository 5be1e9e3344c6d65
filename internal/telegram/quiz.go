package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	quizdomain "github.com/ahlabot/ahlabot/internal/quiz/domain"
)

var btnQuizAnswer = replyMarkup.Data("", "quiz_answer")

func (h *Handler) onQuiz(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	userID := c.Sender().ID

	if c.Callback() != nil {
		if err := c.Respond(&tele.CallbackResponse{}); err != nil {
			h.log.Warn("callback ack failed", zap.Error(err))
		}
	}

	q, err := h.quiz.NewQuestion(ctx, userID)
	if err != nil {
		if errors.Is(err, quizdomain.ErrNotEnoughContent) {
			return c.Send("Для квиза пока не хватает материала, загляните позже.")
		}
		h.log.Error("new question failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send("Квиз сейчас недоступен, попробуйте позже.")
	}

	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(q.Options))
	for i, opt := range q.Options {
		btn := m.Data(opt, "quiz_answer", strconv.FormatInt(q.QuestionID, 10), strconv.Itoa(i))
		rows = append(rows, m.Row(btn))
	}
	m.Inline(rows...)

	return c.Send("🎲 Как перевести:\n\n"+q.Prompt, m)
}

func (h *Handler) onQuizAnswer(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	userID := c.Sender().ID

	parts := strings.Split(c.Data(), "|")
	if len(parts) != 2 {
		return c.Respond(&tele.CallbackResponse{Text: "Не разобрал ответ."})
	}
	questionID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Не разобрал ответ."})
	}
	optionIndex, err := strconv.Atoi(parts[1])
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Не разобрал ответ."})
	}

	res, err := h.quiz.Answer(ctx, userID, questionID, optionIndex)
	switch {
	case errors.Is(err, quizdomain.ErrNoQuestion), errors.Is(err, quizdomain.ErrStaleQuestion):
		return c.Respond(&tele.CallbackResponse{Text: "Вопрос уже не активен, жмите /quiz."})
	case errors.Is(err, quizdomain.ErrAlreadyAnswered):
		return c.Respond(&tele.CallbackResponse{Text: "Этот вопрос уже отвечен. Правильный ответ: " + res.CorrectAnswer})
	case errors.Is(err, quizdomain.ErrInvalidOption):
		return c.Respond(&tele.CallbackResponse{Text: "Не разобрал ответ."})
	case err != nil:
		h.log.Error("quiz answer failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Что-то пошло не так, попробуйте ещё раз."})
	}

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		h.log.Warn("callback ack failed", zap.Error(err))
	}

	var verdict string
	if res.Correct {
		verdict = "✅ Верно!"
	} else {
		verdict = "❌ Не угадали. Правильный ответ: " + res.CorrectAnswer
	}

	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(btnQuizNext))

	return c.Send(fmt.Sprintf("%s\n\nСчёт: %d из %d", verdict, res.Stats.Correct, res.Stats.Answered), m)
}

func (h *Handler) onQuizStats(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	stats, err := h.quiz.Stats(ctx, c.Sender().ID)
	if err != nil {
		return c.Send("Статистика сейчас недоступна.")
	}
	if stats.Answered == 0 {
		return c.Send("Вы ещё не отвечали. Начните с /quiz!")
	}
	return c.Send(fmt.Sprintf("Ваш счёт: %d правильных из %d.", stats.Correct, stats.Answered))
}

func (h *Handler) onQuizReset(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	if err := h.quiz.ResetStats(ctx, c.Sender().ID); err != nil {
		return c.Send("Не получилось сбросить статистику.")
	}
	return c.Send("Статистика обнулена. /quiz — начать заново.")
}
