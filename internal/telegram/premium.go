package telegram

import (
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	"github.com/ahlabot/ahlabot/internal/dates"
	"github.com/ahlabot/ahlabot/internal/receipt"
)

func (h *Handler) onPremium(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	userID := c.Sender().ID
	if h.entitlement.IsPremium(ctx, userID) {
		return c.Send("⭐ Премиум уже активен, лимиты не применяются.")
	}

	h.receipts.Open(userID)
	return c.Send("⭐ Премиум снимает дневные лимиты на переводы и голосовые.\n\n" +
		"Оплатите через Bit или PayBox и пришлите сюда подтверждение: " +
		"ссылку на платёж или скриншот с суммой.\n\n" +
		"Передумали — /cancel.")
}

func (h *Handler) onCancel(c tele.Context) error {
	if !h.receipts.Awaiting(c.Sender().ID) {
		return c.Send("Нечего отменять.")
	}
	h.receipts.Cancel(c.Sender().ID)
	return c.Send("Ок, отменил. Лимиты остаются бесплатными.")
}

func (h *Handler) onPhoto(c tele.Context) error {
	if h.receipts.Awaiting(c.Sender().ID) {
		return h.handleReceipt(c)
	}
	return c.Send("Я понимаю текст и голосовые на иврите. Фото разбирать пока не умею.")
}

func (h *Handler) handleReceipt(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	sender := c.Sender()
	msg := receipt.Message{
		Text:     c.Text(),
		FromID:   sender.ID,
		FromName: senderName(sender),
	}
	if m := c.Message(); m != nil {
		msg.Caption = m.Caption
		msg.HasImage = m.Photo != nil || m.Document != nil
	}

	outcome, err := h.receipts.Handle(ctx, sender.ID, msg)
	switch outcome {
	case receipt.Accepted:
		return c.Send("Спасибо! Чек передан на проверку — премиум включится в течение дня. 🙌")
	case receipt.Rejected:
		if err != nil {
			h.log.Error("receipt relay failed", zap.Int64("user_id", sender.ID), zap.Error(err))
			return c.Send("Не получилось передать чек, попробуйте ещё раз через пару минут.")
		}
		return c.Send("Это не похоже на подтверждение оплаты. Нужна ссылка на платёж " +
			"или скриншот с суммой. Отмена — /cancel.")
	default:
		return nil
	}
}

func (h *Handler) onGrant(c tele.Context) error {
	args := argsAfterCommand(c)
	if len(args) != 2 {
		return c.Send("Формат: /grant <user_id> <YYYY-MM-DD>")
	}

	var userID int64
	if _, err := fmt.Sscanf(args[0], "%d", &userID); err != nil || userID <= 0 {
		return c.Send("Некорректный user_id.")
	}
	if _, err := dates.ParseDay(args[1], h.loc); err != nil {
		return c.Send("Некорректная дата, нужен формат YYYY-MM-DD.")
	}

	ctx, cancel := h.ctx()
	defer cancel()

	if err := h.entitlement.Grant(ctx, userID, args[1]); err != nil {
		return c.Send("Не получилось выдать премиум: " + err.Error())
	}

	h.receipts.Cancel(userID)
	if _, err := h.bot.Send(&tele.User{ID: userID}, "⭐ Премиум активирован до "+args[1]+". Лимиты сняты!"); err != nil {
		h.log.Warn("grant notification failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return c.Send(fmt.Sprintf("Премиум выдан пользователю %d до %s.", userID, args[1]))
}

func (h *Handler) onRevoke(c tele.Context) error {
	args := argsAfterCommand(c)
	if len(args) != 1 {
		return c.Send("Формат: /revoke <user_id>")
	}

	var userID int64
	if _, err := fmt.Sscanf(args[0], "%d", &userID); err != nil || userID <= 0 {
		return c.Send("Некорректный user_id.")
	}

	ctx, cancel := h.ctx()
	defer cancel()

	if err := h.entitlement.Revoke(ctx, userID); err != nil {
		return c.Send("Не получилось отозвать премиум: " + err.Error())
	}
	return c.Send(fmt.Sprintf("Премиум отозван у пользователя %d.", userID))
}

func senderName(u *tele.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if u.Username != "" {
		name += " (@" + u.Username + ")"
	}
	return name
}
