package server

import (
	"time"

	"minikv/internal/command"
)

// subscribe подписывает соединение на каналы и переводит его
// в режим подписки. Каждый канал подтверждается отдельным фреймом.
func (h *handler) subscribe(channels []string) error {
	if h.sub == nil {
		h.sub = h.srv.store.NewSubscriber()
		h.subscribed.Store(true)
	}

	for _, ch := range channels {
		count := h.sub.Subscribe(ch)
		if err := h.rc.WriteFrame(command.SubscribeReply(ch, count)); err != nil {
			return err
		}
	}

	h.log.Debug("subscribed", "channels", channels, "total", h.sub.Count())
	return nil
}

// unsubscribe отписывает от channels или, если список пуст, от всех каналов.
// Когда каналов не остаётся, соединение возвращается в обычный режим.
func (h *handler) unsubscribe(channels []string) error {
	if h.sub == nil {
		if len(channels) == 0 {
			return h.rc.WriteFrame(command.UnsubscribeNoneReply())
		}
		for _, ch := range channels {
			if err := h.rc.WriteFrame(command.UnsubscribeReply(ch, 0)); err != nil {
				return err
			}
		}
		return nil
	}

	// Сообщения, уже попавшие в буфер, уходят раньше подтверждения отписки.
	if err := h.flushInbox(); err != nil {
		return err
	}

	if len(channels) == 0 {
		channels = h.sub.Channels()
	}
	for _, ch := range channels {
		count := h.sub.Unsubscribe(ch)
		if err := h.rc.WriteFrame(command.UnsubscribeReply(ch, count)); err != nil {
			return err
		}
	}

	if h.sub.Count() == 0 {
		h.leaveSubscribedMode()
	}
	return nil
}

func (h *handler) flushInbox() error {
	for {
		select {
		case msg := <-h.sub.Messages():
			if err := h.rc.WriteFrame(command.MessagePush(msg.Channel, msg.Payload)); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (h *handler) leaveSubscribedMode() {
	h.sub.Close()
	h.sub = nil
	h.subscribed.Store(false)

	if h.srv.idleTimeout > 0 {
		h.conn.SetReadDeadline(time.Now().Add(h.srv.idleTimeout))
	}
	h.log.Debug("left subscribed mode")
}
