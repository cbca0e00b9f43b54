package pubsub

// Subscriber — подписка одного соединения.
// Методы, меняющие набор каналов, вызывает только владелец;
// Publish из других горутин пишет лишь в inbox.
type Subscriber struct {
	hub      *Hub
	inbox    chan Message
	channels map[string]struct{}
	closed   bool
}

// Subscribe добавляет канал. Повторная подписка ничего не меняет.
// Возвращает число каналов после операции.
func (s *Subscriber) Subscribe(channel string) int {
	if s.closed {
		return 0
	}
	if _, ok := s.channels[channel]; !ok {
		s.channels[channel] = struct{}{}
		s.hub.add(channel, s)
	}
	return len(s.channels)
}

// Unsubscribe убирает канал. Возвращает число оставшихся каналов.
func (s *Subscriber) Unsubscribe(channel string) int {
	if _, ok := s.channels[channel]; ok {
		delete(s.channels, channel)
		s.hub.remove(s, channel)
	}
	return len(s.channels)
}

// UnsubscribeAll убирает все каналы и возвращает их в порядке сортировки.
func (s *Subscriber) UnsubscribeAll() []string {
	left := sortedKeys(s.channels)
	if len(left) > 0 {
		s.hub.remove(s, left...)
	}
	clear(s.channels)
	return left
}

// Channels возвращает текущие каналы в порядке сортировки.
func (s *Subscriber) Channels() []string {
	return sortedKeys(s.channels)
}

// Count возвращает число каналов.
func (s *Subscriber) Count() int {
	return len(s.channels)
}

// Messages — входящие сообщения. Канал не закрывается:
// после Close в него просто перестают писать.
func (s *Subscriber) Messages() <-chan Message {
	return s.inbox
}

// Close отписывает от всех каналов. Повторный вызов безопасен.
func (s *Subscriber) Close() {
	if s.closed {
		return
	}
	s.UnsubscribeAll()
	s.closed = true
}
