// Package minikv предоставляет встраиваемое key-value хранилище с TTL
// и pub/sub, а также RESP-сервер поверх него.
//
// Использование без сети (embedded):
//
//	db := minikv.Open(minikv.Options{})
//	defer db.Close()
//
//	db.Set("key", []byte("value"), time.Hour)
//	val, ok := db.Get("key")
//
// Использование с TCP-сервером (совместим с redis-cli для GET/SET/PUBLISH/SUBSCRIBE):
//
//	db := minikv.Open(minikv.Options{})
//	defer db.Close()
//	db.ListenAndServe(ctx, "127.0.0.1:6379")
package minikv

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"minikv/internal/server"
	"minikv/internal/storage"
	"minikv/internal/storage/pubsub"
)

// ErrServing возвращается при попытке запустить второй сервер на одном DB.
var ErrServing = errors.New("minikv: server already running")

// Subscriber получает сообщения каналов, на которые подписан.
type Subscriber = pubsub.Subscriber

// Message — сообщение, доставленное подписчику.
type Message = pubsub.Message

// Options — параметры Open. Нулевое значение годится.
type Options struct {
	// MaxKeys — лимит ключей, 0 = без лимита.
	MaxKeys int64
	// ChannelBacklog — буфер сообщений каждого подписчика.
	ChannelBacklog int
	// MaxConnections — лимит одновременных соединений сервера.
	MaxConnections int
	// IdleTimeout закрывает молчащие соединения вне режима подписки.
	IdleTimeout time.Duration
	Logger      *slog.Logger
}

// DB — встраиваемое хранилище. Создаётся через Open().
type DB struct {
	store *storage.Store
	opts  Options

	mu     sync.Mutex
	srv    *server.Server
	cancel context.CancelFunc
}

// Open создаёт хранилище и запускает фоновую очистку истёкших ключей.
func Open(opts Options) *DB {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &DB{
		store: storage.New(storage.Options{
			MaxKeys:        opts.MaxKeys,
			ChannelBacklog: opts.ChannelBacklog,
			Logger:         opts.Logger,
		}),
		opts: opts,
	}
}

// ─── Keys ───────────────────────────────────────────────────────────

// Set устанавливает значение с опциональным TTL.
// TTL = 0 означает без ограничения по времени.
//
//	db.Set("session:abc", []byte("token"), 30*time.Minute)
//	db.Set("config", []byte("value"), 0)  // вечный ключ
func (db *DB) Set(key string, value []byte, ttl time.Duration) {
	db.store.Set(key, value, ttl)
}

// Get возвращает значение по ключу.
//
//	val, ok := db.Get("user:1")
func (db *DB) Get(key string) ([]byte, bool) {
	return db.store.Get(key)
}

// Del удаляет ключи. Возвращает число удалённых живых ключей.
func (db *DB) Del(keys ...string) int {
	n := 0
	for _, key := range keys {
		if db.store.Delete(key) {
			n++
		}
	}
	return n
}

// Len возвращает количество ключей в памяти.
func (db *DB) Len() int64 {
	return db.store.Len()
}

// ─── Pub/Sub ────────────────────────────────────────────────────────

// Publish отправляет сообщение в канал. Возвращает число получателей,
// включая подписчиков, подключённых по сети.
func (db *DB) Publish(channel string, payload []byte) int {
	return db.store.Publish(channel, payload)
}

// Subscribe создаёт подписчика на channels. Вызывающий обязан позвать Close.
//
//	sub := db.Subscribe("news")
//	defer sub.Close()
//	msg := <-sub.Messages()
func (db *DB) Subscribe(channels ...string) *Subscriber {
	sub := db.store.NewSubscriber()
	for _, ch := range channels {
		sub.Subscribe(ch)
	}
	return sub
}

// ─── Server ─────────────────────────────────────────────────────────

// ListenAndServe запускает RESP-сервер на addr и блокируется до отмены ctx
// или Close.
func (db *DB) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return db.Serve(ctx, ln)
}

// Serve обслуживает соединения ln. Listener закрывается при выходе.
func (db *DB) Serve(ctx context.Context, ln net.Listener) error {
	db.mu.Lock()
	if db.srv != nil {
		db.mu.Unlock()
		ln.Close()
		return ErrServing
	}
	srv := server.New(ln.Addr().String(), db.store,
		server.WithLogger(db.opts.Logger),
		server.WithMaxConnections(db.opts.MaxConnections),
		server.WithIdleTimeout(db.opts.IdleTimeout),
	)
	ctx, cancel := context.WithCancel(ctx)
	db.srv = srv
	db.cancel = cancel
	db.mu.Unlock()

	defer func() {
		cancel()
		db.mu.Lock()
		db.srv = nil
		db.cancel = nil
		db.mu.Unlock()
	}()

	return srv.Serve(ctx, ln)
}

// Addr возвращает адрес запущенного сервера или nil.
func (db *DB) Addr() net.Addr {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.srv == nil {
		return nil
	}
	return db.srv.Addr()
}

// Close останавливает сервер (если запущен) и фоновую очистку.
func (db *DB) Close() error {
	db.mu.Lock()
	cancel := db.cancel
	db.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	db.store.Close()
	return nil
}
