package janitor

import "log/slog"

// New создаёт janitor для target. logger может быть nil.
func New(target Expirer, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		target: target,
		log:    logger.With("component", "janitor"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}
