package engine

import (
	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/store"
)

func New(cfg *store.Config, deps Deps) interfaces.Engine {
	return newEngine(cfg, deps)
}
