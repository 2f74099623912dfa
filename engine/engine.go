package engine

import (
	"context"
	"sync"

	Logger "github.com/Luismorlan/newsportal/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Engine owns the shared event bus and the execution lifecycle of its
// modules. It is constructed explicitly in main and handed to whoever
// supervises the process, there is no implicit process-wide scheduler
// starting at import time.
type Engine struct {
	// Modules run in this Engine. Module's lifetime is bound to Engine's
	// lifetime, each runs in a separate goroutine.
	Modules []Module

	ctx    context.Context
	cancel context.CancelFunc

	// The EventBus this engine manages. A golang channel implementation for
	// now, can be substituted with a broker-backed bus without touching the
	// modules.
	EventBus *gochannel.GoChannel
}

func NewEngine(modules []Module, ctx context.Context, cancel context.CancelFunc, bus *gochannel.GoChannel) *Engine {
	return &Engine{
		Modules:  modules,
		ctx:      ctx,
		cancel:   cancel,
		EventBus: bus,
	}
}

// Run executes all modules and blocks until every module finished execution.
func (e *Engine) Run() {
	var wg sync.WaitGroup

	for idx := range e.Modules {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			Logger.Log.Infof("start engine module %s", e.Modules[index].Name())
			RunModuleWithGracefulRestart(e.ctx, e.Modules[index])
			Logger.Log.Infof("module %s finished execution", e.Modules[index].Name())
		}(idx)
	}

	wg.Wait()
}

// Shutdown cancels the root context and waits for every module to drain.
func (e *Engine) Shutdown() {
	Logger.Log.Infoln("starting graceful shutdown process, goodbye!")
	e.cancel()

	var wg sync.WaitGroup
	for idx := range e.Modules {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			e.Modules[index].Shutdown()
			Logger.Log.Infof("module %s shut down", e.Modules[index].Name())
		}(idx)
	}

	wg.Wait()
}
