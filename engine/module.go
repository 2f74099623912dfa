package engine

import (
	"context"
	"time"

	Logger "github.com/Luismorlan/newsportal/utils/log"
)

const gracefulRetryDelay = 3 * time.Second

// Module is a long-running unit of the notification engine (pipeline worker,
// digest scheduler, reporter). Each module runs in its own goroutine for the
// lifetime of the engine.
type Module interface {
	// RunModule contains the customized logic of the module. It takes in a
	// context object by which its lifecycle is managed. Return error if
	// encountered any error during execution.
	RunModule(ctx context.Context) error

	// Return name of the Module. Uniquely identifies the module instance. Note
	// that if there are multiple instances of the same module, each instance
	// should have a unique name instead of using the same name.
	Name() string

	// Shutdown is called during graceful engine shutdown, after the root
	// context is canceled. It must wait for in-flight work to drain.
	Shutdown()
}

// RunModuleWithGracefulRestart reruns a module that exited with an error
// until it exits cleanly or the context is canceled.
func RunModuleWithGracefulRestart(ctx context.Context, module Module) {
	for {
		err := module.RunModule(ctx)
		if err == nil {
			return
		}
		Logger.Log.Errorf("module %s exited with error %v, restart in %s", module.Name(), err, gracefulRetryDelay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(gracefulRetryDelay):
		}
	}
}
