package app

import "context"

// enqueue schedules fn on the Run loop. Tasks posted after Shutdown are
// dropped.
func (app *Application) enqueue(fn func()) {
	select {
	case <-app.done:
	case app.tasks <- fn:
	}
}

// Post schedules fn on the main thread.
func (app *Application) Post(fn func()) {
	app.post(fn)
}

// Run executes main thread tasks until ctx is done or the application shuts
// down.
func (app *Application) Run(ctx context.Context) error {
	return app.RunUntil(ctx, nil)
}

// RunUntil executes main thread tasks until stop is closed, ctx is done or
// the application shuts down. A nil stop channel never fires.
func (app *Application) RunUntil(ctx context.Context, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-app.done:
			return ErrShutdown
		case <-stop:
			app.drain()
			return nil
		case fn := <-app.tasks:
			app.runTask(fn)
		}
	}
}

// drain runs the tasks already queued.
func (app *Application) drain() {
	for {
		select {
		case fn := <-app.tasks:
			app.runTask(fn)
		default:
			return
		}
	}
}

func (app *Application) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			app.logger.Error("main thread task panicked: %v", r)
		}
	}()
	fn()
}
