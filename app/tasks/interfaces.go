package tasks

// TaskSchedulerInterface drives the background poll loop. Start spins up the
// worker pool and the ticker; Stop cancels in-flight work between units and
// waits for the workers to drain before returning.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
