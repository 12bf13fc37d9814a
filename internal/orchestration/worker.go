package orchestration

import (
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
)

// NewClient dials the workflow engine.
func NewClient(cfg *config.Config) (client.Client, error) {
	return client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
}

// NewWorker builds a worker on the pipeline task queue with every workflow
// and activity registered.
func NewWorker(c client.Client, cfg *config.Config, activities *Activities) worker.Worker {
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: cfg.Worker.MaxConcurrentActivities,
	})
	Register(w, activities)
	return w
}

// Register attaches all workflows and activities to a worker.
func Register(w worker.Worker, activities *Activities) {
	w.RegisterWorkflow(ProcessBatchSequential)
	w.RegisterWorkflow(ProcessBatchParallel)
	w.RegisterWorkflow(LoadFolder)
	w.RegisterWorkflow(SyncSearch)
	w.RegisterWorkflow(ScrapeFeed)
	w.RegisterActivity(activities)
}
