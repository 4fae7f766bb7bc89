package orchestrator

import (
	"context"
	"fmt"

	"market-collector/src/helpers"
	"market-collector/src/models"
)

// RefreshTaskType is the task type of background refreshes.
const RefreshTaskType = "refresh_collection"

// TaskCreator opens the task a background refresh reports to.
type TaskCreator interface {
	Create(taskType, description string) models.MTaskProgress
}

// -----------------------------------------------------------------------------

// RefreshAsync validates the collection, opens a task and runs the refresh in
// the background. The refresh outlives ctx cancellation but keeps its values.
// Wait blocks until every background refresh has returned.
func (o *Orchestrator) RefreshAsync(ctx context.Context, creator TaskCreator, name string, mode models.UpdateMode, params models.MParams) (models.MTaskProgress, error) {
	desc, ok := o.registry.Get(name)
	if !ok {
		return models.MTaskProgress{}, helpers.NewConfigurationError("unknown collection: "+name, nil)
	}
	if creator == nil {
		return models.MTaskProgress{}, helpers.NewConfigurationError("no task tracker configured", nil)
	}

	task := creator.Create(RefreshTaskType, fmt.Sprintf("%s update (%s)", desc.DisplayName, mode))
	bg := context.WithoutCancel(ctx)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		res := o.RefreshCollection(bg, name, mode, params, task.ID)
		o.logger.Info("Task %s (%s, %s) finished: %s", task.ID, name, mode, res.Message)
	}()
	return task, nil
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
