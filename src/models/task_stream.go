package models

// -----------------------------------------------------------------------------
// Task stream messages (/ws/tasks)
// -----------------------------------------------------------------------------

const (
	TaskEventInitial = "INITIAL"
	TaskEventUpdate  = "UPDATE"
)

// MTaskEvent is pushed to stream clients. INITIAL carries the current task
// table on connect or subscribe, UPDATE a single changed task.
type MTaskEvent struct {
	Type  string          `json:"type"`
	Tasks []MTaskProgress `json:"tasks"`
}

// MSubscribeCommand narrows a stream client to some task ids; an empty list
// means every task.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	TaskIDs []string `json:"task_ids"`
}

// -----------------------------------------------------------------------------

// MRefreshRequest is the body of a refresh call.
type MRefreshRequest struct {
	Mode   string            `json:"mode"`
	Params map[string]string `json:"params"`
}
