package a2a

import (
	"encoding/json"
	"fmt"
)

// Wire discriminators for the event union.
const (
	KindMessage        = "message"
	KindTask           = "task"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

/*
Event is the sum type produced by an agent executor: a Message, a Task, a
TaskStatusUpdateEvent or a TaskArtifactUpdateEvent. Every event carries a
"kind" discriminator on the wire.
*/
type Event interface {
	EventKind() string
}

func (msg *Message) EventKind() string                 { return KindMessage }
func (task *Task) EventKind() string                   { return KindTask }
func (evt *TaskStatusUpdateEvent) EventKind() string   { return KindStatusUpdate }
func (evt *TaskArtifactUpdateEvent) EventKind() string { return KindArtifactUpdate }

/*
TaskStatusUpdateEvent is sent when the agent wishes to inform the client of
a status transition. Final marks the last event of the interaction; nothing
may be published for the task after a final update.
*/
type TaskStatusUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Final     bool           `json:"final"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

/*
TaskArtifactUpdateEvent is emitted when a new or updated artifact is
available for a task. When Append is set the parts extend the artifact with
the same ArtifactID instead of replacing it.
*/
type TaskArtifactUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId,omitempty"`
	Artifact  Artifact       `json:"artifact"`
	Append    *bool          `json:"append,omitempty"`
	LastChunk *bool          `json:"lastChunk,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// The alias types below strip the methods so the custom marshallers do not
// recurse into themselves.
type messageAlias Message
type taskAlias Task
type statusUpdateAlias TaskStatusUpdateEvent
type artifactUpdateAlias TaskArtifactUpdateEvent

func (msg *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*messageAlias
	}{Kind: KindMessage, messageAlias: (*messageAlias)(msg)})
}

func (task *Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*taskAlias
	}{Kind: KindTask, taskAlias: (*taskAlias)(task)})
}

func (evt *TaskStatusUpdateEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*statusUpdateAlias
	}{Kind: KindStatusUpdate, statusUpdateAlias: (*statusUpdateAlias)(evt)})
}

func (evt *TaskArtifactUpdateEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*artifactUpdateAlias
	}{Kind: KindArtifactUpdate, artifactUpdateAlias: (*artifactUpdateAlias)(evt)})
}

/*
UnmarshalEvent decodes a JSON payload into the concrete event type named by
its "kind" field.
*/
func UnmarshalEvent(data []byte) (Event, error) {
	var probe struct {
		Kind string `json:"kind"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Kind {
	case KindMessage:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	case KindTask:
		var task Task
		if err := json.Unmarshal(data, &task); err != nil {
			return nil, err
		}
		return &task, nil
	case KindStatusUpdate:
		var evt TaskStatusUpdateEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, err
		}
		return &evt, nil
	case KindArtifactUpdate:
		var evt TaskArtifactUpdateEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, err
		}
		return &evt, nil
	}

	return nil, fmt.Errorf("unknown event kind %q", probe.Kind)
}
