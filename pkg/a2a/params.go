package a2a

/*
MessageSendConfiguration carries the per-call options of message/send and
message/stream.
*/
type MessageSendConfiguration struct {
	// AcceptedOutputModes lists the MIME types the caller can consume.
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitempty"`
	// HistoryLength limits how much history the returned Task carries.
	HistoryLength *int `json:"historyLength,omitempty"`
	// PushNotificationConfig registers a webhook for the task in the same call.
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
	// Blocking selects whether the call waits for the terminal event. Unset
	// means blocking.
	Blocking *bool `json:"blocking,omitempty"`
}

// MessageSendParams represents the parameters of message/send and
// message/stream.
type MessageSendParams struct {
	Message       Message                   `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// Blocking reports whether the caller asked for blocking semantics, which is
// the default.
func (params *MessageSendParams) Blocking() bool {
	if params.Configuration == nil || params.Configuration.Blocking == nil {
		return true
	}
	return *params.Configuration.Blocking
}

// TaskIDParams represents the base parameters for task-id-based operations.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskQueryParams represents the parameters for querying task information.
type TaskQueryParams struct {
	TaskIDParams
	// HistoryLength keeps the last N history messages; nil or negative
	// strips history entirely.
	HistoryLength *int `json:"historyLength,omitempty"`
}

// PushNotificationAuthenticationInfo describes how the webhook endpoint
// expects to be authenticated.
type PushNotificationAuthenticationInfo struct {
	Schemes     []string `json:"schemes"`
	Credentials *string  `json:"credentials,omitempty"`
}

// PushNotificationConfig represents a single webhook registration.
type PushNotificationConfig struct {
	// ID distinguishes multiple configs on one task. Empty defaults to the
	// task id for backward compatibility.
	ID    string  `json:"id,omitempty"`
	URL   string  `json:"url"`
	Token *string `json:"token,omitempty"`
	// Authentication is optional authentication details needed by the agent.
	Authentication *PushNotificationAuthenticationInfo `json:"authentication,omitempty"`
}

// TaskPushNotificationConfig binds a webhook config to a task.
type TaskPushNotificationConfig struct {
	TaskID                 string                 `json:"taskId"`
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

// GetTaskPushNotificationConfigParams identifies one config on a task. A
// missing PushNotificationConfigID defaults to the task id.
type GetTaskPushNotificationConfigParams struct {
	TaskIDParams
	PushNotificationConfigID *string `json:"pushNotificationConfigId,omitempty"`
}

// ListTaskPushNotificationConfigParams identifies a task whose configs are
// listed.
type ListTaskPushNotificationConfigParams struct {
	TaskIDParams
}

// DeleteTaskPushNotificationConfigParams identifies one config to remove.
type DeleteTaskPushNotificationConfigParams struct {
	TaskIDParams
	PushNotificationConfigID string `json:"pushNotificationConfigId"`
}
