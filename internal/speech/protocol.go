package speech

// Command is sent from a client to the transcription daemon.
type Command struct {
	Cmd    string   `json:"cmd"`
	Locale string   `json:"locale,omitempty"`
	Device string   `json:"device,omitempty"`
	Events []string `json:"events,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"sessionId,omitempty"`
	Recording *bool  `json:"recording,omitempty"`
	Error     string `json:"error,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Event is streamed from the daemon to subscribed clients. Only final
// "segment" events are consumed; partial results are never requested.
type Event struct {
	Event     string `json:"event"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message,omitempty"`
	Transient *bool  `json:"transient,omitempty"`
	Recording *bool  `json:"recording,omitempty"`
}

// Event names the recognizer subscribes to.
const (
	EventSegment = "segment"
	EventError   = "error"
	EventStatus  = "status"
)
