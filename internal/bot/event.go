package bot

type EventKind int

const (
	EventLogin EventKind = iota + 1
	EventChat
	EventMessage
	EventPlayerJoined
	EventPlayerLeft
	EventDeath
	EventError
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "login"
	case EventChat:
		return "chat"
	case EventMessage:
		return "message"
	case EventPlayerJoined:
		return "player_joined"
	case EventPlayerLeft:
		return "player_left"
	case EventDeath:
		return "death"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	}
	return "unknown"
}

// Event is one thing that happened to a client.
//
//	EventChat          Username, Text
//	EventMessage       Text (any server text, chat included)
//	EventPlayerJoined  Username
//	EventPlayerLeft    Username
//	EventError         Err
//	EventEnd           Reason
type Event struct {
	Kind     EventKind
	Username string
	Text     string
	Reason   string
	Err      error
}
