package events

type EventType string

const (
	ConfigUpdated   EventType = "ConfigUpdated"
	CatalogUpdated  EventType = "CatalogUpdated"
	MessageObserved EventType = "MessageObserved"
	LoginReset      EventType = "LoginReset"
)

// Event is something the host told us about. Data depends on Type:
//
//	ConfigUpdated    *config.Config
//	CatalogUpdated   []catalog.Item
//	MessageObserved  string, the raw chat line
//	LoginReset       string, the current user's name
type Event struct {
	Type EventType
	Data any
}

type Sender interface {
	SendEvent(event Event) error
}

func Message(line string) Event {
	return Event{Type: MessageObserved, Data: line}
}

func Login(username string) Event {
	return Event{Type: LoginReset, Data: username}
}
