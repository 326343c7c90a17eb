package types

import "time"

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Kind separates real replies from the transient typing entry and from
// content that must be shown verbatim.
type Kind string

const (
	KindText       Kind = "text"
	KindPending    Kind = "pending"
	KindDiagnostic Kind = "diagnostic"
	// KindRaw is a successful response shown exactly as received.
	KindRaw Kind = "raw"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (m Message) Pending() bool { return m.Kind == KindPending }
