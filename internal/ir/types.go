package ir

// Interface represents one protocol object type.
type Interface struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
	// ID is the dense, zero-based identity assigned by the assembler in
	// first-seen order. It indexes the global dispatch table.
	ID       uint32    `json:"id"`
	Source   string    `json:"source"` // document the interface was read from
	Summary  string    `json:"summary,omitempty"`
	Enums    []Enum    `json:"enums"`
	Requests []Message `json:"requests"`
	Events   []Message `json:"events"`
}

// Messages returns the request or event list for kind.
func (i *Interface) Messages(kind MessageKind) []Message {
	if kind == Event {
		return i.Events
	}
	return i.Requests
}

// FindEnum returns the enum named name declared by the interface.
func (i *Interface) FindEnum(name string) (*Enum, bool) {
	for idx := range i.Enums {
		if i.Enums[idx].Name == name {
			return &i.Enums[idx], true
		}
	}
	return nil, false
}

// MessageKind tags a message as client-to-server or server-to-client.
type MessageKind int

const (
	Request MessageKind = iota
	Event
)

func (k MessageKind) String() string {
	if k == Event {
		return "event"
	}
	return "request"
}

// Message is a request or event. Its position in the owning interface's
// request (event) list is its wire opcode.
type Message struct {
	Name       string      `json:"name"`
	Kind       MessageKind `json:"kind"`
	Since      int         `json:"since"`
	Destructor bool        `json:"destructor,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	Args       []Arg       `json:"args"`
}

// Arg is one message argument. Type, Interface and Enum hold the attribute
// text exactly as written in the protocol document; Kind is the resolved
// classification filled in during assembly.
type Arg struct {
	Name      string    `json:"name"`
	Type      Primitive `json:"type"`
	Interface string    `json:"interface,omitempty"`
	Enum      string    `json:"enum,omitempty"`
	AllowNull bool      `json:"allow_null,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Kind      ArgKind   `json:"-"`
}

// Enum is a named set of values scoped to its interface.
type Enum struct {
	Name     string  `json:"name"`
	Bitfield bool    `json:"bitfield,omitempty"`
	Since    int     `json:"since"`
	Summary  string  `json:"summary,omitempty"`
	Entries  []Entry `json:"entries"`
}

// Entry is one enum value. Value is the literal text from the document
// (decimal or hex) and is never evaluated.
type Entry struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Since   int    `json:"since"`
	Summary string `json:"summary,omitempty"`
}
