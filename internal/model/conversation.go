package model

import "sync"

// Role identifies the author of a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one message in a run's conversation. Source is the page URL the
// content was derived from, when there is one.
type Entry struct {
	Role    Role   `json:"role"`
	Source  string `json:"source,omitempty"`
	Content string `json:"content"`
}

// Conversation is the per-run message log shared by concurrent page workers.
// It is safe for concurrent use.
type Conversation struct {
	mu      sync.Mutex
	system  string
	entries []Entry
}

// NewConversation starts a conversation with the given system instruction.
func NewConversation(system string) *Conversation {
	return &Conversation{system: system}
}

// System returns the system instruction.
func (c *Conversation) System() string {
	return c.system
}

// Append adds an entry.
func (c *Conversation) Append(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

// Entries returns a copy of the entries in append order.
func (c *Conversation) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
