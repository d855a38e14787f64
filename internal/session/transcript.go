package session

import "slices"

// Role is who authored a transcript entry.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
	RoleSystem
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "system"
	}
}

// Entry is one transcript line. Pending entries are placeholders for a
// reply that has not arrived.
type Entry struct {
	ID      int
	Role    Role
	Text    string
	Pending bool
}

// Transcript is the ordered list of entries for the current selection.
type Transcript struct {
	entries []Entry
	nextID  int
	gen     uint64
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Entries returns a copy of the entries in order.
func (t *Transcript) Entries() []Entry {
	return slices.Clone(t.entries)
}

// Len returns the number of entries.
func (t *Transcript) Len() int { return len(t.entries) }

// Generation changes every time the transcript is replaced wholesale.
func (t *Transcript) Generation() uint64 { return t.gen }

// Clear drops every entry and starts a new generation.
func (t *Transcript) Clear() {
	t.entries = nil
	t.gen++
}

func (t *Transcript) append(e Entry) int {
	t.nextID++
	e.ID = t.nextID
	t.entries = append(t.entries, e)
	return e.ID
}

// AppendUser appends a user-authored message.
func (t *Transcript) AppendUser(text string) int {
	return t.append(Entry{Role: RoleUser, Text: text})
}

// AppendAssistant appends an assistant-authored message.
func (t *Transcript) AppendAssistant(text string) int {
	return t.append(Entry{Role: RoleAssistant, Text: text})
}

// AppendNotice appends a system notice.
func (t *Transcript) AppendNotice(text string) int {
	return t.append(Entry{Role: RoleSystem, Text: text})
}

// AppendPending appends a placeholder shown until Resolve or Discard.
func (t *Transcript) AppendPending(text string) int {
	return t.append(Entry{Role: RoleSystem, Text: text, Pending: true})
}

// Resolve replaces the pending entry id with an assistant message in place.
func (t *Transcript) Resolve(id int, text string) bool {
	i := t.index(id)
	if i < 0 || !t.entries[i].Pending {
		return false
	}
	t.entries[i] = Entry{ID: id, Role: RoleAssistant, Text: text}
	return true
}

// Discard deletes the pending entry id.
func (t *Transcript) Discard(id int) bool {
	i := t.index(id)
	if i < 0 || !t.entries[i].Pending {
		return false
	}
	t.entries = slices.Delete(t.entries, i, i+1)
	return true
}

// HasPending reports whether any reply is still outstanding.
func (t *Transcript) HasPending() bool {
	return slices.ContainsFunc(t.entries, func(e Entry) bool { return e.Pending })
}

func (t *Transcript) index(id int) int {
	return slices.IndexFunc(t.entries, func(e Entry) bool { return e.ID == id })
}
