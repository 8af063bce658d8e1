// Package events defines graph change notifications and the queue that
// buffers them between the watcher and its consumers.
package events

import "fmt"

// Event type names.
const (
	TypePageCreated = "page_created"
	TypePageUpdated = "page_updated"
	TypePageDeleted = "page_deleted"
	TypeLinkCreated = "link_created"
	TypeLinkRemoved = "link_removed"
)

// Event is a single graph change. The set of implementations is closed.
type Event interface {
	Type() string
	String() string
	event()
}

type PageCreated struct{ Name string }

type PageUpdated struct{ Name string }

type PageDeleted struct{ Name string }

type LinkCreated struct{ From, To string }

type LinkRemoved struct{ From, To string }

func (PageCreated) Type() string { return TypePageCreated }
func (PageUpdated) Type() string { return TypePageUpdated }
func (PageDeleted) Type() string { return TypePageDeleted }
func (LinkCreated) Type() string { return TypeLinkCreated }
func (LinkRemoved) Type() string { return TypeLinkRemoved }

func (e PageCreated) String() string { return fmt.Sprintf("PageCreated(%s)", e.Name) }
func (e PageUpdated) String() string { return fmt.Sprintf("PageUpdated(%s)", e.Name) }
func (e PageDeleted) String() string { return fmt.Sprintf("PageDeleted(%s)", e.Name) }
func (e LinkCreated) String() string { return fmt.Sprintf("LinkCreated(%s -> %s)", e.From, e.To) }
func (e LinkRemoved) String() string { return fmt.Sprintf("LinkRemoved(%s -> %s)", e.From, e.To) }

func (PageCreated) event() {}
func (PageUpdated) event() {}
func (PageDeleted) event() {}
func (LinkCreated) event() {}
func (LinkRemoved) event() {}

// Record is the flat projection of an Event used by JSON transports.
// Page is set for page events; From and To for link events.
type Record struct {
	Type string `json:"type"`
	Page string `json:"page,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// ToRecord projects e into a Record.
func ToRecord(e Event) Record {
	r := Record{Type: e.Type()}
	switch v := e.(type) {
	case PageCreated:
		r.Page = v.Name
	case PageUpdated:
		r.Page = v.Name
	case PageDeleted:
		r.Page = v.Name
	case LinkCreated:
		r.From, r.To = v.From, v.To
	case LinkRemoved:
		r.From, r.To = v.From, v.To
	}
	return r
}

// ToRecords projects a slice of events, preserving order.
func ToRecords(evs []Event) []Record {
	out := make([]Record, 0, len(evs))
	for _, e := range evs {
		out = append(out, ToRecord(e))
	}
	return out
}

// PageName returns the page of a page event, or "" for link events.
func (r Record) PageName() string { return r.Page }

// LinkFrom returns the source of a link event, or "" for page events.
func (r Record) LinkFrom() string { return r.From }

// LinkTo returns the target of a link event, or "" for page events.
func (r Record) LinkTo() string { return r.To }
