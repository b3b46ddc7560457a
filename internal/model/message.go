package model

import (
	"time"

	"github.com/colthorp/ziskej-cli-go/internal/extract"
)

// Message is a note exchanged between the reader and the library on a ticket.
type Message struct {
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"created_datetime"`
	Read      bool      `json:"read"`
	Text      string    `json:"text"`
}

// ParseMessage builds a Message. Read is the negation of the wire "unread" flag.
func ParseMessage(obj extract.Object) (*Message, error) {
	sender, err := extract.String(obj, "sender")
	if err != nil {
		return nil, err
	}
	createdAt, err := extract.Time(obj, "created_datetime")
	if err != nil {
		return nil, err
	}
	unread, err := extract.Bool(obj, "unread")
	if err != nil {
		return nil, err
	}
	text, err := extract.String(obj, "text")
	if err != nil {
		return nil, err
	}
	return &Message{
		Sender:    sender,
		CreatedAt: createdAt,
		Read:      !unread,
		Text:      text,
	}, nil
}

// MessageCollection is an ordered list of messages.
type MessageCollection struct {
	items []Message
}

// ParseMessageCollection parses items in order, skipping malformed entries.
func ParseMessageCollection(items []any) *MessageCollection {
	c := &MessageCollection{items: make([]Message, 0, len(items))}
	for _, item := range items {
		obj, ok := extract.AsObject(item)
		if !ok {
			continue
		}
		m, err := ParseMessage(obj)
		if err != nil {
			continue
		}
		c.items = append(c.items, *m)
	}
	return c
}

// All returns the messages in collection order.
func (c *MessageCollection) All() []Message {
	out := make([]Message, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of messages.
func (c *MessageCollection) Len() int { return len(c.items) }

// Unread returns the number of messages not yet read.
func (c *MessageCollection) Unread() int {
	n := 0
	for _, m := range c.items {
		if !m.Read {
			n++
		}
	}
	return n
}
