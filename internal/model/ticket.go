package model

import (
	"net/url"
	"time"

	"github.com/colthorp/ziskej-cli-go/internal/extract"
)

// Ticket is either a *TicketMvs or a *TicketEdd. Switch on the concrete
// type, or on Common().Type, to reach variant fields.
type Ticket interface {
	Common() *TicketBase
	isTicket()
}

// TicketBase holds the fields shared by both ticket variants.
type TicketBase struct {
	ID                  string      `json:"ticket_id"`
	Type                TicketType  `json:"ticket_type"`
	CreatedAt           time.Time   `json:"created_datetime"`
	Hid                 string      `json:"hid,omitempty"`
	Sigla               string      `json:"sigla,omitempty"`
	IsOpen              bool        `json:"is_open"`
	Status              *StatusName `json:"status_reader,omitempty"`
	StatusHistory       []Status    `json:"status_reader_history"`
	StatusLabel         string      `json:"status_label,omitempty"`
	UpdatedAt           *time.Time  `json:"updated_datetime,omitempty"`
	ReturnAt            *time.Time  `json:"date_return,omitempty"`
	RequestedAt         *time.Time  `json:"date_requested,omitempty"`
	CountMessages       int         `json:"count_messages"`
	CountMessagesUnread int         `json:"count_messages_unread"`
	DocumentID          string      `json:"doc_id,omitempty"`
	DocTitle            string      `json:"doc_title,omitempty"`
	DocVolume           string      `json:"doc_volume,omitempty"`
	DocNumberYear       string      `json:"doc_number_year,omitempty"`
	DocNumberPyear      string      `json:"doc_number_pyear,omitempty"`
	DocNumberPnumber    string      `json:"doc_number_pnumber,omitempty"`
	DocAuthor           string      `json:"doc_author,omitempty"`
	DocIssuer           string      `json:"doc_issuer,omitempty"`
	DocIsbn             string      `json:"doc_isbn,omitempty"`
	DocIssn             string      `json:"doc_issn,omitempty"`
	DocCitation         string      `json:"doc_citation,omitempty"`
	DocNote             string      `json:"doc_note,omitempty"`
	PagesFrom           int         `json:"pages_from,omitempty"`
	PagesTo             int         `json:"pages_to,omitempty"`
	PaymentID           string      `json:"payment_id,omitempty"`
	PaymentURL          *url.URL    `json:"-"`
}

// TicketMvs is an interlibrary loan of a physical document.
type TicketMvs struct {
	TicketBase
}

// TicketEdd is an electronic document delivery.
type TicketEdd struct {
	TicketBase
	DocDataSource *TicketDataSource `json:"ticket_doc_data_source,omitempty"`
	EddSubtype    *TicketEddSubtype `json:"edd_subtype,omitempty"`
	DocTitleIn    string            `json:"doc_title_in,omitempty"`
	DownloadURL   *url.URL          `json:"-"`
	ShowPdf       bool              `json:"show_pdf"`
	CanComplaint  bool              `json:"can_complaint"`
	ShowComplaint bool              `json:"show_complaint"`
}

// Common returns the shared ticket fields.
func (t *TicketMvs) Common() *TicketBase { return &t.TicketBase }

// Common returns the shared ticket fields.
func (t *TicketEdd) Common() *TicketBase { return &t.TicketBase }

func (*TicketMvs) isTicket() {}
func (*TicketEdd) isTicket() {}

// ParseTicket routes obj by its ticket_type to the matching variant parser.
// An unknown ticket_type is an *extract.InvalidEnumValueError.
func ParseTicket(obj extract.Object) (Ticket, error) {
	typ, err := extract.Enum(obj, "ticket_type", TicketTypes)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TicketTypeMVS:
		return ParseTicketMvs(obj)
	case TicketTypeEDD:
		return ParseTicketEdd(obj)
	}
	return nil, &extract.InvalidEnumValueError{Field: "ticket_type", Value: string(typ)}
}

// ParseTicketMvs builds a TicketMvs.
func ParseTicketMvs(obj extract.Object) (*TicketMvs, error) {
	base, err := parseTicketBase(obj)
	if err != nil {
		return nil, err
	}
	return &TicketMvs{TicketBase: base}, nil
}

// ParseTicketEdd builds a TicketEdd. The data source and subtype are
// validated only when present.
func ParseTicketEdd(obj extract.Object) (*TicketEdd, error) {
	base, err := parseTicketBase(obj)
	if err != nil {
		return nil, err
	}
	source, err := extract.OptionalEnum(obj, "ticket_doc_data_source", TicketDataSources)
	if err != nil {
		return nil, err
	}
	subtype, err := extract.OptionalEnum(obj, "edd_subtype", TicketEddSubtypes)
	if err != nil {
		return nil, err
	}
	return &TicketEdd{
		TicketBase:    base,
		DocDataSource: source,
		EddSubtype:    subtype,
		DocTitleIn:    extract.OptionalString(obj, "doc_title_in"),
		DownloadURL:   extract.OptionalURL(obj, "edd_reader_url"),
		ShowPdf:       extract.OptionalBool(obj, "show_pdf"),
		CanComplaint:  extract.OptionalBool(obj, "can_complaint"),
		ShowComplaint: extract.OptionalBool(obj, "show_complaint"),
	}, nil
}

func parseTicketBase(obj extract.Object) (TicketBase, error) {
	typ, err := extract.Enum(obj, "ticket_type", TicketTypes)
	if err != nil {
		return TicketBase{}, err
	}
	id, err := extract.String(obj, "ticket_id")
	if err != nil {
		return TicketBase{}, err
	}
	createdAt, err := extract.Time(obj, "created_datetime")
	if err != nil {
		return TicketBase{}, err
	}
	history, err := parseStatusHistory("status_reader_history", extract.OptionalArray(obj, "status_reader_history"))
	if err != nil {
		return TicketBase{}, err
	}

	b := TicketBase{
		ID:                  id,
		Type:                typ,
		CreatedAt:           createdAt,
		Hid:                 extract.OptionalString(obj, "hid"),
		Sigla:               extract.OptionalString(obj, "sigla"),
		IsOpen:              extract.OptionalBool(obj, "is_open"),
		Status:              extract.LenientEnum(obj, "status_reader", StatusNames),
		StatusHistory:       history,
		StatusLabel:         extract.OptionalString(obj, "status_label"),
		CountMessages:       extract.OptionalInt(obj, "count_messages"),
		CountMessagesUnread: extract.OptionalInt(obj, "count_messages_unread"),
		DocumentID:          extract.OptionalString(obj, "doc_id"),
		DocTitle:            extract.OptionalString(obj, "doc_title"),
		DocVolume:           extract.OptionalString(obj, "doc_volume"),
		DocNumberYear:       extract.OptionalString(obj, "doc_number_year"),
		DocNumberPyear:      extract.OptionalString(obj, "doc_number_pyear"),
		DocNumberPnumber:    extract.OptionalString(obj, "doc_number_pnumber"),
		DocAuthor:           extract.OptionalString(obj, "doc_author"),
		DocIssuer:           extract.OptionalString(obj, "doc_issuer"),
		DocIsbn:             extract.OptionalString(obj, "doc_isbn"),
		DocIssn:             extract.OptionalString(obj, "doc_issn"),
		DocCitation:         extract.OptionalString(obj, "doc_citation"),
		DocNote:             extract.OptionalString(obj, "doc_note"),
		PagesFrom:           extract.OptionalInt(obj, "pages_from"),
		PagesTo:             extract.OptionalInt(obj, "pages_to"),
		PaymentID:           extract.OptionalString(obj, "payment_id"),
		PaymentURL:          extract.OptionalURL(obj, "payment_url"),
	}

	if b.UpdatedAt, err = extract.OptionalTime(obj, "updated_datetime"); err != nil {
		return TicketBase{}, err
	}
	if b.ReturnAt, err = extract.OptionalTime(obj, "date_return"); err != nil {
		return TicketBase{}, err
	}
	if b.RequestedAt, err = extract.OptionalTime(obj, "date_requested"); err != nil {
		return TicketBase{}, err
	}
	return b, nil
}

// TicketCollection is an ordered list of tickets of either variant.
type TicketCollection struct {
	items []Ticket
}

// ParseTicketCollection parses the tickets of a listing in order. Items that
// fail the shape check are skipped; an item that passes it but does not
// parse aborts the listing with that error.
func ParseTicketCollection(items []any) (*TicketCollection, error) {
	c := &TicketCollection{items: make([]Ticket, 0, len(items))}
	for _, item := range items {
		obj, ok := looksLikeTicket(item)
		if !ok {
			continue
		}
		t, err := ParseTicket(obj)
		if err != nil {
			return nil, err
		}
		c.items = append(c.items, t)
	}
	return c, nil
}

func looksLikeTicket(item any) (extract.Object, bool) {
	obj, ok := extract.AsObject(item)
	if !ok {
		return nil, false
	}
	if _, ok := obj["ticket_id"].(string); !ok {
		return nil, false
	}
	typ, ok := obj["ticket_type"].(string)
	if !ok {
		return nil, false
	}
	if _, err := ParseTicketType(typ); err != nil {
		return nil, false
	}
	return obj, true
}

// All returns the tickets in listing order.
func (c *TicketCollection) All() []Ticket {
	out := make([]Ticket, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of tickets.
func (c *TicketCollection) Len() int { return len(c.items) }

// Get returns the ticket with the given id, or nil.
func (c *TicketCollection) Get(id string) Ticket {
	for _, t := range c.items {
		if t.Common().ID == id {
			return t
		}
	}
	return nil
}

// Open returns the tickets that are still open.
func (c *TicketCollection) Open() []Ticket {
	var out []Ticket
	for _, t := range c.items {
		if t.Common().IsOpen {
			out = append(out, t)
		}
	}
	return out
}
