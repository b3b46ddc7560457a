package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// EddSelectionMaxPages is the widest page range a selection request may ask for.
const EddSelectionMaxPages = 20

// DateRequestedLayout is the wire format of date_requested.
const DateRequestedLayout = "2006-01-02"

var validate = newValidator()

// newValidator reports fields by their json name so errors carry wire keys.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// InvalidInputError reports a request model that cannot be sent.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Message)
}

// checkStruct runs the struct tags through the validator and reports the
// first failure as an *InvalidInputError.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &InvalidInputError{Message: err.Error()}
	}
	fe := fieldErrs[0]
	return &InvalidInputError{Field: fe.Field(), Message: describeTag(fe)}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "invalid email format"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte":
		return "must be at least " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}

// CreateReaderRequest registers or updates a reader.
type CreateReaderRequest struct {
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Email                 string `json:"email" validate:"required,email"`
	Sigla                 string `json:"sigla"`
	IsGdprReg             bool   `json:"is_gdpr_reg"`
	IsGdprData            bool   `json:"is_gdpr_data"`
	ReaderLibraryID       string `json:"reader_library_id,omitempty"`
	IsNotificationEnabled bool   `json:"notification_enabled"`
}

// ReaderOption customizes a CreateReaderRequest.
type ReaderOption func(*CreateReaderRequest)

// WithReaderLibraryID sets the reader's id in the home library system.
func WithReaderLibraryID(id string) ReaderOption {
	return func(r *CreateReaderRequest) { r.ReaderLibraryID = id }
}

// WithNotifications toggles e-mail notifications; they are on by default.
func WithNotifications(enabled bool) ReaderOption {
	return func(r *CreateReaderRequest) { r.IsNotificationEnabled = enabled }
}

// NewCreateReaderRequest validates the e-mail address before returning the
// request. The sigla is passed through for the service to judge.
func NewCreateReaderRequest(firstName, lastName, email, sigla string, gdprReg, gdprData bool, opts ...ReaderOption) (*CreateReaderRequest, error) {
	r := &CreateReaderRequest{
		FirstName:             firstName,
		LastName:              lastName,
		Email:                 email,
		Sigla:                 sigla,
		IsGdprReg:             gdprReg,
		IsGdprData:            gdprData,
		IsNotificationEnabled: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := checkStruct(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Payload returns the PUT body. reader_library_id is omitted when unset.
func (r *CreateReaderRequest) Payload() map[string]any {
	p := map[string]any{
		"first_name":           r.FirstName,
		"last_name":            r.LastName,
		"email":                r.Email,
		"sigla":                r.Sigla,
		"notification_enabled": r.IsNotificationEnabled,
		"is_gdpr_reg":          r.IsGdprReg,
		"is_gdpr_data":         r.IsGdprData,
	}
	if r.ReaderLibraryID != "" {
		p["reader_library_id"] = r.ReaderLibraryID
	}
	return p
}

// TicketRequest is a request to open a new ticket of either type.
type TicketRequest interface {
	TicketType() TicketType
	Validate() error
	Payload() map[string]any
}

// MvsTicketRequest asks for a physical loan of a document.
type MvsTicketRequest struct {
	DocumentID     string     `json:"doc_id" validate:"required"`
	DocumentAltIDs []string   `json:"doc_alt_ids,omitempty"`
	ReaderNote     string     `json:"reader_note,omitempty"`
	DateRequested  *time.Time `json:"date_requested,omitempty"`
}

// NewMvsTicketRequest returns a request for the document with the given id.
func NewMvsTicketRequest(documentID string) (*MvsTicketRequest, error) {
	r := &MvsTicketRequest{DocumentID: documentID}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// TicketType returns TicketTypeMVS.
func (r *MvsTicketRequest) TicketType() TicketType { return TicketTypeMVS }

// Validate reports missing required fields.
func (r *MvsTicketRequest) Validate() error { return checkStruct(r) }

// Payload returns the POST body with empty optional fields left out.
func (r *MvsTicketRequest) Payload() map[string]any {
	p := map[string]any{
		"ticket_type": string(TicketTypeMVS),
		"doc_id":      r.DocumentID,
	}
	if len(r.DocumentAltIDs) > 0 {
		p["doc_alt_ids"] = r.DocumentAltIDs
	}
	putString(p, "reader_note", r.ReaderNote)
	putDate(p, "date_requested", r.DateRequested)
	return p
}

// EddTicketRequest asks for an electronic copy of an article or a page range.
type EddTicketRequest struct {
	DocDataSource    TicketDataSource `json:"ticket_doc_data_source" validate:"required,oneof=auto manual"`
	EddSubtype       TicketEddSubtype `json:"edd_subtype" validate:"required,oneof=article selection"`
	DocTitleIn       string           `json:"doc_title_in"`
	DocTitle         string           `json:"doc_title"`
	DocumentID       string           `json:"doc_id"`
	DocumentAltIDs   []string         `json:"doc_alt_ids,omitempty"`
	DocIDIn          string           `json:"doc_id_in,omitempty"`
	ReaderNote       string           `json:"reader_note,omitempty"`
	DocNumberYear    string           `json:"doc_number_year,omitempty"`
	DocNumberPyear   string           `json:"doc_number_pyear,omitempty"`
	DocNumberPnumber string           `json:"doc_number_pnumber,omitempty"`
	DocVolume        string           `json:"doc_volume,omitempty"`
	PagesFrom        int              `json:"pages_from,omitempty" validate:"gte=0"`
	PagesTo          int              `json:"pages_to,omitempty" validate:"gte=0"`
	DocAuthor        string           `json:"doc_author,omitempty"`
	DocIssuer        string           `json:"doc_issuer,omitempty"`
	DocIssn          string           `json:"doc_issn,omitempty"`
	DocIsbn          string           `json:"doc_isbn,omitempty"`
	DocCitation      string           `json:"doc_citation,omitempty"`
	DocNote          string           `json:"doc_note,omitempty"`
	DateRequested    *time.Time       `json:"date_requested,omitempty"`
}

// NewEddTicketRequest returns an EDD request. An auto data source needs the
// catalogue id of the document.
func NewEddTicketRequest(source TicketDataSource, subtype TicketEddSubtype, docTitleIn, docTitle, documentID string) (*EddTicketRequest, error) {
	r := &EddTicketRequest{
		DocDataSource: source,
		EddSubtype:    subtype,
		DocTitleIn:    docTitleIn,
		DocTitle:      docTitle,
		DocumentID:    documentID,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// TicketType returns TicketTypeEDD.
func (r *EddTicketRequest) TicketType() TicketType { return TicketTypeEDD }

// Validate checks the enums, the document id rule and the page range.
func (r *EddTicketRequest) Validate() error {
	if err := checkStruct(r); err != nil {
		return err
	}
	if r.DocDataSource == DataSourceAuto && r.DocumentID == "" {
		return &InvalidInputError{Field: "doc_id", Message: "is required when ticket_doc_data_source is auto"}
	}
	if r.PagesFrom > 0 && r.PagesTo > 0 {
		if r.PagesFrom > r.PagesTo {
			return &InvalidInputError{Field: "pages_to", Message: fmt.Sprintf("must not be lower than pages_from (%d)", r.PagesFrom)}
		}
		if r.EddSubtype == EddSubtypeSelection && r.PagesTo-r.PagesFrom+1 > EddSelectionMaxPages {
			return &InvalidInputError{Field: "pages_to", Message: fmt.Sprintf("selection may span at most %d pages", EddSelectionMaxPages)}
		}
	}
	return nil
}

// Payload returns the POST body. The data source, subtype, titles and
// document id are always sent; everything else only when set.
func (r *EddTicketRequest) Payload() map[string]any {
	p := map[string]any{
		"ticket_type":            string(TicketTypeEDD),
		"ticket_doc_data_source": string(r.DocDataSource),
		"edd_subtype":            string(r.EddSubtype),
		"doc_title_in":           r.DocTitleIn,
		"doc_title":              r.DocTitle,
		"doc_id":                 r.DocumentID,
	}
	if len(r.DocumentAltIDs) > 0 {
		p["doc_alt_ids"] = r.DocumentAltIDs
	}
	putString(p, "doc_id_in", r.DocIDIn)
	putString(p, "doc_number_year", r.DocNumberYear)
	putString(p, "doc_number_pyear", r.DocNumberPyear)
	putString(p, "doc_number_pnumber", r.DocNumberPnumber)
	putString(p, "doc_volume", r.DocVolume)
	putInt(p, "pages_from", r.PagesFrom)
	putInt(p, "pages_to", r.PagesTo)
	putString(p, "doc_author", r.DocAuthor)
	putString(p, "doc_issuer", r.DocIssuer)
	putString(p, "doc_issn", r.DocIssn)
	putString(p, "doc_isbn", r.DocIsbn)
	putString(p, "doc_citation", r.DocCitation)
	putString(p, "doc_note", r.DocNote)
	putString(p, "reader_note", r.ReaderNote)
	putDate(p, "date_requested", r.DateRequested)
	return p
}

// CreateMessageRequest posts a new message to a ticket.
type CreateMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// NewCreateMessageRequest rejects empty messages.
func NewCreateMessageRequest(text string) (*CreateMessageRequest, error) {
	r := &CreateMessageRequest{Text: text}
	if err := checkStruct(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Payload returns the POST body.
func (r *CreateMessageRequest) Payload() map[string]any {
	return map[string]any{"text": r.Text}
}

// MarkMessagesReadRequest flags every message of a ticket read or unread.
type MarkMessagesReadRequest struct {
	Read bool
}

// Payload returns the PUT body; the service expects the inverted flag.
func (r MarkMessagesReadRequest) Payload() map[string]any {
	return map[string]any{"unread": !r.Read}
}

func putString(p map[string]any, key, v string) {
	if v != "" {
		p[key] = v
	}
}

func putInt(p map[string]any, key string, v int) {
	if v != 0 {
		p[key] = v
	}
}

func putDate(p map[string]any, key string, v *time.Time) {
	if v != nil && !v.IsZero() {
		p[key] = v.Format(DateRequestedLayout)
	}
}
