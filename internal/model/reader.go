package model

import "github.com/colthorp/ziskej-cli-go/internal/extract"

// Reader is a library patron registered in Ziskej.
type Reader struct {
	ID                    string `json:"reader_id"`
	IsActive              bool   `json:"is_active"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Email                 string `json:"email"`
	IsNotificationEnabled bool   `json:"notification_enabled"`
	Sigla                 string `json:"sigla"`
	ReaderLibraryID       string `json:"reader_library_id,omitempty"`
	IsGdprReg             bool   `json:"is_gdpr_reg"`
	IsGdprData            bool   `json:"is_gdpr_data"`
	CountTickets          int    `json:"count_tickets"`
	CountTicketsOpen      int    `json:"count_tickets_open"`
	CountMessages         int    `json:"count_messages"`
	CountMessagesUnread   int    `json:"count_messages_unread"`
}

// ParseReader builds a Reader. Only reader_id is required.
func ParseReader(obj extract.Object) (*Reader, error) {
	id, err := extract.String(obj, "reader_id")
	if err != nil {
		return nil, err
	}
	return &Reader{
		ID:                    id,
		IsActive:              extract.OptionalBool(obj, "is_active"),
		FirstName:             extract.OptionalString(obj, "first_name"),
		LastName:              extract.OptionalString(obj, "last_name"),
		Email:                 extract.OptionalString(obj, "email"),
		IsNotificationEnabled: extract.OptionalBool(obj, "notification_enabled"),
		Sigla:                 extract.OptionalString(obj, "sigla"),
		ReaderLibraryID:       extract.OptionalString(obj, "reader_library_id"),
		IsGdprReg:             extract.OptionalBool(obj, "is_gdpr_reg"),
		IsGdprData:            extract.OptionalBool(obj, "is_gdpr_data"),
		CountTickets:          extract.OptionalInt(obj, "count_tickets"),
		CountTicketsOpen:      extract.OptionalInt(obj, "count_tickets_open"),
		CountMessages:         extract.OptionalInt(obj, "count_messages"),
		CountMessagesUnread:   extract.OptionalInt(obj, "count_messages_unread"),
	}, nil
}
