package model

import "github.com/colthorp/ziskej-cli-go/internal/extract"

// TicketType discriminates MVS and EDD tickets.
type TicketType string

const (
	TicketTypeMVS TicketType = "mvs"
	TicketTypeEDD TicketType = "edd"
)

// TicketTypes lists every TicketType.
var TicketTypes = []TicketType{TicketTypeMVS, TicketTypeEDD}

// ParseTicketType validates s as a TicketType.
func ParseTicketType(s string) (TicketType, error) {
	return extract.ParseEnum("ticket_type", s, TicketTypes)
}

// StatusName is the reader-facing ticket status.
type StatusName string

const (
	StatusCreated   StatusName = "created"
	StatusPaid      StatusName = "paid"
	StatusUnpaid    StatusName = "unpaid"
	StatusAccepted  StatusName = "accepted"
	StatusPrepared  StatusName = "prepared"
	StatusLent      StatusName = "lent"
	StatusClosed    StatusName = "closed"
	StatusCancelled StatusName = "cancelled"
	StatusRejected  StatusName = "rejected"
)

// StatusNames lists every StatusName.
var StatusNames = []StatusName{
	StatusCreated,
	StatusPaid,
	StatusUnpaid,
	StatusAccepted,
	StatusPrepared,
	StatusLent,
	StatusClosed,
	StatusCancelled,
	StatusRejected,
}

// ParseStatusName validates s as a StatusName.
func ParseStatusName(s string) (StatusName, error) {
	return extract.ParseEnum("status", s, StatusNames)
}

// TicketDataSource tells whether EDD document data came from the catalog.
type TicketDataSource string

const (
	DataSourceAuto   TicketDataSource = "auto"
	DataSourceManual TicketDataSource = "manual"
)

// TicketDataSources lists every TicketDataSource.
var TicketDataSources = []TicketDataSource{DataSourceAuto, DataSourceManual}

// ParseTicketDataSource validates s as a TicketDataSource.
func ParseTicketDataSource(s string) (TicketDataSource, error) {
	return extract.ParseEnum("ticket_doc_data_source", s, TicketDataSources)
}

// TicketEddSubtype is the kind of EDD delivery.
type TicketEddSubtype string

const (
	EddSubtypeArticle   TicketEddSubtype = "article"
	EddSubtypeSelection TicketEddSubtype = "selection"
)

// TicketEddSubtypes lists every TicketEddSubtype.
var TicketEddSubtypes = []TicketEddSubtype{EddSubtypeArticle, EddSubtypeSelection}

// ParseTicketEddSubtype validates s as a TicketEddSubtype.
func ParseTicketEddSubtype(s string) (TicketEddSubtype, error) {
	return extract.ParseEnum("edd_subtype", s, TicketEddSubtypes)
}

// LibraryServiceType filters the library listing by service and role.
// The "zk" suffix selects requesting libraries, "dk" supplying ones.
type LibraryServiceType string

const (
	ServiceAny   LibraryServiceType = "any"
	ServiceAnyZK LibraryServiceType = "anyzk"
	ServiceAnyDK LibraryServiceType = "anydk"
	ServiceMVS   LibraryServiceType = "mvs"
	ServiceEDD   LibraryServiceType = "edd"
	ServiceMVSZK LibraryServiceType = "mvszk"
	ServiceMVSDK LibraryServiceType = "mvsdk"
	ServiceEDDZK LibraryServiceType = "eddzk"
	ServiceEDDDK LibraryServiceType = "edddk"
)

// LibraryServiceTypes lists every LibraryServiceType.
var LibraryServiceTypes = []LibraryServiceType{
	ServiceAny,
	ServiceAnyZK,
	ServiceAnyDK,
	ServiceMVS,
	ServiceEDD,
	ServiceMVSZK,
	ServiceMVSDK,
	ServiceEDDZK,
	ServiceEDDDK,
}

// ParseLibraryServiceType validates s as a LibraryServiceType.
func ParseLibraryServiceType(s string) (LibraryServiceType, error) {
	return extract.ParseEnum("service", s, LibraryServiceTypes)
}
