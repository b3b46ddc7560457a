package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/colthorp/ziskej-cli-go/internal/extract"
	"github.com/colthorp/ziskej-cli-go/internal/model"
)

// Endpoint templates
const (
	endpointLibraries   = "/libraries"
	endpointReader      = "/readers/:eppn"
	endpointTickets     = "/readers/:eppn/tickets"
	endpointTicket      = "/readers/:eppn/tickets/:ticket_id"
	endpointMessages    = "/readers/:eppn/tickets/:ticket_id/messages"
	endpointEddEstimate = "/service/edd/estimate"
)

// ZiskejAPI provides one typed method per Ziskej operation. It keeps no
// state between calls; concurrency safety is that of the Transport.
type ZiskejAPI struct {
	transport Transport
}

// NewZiskejAPI creates a new high-level API client.
func NewZiskejAPI(transport Transport) *ZiskejAPI {
	return &ZiskejAPI{transport: transport}
}

// send encodes req and passes it to the transport. Transport errors are
// returned as they are.
func (a *ZiskejAPI) send(ctx context.Context, req Request) (*Response, error) {
	body, err := req.EncodeBody()
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return a.transport.Do(ctx, req.Method, req.Path(), header, body)
}

// items decodes the body and returns its "items" array, nil when absent.
func items(resp *Response) ([]any, error) {
	obj, err := resp.Object()
	if err != nil {
		return nil, err
	}
	return extract.OptionalArray(obj, "items"), nil
}

// GetLibraries lists the libraries offering service.
func (a *ZiskejAPI) GetLibraries(ctx context.Context, service model.LibraryServiceType, includeDeactivated bool) (*model.LibraryCollection, error) {
	if _, err := model.ParseLibraryServiceType(string(service)); err != nil {
		return nil, &model.InvalidInputError{Field: "service", Message: err.Error()}
	}
	opts := []RequestOption{WithQuery("service", string(service))}
	if includeDeactivated {
		opts = append(opts, WithQuery("include_deactivated", true))
	}
	resp, err := a.send(ctx, NewRequest(http.MethodGet, endpointLibraries, opts...))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		list, err := items(resp)
		if err != nil {
			return nil, err
		}
		return model.ParseLibraryCollection(list), nil
	default:
		return nil, newResponseError(resp)
	}
}

// GetLibrariesAll lists every requesting library, deactivated ones included.
func (a *ZiskejAPI) GetLibrariesAll(ctx context.Context) (*model.LibraryCollection, error) {
	return a.GetLibraries(ctx, model.ServiceAnyZK, true)
}

// GetLibrariesMvsActive lists the active libraries requesting MVS loans.
func (a *ZiskejAPI) GetLibrariesMvsActive(ctx context.Context) (*model.LibraryCollection, error) {
	return a.GetLibraries(ctx, model.ServiceMVSZK, false)
}

// GetLibrariesEddActive lists the active libraries requesting EDD copies.
func (a *ZiskejAPI) GetLibrariesEddActive(ctx context.Context) (*model.LibraryCollection, error) {
	return a.GetLibraries(ctx, model.ServiceEDDZK, false)
}

// GetLibrary looks sigla up in GetLibrariesAll. It returns nil when the
// library is not part of Ziskej.
func (a *ZiskejAPI) GetLibrary(ctx context.Context, sigla string) (*model.Library, error) {
	libs, err := a.GetLibrariesAll(ctx)
	if err != nil {
		return nil, err
	}
	return libs.Get(sigla), nil
}

// GetReader returns the reader, or nil when the service does not know eppn.
func (a *ZiskejAPI) GetReader(ctx context.Context, eppn string) (*model.Reader, error) {
	resp, err := a.send(ctx, NewRequest(http.MethodGet, endpointReader,
		WithPathParam("eppn", eppn),
		WithQuery("expand", "status"),
	))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		obj, err := resp.Object()
		if err != nil {
			return nil, err
		}
		return model.ParseReader(obj)
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, newResponseError(resp)
	}
}

// UpdateReader creates or updates the reader and returns the stored record.
// A 422 answer means the library refused the reader and is reported as a
// *ValidationError.
func (a *ZiskejAPI) UpdateReader(ctx context.Context, eppn string, reader *model.CreateReaderRequest) (*model.Reader, error) {
	if reader == nil {
		return nil, &model.InvalidInputError{Field: "reader", Message: "is required"}
	}
	resp, err := a.send(ctx, NewRequest(http.MethodPut, endpointReader,
		WithPathParam("eppn", eppn),
		WithBody(reader.Payload()),
	))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		resp.Close()
		stored, err := a.GetReader(ctx, eppn)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, &APIProtocolError{Operation: "update reader", Message: fmt.Sprintf("reader %s not found after update", eppn)}
		}
		return stored, nil
	case http.StatusUnprocessableEntity:
		apiErr, err := readResponseError(resp)
		if err != nil {
			return nil, err
		}
		return nil, &ValidationError{Sigla: reader.Sigla, Response: apiErr}
	default:
		return nil, newResponseError(resp)
	}
}

// CreateReader is UpdateReader; the service upserts readers.
func (a *ZiskejAPI) CreateReader(ctx context.Context, eppn string, reader *model.CreateReaderRequest) (*model.Reader, error) {
	return a.UpdateReader(ctx, eppn, reader)
}

// GetTicketIDs lists the ids of the reader's tickets without details.
func (a *ZiskejAPI) GetTicketIDs(ctx context.Context, eppn string) ([]string, error) {
	resp, err := a.send(ctx, NewRequest(http.MethodGet, endpointTickets, WithPathParam("eppn", eppn)))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newResponseError(resp)
	}
	list, err := items(resp)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, item := range list {
		if id, ok := item.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListTickets returns the reader's tickets with details, closed ones
// included. An empty typ lists both kinds.
func (a *ZiskejAPI) ListTickets(ctx context.Context, eppn string, typ model.TicketType) (*model.TicketCollection, error) {
	opts := []RequestOption{
		WithPathParam("eppn", eppn),
		WithQuery("expand", "detail"),
		WithQuery("include_closed", true),
	}
	if typ != "" {
		if _, err := model.ParseTicketType(string(typ)); err != nil {
			return nil, &model.InvalidInputError{Field: "ticket_type", Message: err.Error()}
		}
		opts = append(opts, WithQuery("ticket_type", string(typ)))
	}
	resp, err := a.send(ctx, NewRequest(http.MethodGet, endpointTickets, opts...))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		list, err := items(resp)
		if err != nil {
			return nil, err
		}
		return model.ParseTicketCollection(list)
	default:
		return nil, newResponseError(resp)
	}
}

// GetTickets lists all of the reader's tickets.
func (a *ZiskejAPI) GetTickets(ctx context.Context, eppn string) (*model.TicketCollection, error) {
	return a.ListTickets(ctx, eppn, "")
}

// GetTicketsMvs lists the reader's MVS tickets.
func (a *ZiskejAPI) GetTicketsMvs(ctx context.Context, eppn string) (*model.TicketCollection, error) {
	return a.ListTickets(ctx, eppn, model.TicketTypeMVS)
}

// GetTicketsEdd lists the reader's EDD tickets.
func (a *ZiskejAPI) GetTicketsEdd(ctx context.Context, eppn string) (*model.TicketCollection, error) {
	return a.ListTickets(ctx, eppn, model.TicketTypeEDD)
}

// CreateTicket opens a ticket and returns it as fetched back from the
// service by the id the create call answered with.
func (a *ZiskejAPI) CreateTicket(ctx context.Context, eppn string, ticket model.TicketRequest) (model.Ticket, error) {
	if ticket == nil {
		return nil, &model.InvalidInputError{Field: "ticket", Message: "is required"}
	}
	if err := ticket.Validate(); err != nil {
		return nil, err
	}
	resp, err := a.send(ctx, NewRequest(http.MethodPost, endpointTickets,
		WithPathParam("eppn", eppn),
		WithBody(ticket.Payload()),
	))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, newResponseError(resp)
	}
	obj, err := resp.Object()
	if err != nil {
		return nil, err
	}
	id, ok := createdID(obj)
	if !ok {
		return nil, &APIProtocolError{Operation: "create ticket", Message: "response is missing the ticket id"}
	}

	created, err := a.GetTicket(ctx, eppn, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, &APIProtocolError{Operation: "create ticket", Message: fmt.Sprintf("ticket %s not found after create", id)}
	}
	return created, nil
}

// createdID reads the "id" of a create response; it may be a string or a number.
func createdID(obj extract.Object) (string, bool) {
	switch v := obj["id"].(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case json.Number:
		return v.String(), true
	}
	return "", false
}

// GetTicket returns the ticket, or nil when the service does not know it.
func (a *ZiskejAPI) GetTicket(ctx context.Context, eppn, ticketID string) (model.Ticket, error) {
	resp, err := a.send(ctx, NewRequest(http.MethodGet, endpointTicket,
		WithPathParam("eppn", eppn),
		WithPathParam("ticket_id", ticketID),
	))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		obj, err := resp.Object()
		if err != nil {
			return nil, err
		}
		return model.ParseTicket(obj)
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, newResponseError(resp)
	}
}

// CancelTicket asks the service to cancel the ticket. It reports false when
// the ticket is past the point where it can be cancelled.
func (a *ZiskejAPI) CancelTicket(ctx context.Context, eppn, ticketID string) (bool, error) {
	resp, err := a.send(ctx, NewRequest(http.MethodDelete, endpointTicket,
		WithPathParam("eppn", eppn),
		WithPathParam("ticket_id", ticketID),
	))
	if err != nil {
		return false, err
	}
	defer resp.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnprocessableEntity:
		return false, nil
	default:
		return false, newResponseError(resp)
	}
}

// GetMessages returns the ticket's messages oldest first. The service lists
// them newest first, so the items are reversed before parsing.
func (a *ZiskejAPI) GetMessages(ctx context.Context, eppn, ticketID string) (*model.MessageCollection, error) {
	resp, err := a.send(ctx, NewRequest(http.MethodGet, endpointMessages,
		WithPathParam("eppn", eppn),
		WithPathParam("ticket_id", ticketID),
	))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newResponseError(resp)
	}
	list, err := items(resp)
	if err != nil {
		return nil, err
	}
	reversed := make([]any, len(list))
	for i, item := range list {
		reversed[len(list)-1-i] = item
	}
	return model.ParseMessageCollection(reversed), nil
}

// CreateMessage posts a message to the ticket.
func (a *ZiskejAPI) CreateMessage(ctx context.Context, eppn, ticketID string, message *model.CreateMessageRequest) (bool, error) {
	if message == nil {
		return false, &model.InvalidInputError{Field: "text", Message: "is required"}
	}
	resp, err := a.send(ctx, NewRequest(http.MethodPost, endpointMessages,
		WithPathParam("eppn", eppn),
		WithPathParam("ticket_id", ticketID),
		WithBody(message.Payload()),
	))
	if err != nil {
		return false, err
	}
	defer resp.Close()

	if resp.StatusCode != http.StatusCreated {
		return false, newResponseError(resp)
	}
	return true, nil
}

// UpdateMessages marks all messages of the ticket read or unread.
func (a *ZiskejAPI) UpdateMessages(ctx context.Context, eppn, ticketID string, messages model.MarkMessagesReadRequest) (bool, error) {
	resp, err := a.send(ctx, NewRequest(http.MethodPut, endpointMessages,
		WithPathParam("eppn", eppn),
		WithPathParam("ticket_id", ticketID),
		WithBody(messages.Payload()),
	))
	if err != nil {
		return false, err
	}
	defer resp.Close()

	if resp.StatusCode != http.StatusOK {
		return false, newResponseError(resp)
	}
	return true, nil
}

// GetEddEstimate returns the expected fee for an EDD request of the given size.
func (a *ZiskejAPI) GetEddEstimate(ctx context.Context, numberOfPages int, subtype model.TicketEddSubtype) (*model.EddEstimate, error) {
	if numberOfPages < 1 {
		return nil, &model.InvalidInputError{Field: "number_of_pages", Message: "must be at least 1"}
	}
	if _, err := model.ParseTicketEddSubtype(string(subtype)); err != nil {
		return nil, &model.InvalidInputError{Field: "edd_subtype", Message: err.Error()}
	}
	resp, err := a.send(ctx, NewRequest(http.MethodGet, endpointEddEstimate,
		WithQuery("number_of_pages", numberOfPages),
		WithQuery("edd_subtype", string(subtype)),
	))
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newResponseError(resp)
	}
	obj, err := resp.Object()
	if err != nil {
		return nil, err
	}
	return model.ParseEddEstimate(obj), nil
}
