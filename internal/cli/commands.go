package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/colthorp/ziskej-cli-go/internal/core"
	"github.com/colthorp/ziskej-cli-go/internal/model"
	"github.com/colthorp/ziskej-cli-go/internal/output"
)

func (a *App) librariesCmd() *cobra.Command {
	var (
		service            string
		includeDeactivated bool
	)
	cmd := &cobra.Command{
		Use:   "libraries",
		Short: "List libraries offering a service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := model.ParseLibraryServiceType(service)
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			libs, err := s.client.GetLibraries(cmd.Context(), svc, includeDeactivated)
			if err != nil {
				return err
			}
			if a.raw {
				return s.out.PrintJSON(siglaList(libs.All()))
			}
			s.out.PrintLibraries(libs.All())
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", string(model.ServiceAny), "Service type ("+joinValues(model.LibraryServiceTypes)+")")
	cmd.Flags().BoolVar(&includeDeactivated, "include-deactivated", false, "Include deactivated libraries")
	return cmd
}

func (a *App) libraryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "library [sigla]",
		Short: "Check whether a library takes part in Ziskej",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sigla := strings.ToUpper(strings.TrimSpace(args[0]))
			s, err := a.open()
			if err != nil {
				return err
			}
			lib, err := s.client.GetLibrary(cmd.Context(), sigla)
			if err != nil {
				return err
			}
			if lib == nil {
				return fmt.Errorf("library %s is not part of Ziskej", sigla)
			}
			return a.emit(s, lib, func(p *output.Printer) { p.PrintLibraries([]model.Library{*lib}) })
		},
	}
}

func (a *App) readerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reader",
		Short: "Show or register the reader",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the reader's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			reader, err := s.client.GetReader(cmd.Context(), eppn)
			if err != nil {
				return err
			}
			if reader == nil {
				return fmt.Errorf("reader %s is not registered", eppn)
			}
			return a.emit(s, reader, func(p *output.Printer) { p.PrintReader(reader) })
		},
	}

	var (
		firstName, lastName, email, sigla, libraryID string
		gdprReg, gdprData, notifications             bool
	)
	put := &cobra.Command{
		Use:   "put",
		Short: "Create or update the reader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			opts := []model.ReaderOption{model.WithNotifications(notifications)}
			if libraryID != "" {
				opts = append(opts, model.WithReaderLibraryID(libraryID))
			}
			req, err := model.NewCreateReaderRequest(firstName, lastName, email, sigla, gdprReg, gdprData, opts...)
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			reader, err := s.client.UpdateReader(cmd.Context(), eppn, req)
			if err != nil {
				return err
			}
			return a.emit(s, reader, func(p *output.Printer) { p.PrintReader(reader) })
		},
	}
	put.Flags().StringVar(&firstName, "first-name", "", "First name")
	put.Flags().StringVar(&lastName, "last-name", "", "Last name")
	put.Flags().StringVar(&email, "email", "", "Email address")
	put.Flags().StringVar(&sigla, "sigla", "", "Sigla of the reader's home library")
	put.Flags().StringVar(&libraryID, "library-id", "", "Reader id in the home library")
	put.Flags().BoolVar(&gdprReg, "gdpr-reg", false, "Consent to registration")
	put.Flags().BoolVar(&gdprData, "gdpr-data", false, "Consent to data processing")
	put.Flags().BoolVar(&notifications, "notifications", true, "Email notifications")

	cmd.AddCommand(get, put)
	return cmd
}

func (a *App) ticketsCmd() *cobra.Command {
	var (
		ticketType string
		openOnly   bool
	)
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List the reader's tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			var typ model.TicketType
			if ticketType != "" {
				if typ, err = model.ParseTicketType(ticketType); err != nil {
					return err
				}
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			tickets, err := s.client.ListTickets(cmd.Context(), eppn, typ)
			if err != nil {
				return err
			}
			list := tickets.All()
			if openOnly {
				list = tickets.Open()
			}
			return a.emit(s, list, func(p *output.Printer) { p.PrintTickets(list) })
		},
	}
	cmd.Flags().StringVar(&ticketType, "type", "", "Only tickets of this type ("+joinValues(model.TicketTypes)+")")
	cmd.Flags().BoolVar(&openOnly, "open", false, "Only open tickets")
	return cmd
}

func (a *App) ticketIDsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ticket-ids",
		Short: "List the ids of the reader's tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			ids, err := s.client.GetTicketIDs(cmd.Context(), eppn)
			if err != nil {
				return err
			}
			return a.emit(s, ids, func(*output.Printer) {
				for _, id := range ids {
					fmt.Fprintln(a.Out, id)
				}
			})
		},
	}
}

func (a *App) ticketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Show, create or cancel a ticket",
	}

	get := &cobra.Command{
		Use:   "get [ticket_id]",
		Short: "Show a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			ticket, err := s.client.GetTicket(cmd.Context(), eppn, args[0])
			if err != nil {
				return err
			}
			if ticket == nil {
				return fmt.Errorf("ticket %s not found", args[0])
			}
			return a.emit(s, ticket, func(p *output.Printer) { p.PrintTicket(ticket) })
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel [ticket_id]",
		Short: "Cancel a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			ok, err := s.client.CancelTicket(cmd.Context(), eppn, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("ticket %s cannot be cancelled", args[0])
			}
			return a.emit(s, map[string]any{"ticket_id": args[0], "cancelled": true}, func(*output.Printer) {
				fmt.Fprintf(a.Out, "Ticket %s cancelled.\n", args[0])
			})
		},
	}

	cmd.AddCommand(get, cancel, a.createMvsCmd(), a.createEddCmd())
	return cmd
}

func (a *App) createMvsCmd() *cobra.Command {
	var (
		docID, note, date string
		altIDs            []string
	)
	cmd := &cobra.Command{
		Use:   "create-mvs",
		Short: "Request a physical loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			req, err := model.NewMvsTicketRequest(docID)
			if err != nil {
				return err
			}
			req.DocumentAltIDs = altIDs
			req.ReaderNote = note
			if req.DateRequested, err = a.dateFlag(date); err != nil {
				return err
			}
			return a.createTicket(cmd, eppn, req)
		},
	}
	cmd.Flags().StringVar(&docID, "doc-id", "", "Catalogue id of the document")
	cmd.Flags().StringSliceVar(&altIDs, "alt-id", nil, "Alternative catalogue ids")
	cmd.Flags().StringVar(&note, "note", "", "Note for the library")
	cmd.Flags().StringVar(&date, "date", "", "Needed by (YYYY-MM-DD, today, tomorrow, d+N, w+N, m+N)")
	return cmd
}

func (a *App) createEddCmd() *cobra.Command {
	var (
		source, subtype, titleIn, title, docID, docIDIn string
		author, issuer, issn, isbn, citation, docNote   string
		volume, year, pyear, pnumber, note, date        string
		pagesFrom, pagesTo                              int
		altIDs                                          []string
	)
	cmd := &cobra.Command{
		Use:   "create-edd",
		Short: "Request an electronic copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			req, err := model.NewEddTicketRequest(model.TicketDataSource(source), model.TicketEddSubtype(subtype), titleIn, title, docID)
			if err != nil {
				return err
			}
			req.DocumentAltIDs = altIDs
			req.DocIDIn = docIDIn
			req.DocAuthor = author
			req.DocIssuer = issuer
			req.DocIssn = issn
			req.DocIsbn = isbn
			req.DocCitation = citation
			req.DocNote = docNote
			req.DocVolume = volume
			req.DocNumberYear = year
			req.DocNumberPyear = pyear
			req.DocNumberPnumber = pnumber
			req.PagesFrom = pagesFrom
			req.PagesTo = pagesTo
			req.ReaderNote = note
			if req.DateRequested, err = a.dateFlag(date); err != nil {
				return err
			}
			return a.createTicket(cmd, eppn, req)
		},
	}
	cmd.Flags().StringVar(&source, "source", string(model.DataSourceManual), "Document data source ("+joinValues(model.TicketDataSources)+")")
	cmd.Flags().StringVar(&subtype, "subtype", string(model.EddSubtypeArticle), "EDD subtype ("+joinValues(model.TicketEddSubtypes)+")")
	cmd.Flags().StringVar(&titleIn, "title-in", "", "Title of the periodical or book")
	cmd.Flags().StringVar(&title, "title", "", "Title of the article or chapter")
	cmd.Flags().StringVar(&docID, "doc-id", "", "Catalogue id of the document")
	cmd.Flags().StringSliceVar(&altIDs, "alt-id", nil, "Alternative catalogue ids")
	cmd.Flags().StringVar(&docIDIn, "doc-id-in", "", "Catalogue id of the periodical")
	cmd.Flags().StringVar(&author, "author", "", "Author")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Publisher")
	cmd.Flags().StringVar(&issn, "issn", "", "ISSN")
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&citation, "citation", "", "Citation")
	cmd.Flags().StringVar(&docNote, "doc-note", "", "Note on the document")
	cmd.Flags().StringVar(&volume, "volume", "", "Volume")
	cmd.Flags().StringVar(&year, "year", "", "Year of publication")
	cmd.Flags().StringVar(&pyear, "pyear", "", "Periodical year")
	cmd.Flags().StringVar(&pnumber, "pnumber", "", "Periodical number")
	cmd.Flags().IntVar(&pagesFrom, "pages-from", 0, "First page")
	cmd.Flags().IntVar(&pagesTo, "pages-to", 0, "Last page")
	cmd.Flags().StringVar(&note, "note", "", "Note for the library")
	cmd.Flags().StringVar(&date, "date", "", "Needed by (YYYY-MM-DD, today, tomorrow, d+N, w+N, m+N)")
	return cmd
}

func (a *App) createTicket(cmd *cobra.Command, eppn string, req model.TicketRequest) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	ticket, err := s.client.CreateTicket(cmd.Context(), eppn, req)
	if err != nil {
		return err
	}
	return a.emit(s, ticket, func(p *output.Printer) { p.PrintTicket(ticket) })
}

func (a *App) messagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Read and write ticket messages",
	}

	list := &cobra.Command{
		Use:   "list [ticket_id]",
		Short: "Show the conversation on a ticket, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			msgs, err := s.client.GetMessages(cmd.Context(), eppn, args[0])
			if err != nil {
				return err
			}
			return a.emit(s, msgs.All(), func(p *output.Printer) { p.PrintMessages(msgs.All()) })
		},
	}

	send := &cobra.Command{
		Use:   "send [ticket_id] [text...]",
		Short: "Send a message to the library handling a ticket",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			req, err := model.NewCreateMessageRequest(strings.TrimSpace(strings.Join(args[1:], " ")))
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			ok, err := s.client.CreateMessage(cmd.Context(), eppn, args[0], req)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("message was not accepted for ticket %s", args[0])
			}
			return a.emit(s, map[string]any{"ticket_id": args[0], "sent": true}, func(*output.Printer) {
				fmt.Fprintln(a.Out, "Message sent.")
			})
		},
	}

	var unread bool
	markRead := &cobra.Command{
		Use:   "mark-read [ticket_id]",
		Short: "Mark every message on a ticket read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eppn, err := a.requireEppn()
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			ok, err := s.client.UpdateMessages(cmd.Context(), eppn, args[0], model.MarkMessagesReadRequest{Read: !unread})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("messages of ticket %s were not updated", args[0])
			}
			state := "read"
			if unread {
				state = "unread"
			}
			return a.emit(s, map[string]any{"ticket_id": args[0], "read": !unread}, func(*output.Printer) {
				fmt.Fprintf(a.Out, "Messages marked %s.\n", state)
			})
		},
	}
	markRead.Flags().BoolVar(&unread, "unread", false, "Mark the messages unread instead")

	cmd.AddCommand(list, send, markRead)
	return cmd
}

func (a *App) estimateCmd() *cobra.Command {
	var (
		pages   int
		subtype string
	)
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the fee for an EDD request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := model.ParseTicketEddSubtype(subtype)
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			est, err := s.client.GetEddEstimate(cmd.Context(), pages, sub)
			if err != nil {
				return err
			}
			return a.emit(s, est, func(p *output.Printer) { p.PrintEstimate(est) })
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages")
	cmd.Flags().StringVar(&subtype, "subtype", string(model.EddSubtypeArticle), "EDD subtype ("+joinValues(model.TicketEddSubtypes)+")")
	return cmd
}

func (a *App) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the bearer token requests are sent with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.settings()
			if err != nil {
				return err
			}
			creds, err := cfg.Credentials()
			if err != nil {
				return err
			}
			if creds == nil {
				return fmt.Errorf("no credentials configured (set %s or %s)", core.EnvToken, core.EnvPrivateKey)
			}
			token, err := creds.Token(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, token)
			return nil
		},
	}
}

// dateFlag resolves a date spec relative to today; empty means unset.
func (a *App) dateFlag(spec string) (*time.Time, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	d, err := core.ParseDateSpec(spec, a.Now())
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func siglaList(libs []model.Library) []string {
	out := make([]string, len(libs))
	for i, l := range libs {
		out[i] = l.Sigla
	}
	return out
}

func joinValues[E ~string](values []E) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
