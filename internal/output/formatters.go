// Package output renders Ziskej objects for the terminal, as JSON or text.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/colthorp/ziskej-cli-go/internal/core"
	"github.com/colthorp/ziskej-cli-go/internal/model"
)

// Printer writes to one destination. Colors are used only when the
// destination is a terminal.
type Printer struct {
	w     io.Writer
	r     *lipgloss.Renderer
	label lipgloss.Style
	head  lipgloss.Style
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		r:     r,
		label: r.NewStyle().Bold(true),
		head:  r.NewStyle().Bold(true).Padding(0, 1),
	}
}

// PrintJSON prints a single item as formatted JSON.
func (p *Printer) PrintJSON(item any) error {
	v, err := jsonable(item)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// jsonable swaps values whose JSON form loses information for records.
func jsonable(item any) (any, error) {
	switch v := item.(type) {
	case model.Ticket:
		return TicketRecord(v)
	case []model.Ticket:
		return TicketRecords(v)
	}
	return item, nil
}

// TicketRecord flattens a ticket into a JSON-ready map, URLs included.
func TicketRecord(t model.Ticket) (map[string]any, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode ticket %s: %w", t.Common().ID, err)
	}
	rec := map[string]any{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("encode ticket %s: %w", t.Common().ID, err)
	}
	base := t.Common()
	if base.PaymentURL != nil {
		rec["payment_url"] = base.PaymentURL.String()
	}
	if edd, ok := t.(*model.TicketEdd); ok && edd.DownloadURL != nil {
		rec["edd_reader_url"] = edd.DownloadURL.String()
	}
	return rec, nil
}

// TicketRecords is TicketRecord over a list; the first failure aborts.
func TicketRecords(tickets []model.Ticket) ([]map[string]any, error) {
	out := make([]map[string]any, len(tickets))
	for i, t := range tickets {
		rec, err := TicketRecord(t)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// PrintLibraries prints one sigla per line.
func (p *Printer) PrintLibraries(libs []model.Library) {
	for _, l := range libs {
		fmt.Fprintln(p.w, l.Sigla)
	}
}

// PrintReader prints the reader's profile.
func (p *Printer) PrintReader(r *model.Reader) {
	p.fields(
		"Reader", r.ID,
		"Name", strings.TrimSpace(r.FirstName+" "+r.LastName),
		"Email", r.Email,
		"Library", r.Sigla,
		"Library ID", orDash(r.ReaderLibraryID),
		"Active", yesNo(r.IsActive),
		"Notifications", yesNo(r.IsNotificationEnabled),
		"GDPR", fmt.Sprintf("reg=%s data=%s", yesNo(r.IsGdprReg), yesNo(r.IsGdprData)),
		"Tickets", fmt.Sprintf("%d (%d open)", r.CountTickets, r.CountTicketsOpen),
		"Messages", fmt.Sprintf("%d (%d unread)", r.CountMessages, r.CountMessagesUnread),
	)
}

// PrintTickets prints a table with one ticket per row.
func (p *Printer) PrintTickets(tickets []model.Ticket) {
	if len(tickets) == 0 {
		fmt.Fprintln(p.w, "No tickets.")
		return
	}
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		b := t.Common()
		rows = append(rows, []string{
			b.ID,
			orDash(b.Hid),
			string(b.Type),
			statusText(b.Status),
			yesNo(b.IsOpen),
			b.CreatedAt.Format(core.DisplayTimeFmt),
			orDash(b.DocTitle),
		})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "HID", "TYPE", "STATUS", "OPEN", "CREATED", "TITLE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.head
			}
			return p.r.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(p.w, tbl.Render())
}

// PrintTicket prints a ticket's details.
func (p *Printer) PrintTicket(t model.Ticket) {
	b := t.Common()
	pairs := []string{
		"Ticket", b.ID,
		"HID", orDash(b.Hid),
		"Type", string(b.Type),
		"Library", orDash(b.Sigla),
		"Status", statusText(b.Status),
		"Open", yesNo(b.IsOpen),
		"Created", b.CreatedAt.Format(core.DisplayTimeFmt),
		"Updated", core.FormatTime(b.UpdatedAt),
		"Requested", core.FormatTime(b.RequestedAt),
		"Return by", core.FormatTime(b.ReturnAt),
		"Document", orDash(b.DocumentID),
		"Title", orDash(b.DocTitle),
		"Author", orDash(b.DocAuthor),
		"Messages", fmt.Sprintf("%d (%d unread)", b.CountMessages, b.CountMessagesUnread),
	}
	if b.PagesFrom > 0 || b.PagesTo > 0 {
		pairs = append(pairs, "Pages", fmt.Sprintf("%d-%d", b.PagesFrom, b.PagesTo))
	}
	if b.PaymentURL != nil {
		pairs = append(pairs, "Payment", b.PaymentURL.String())
	}
	if edd, ok := t.(*model.TicketEdd); ok {
		pairs = append(pairs,
			"Subtype", enumText(edd.EddSubtype),
			"Source", enumText(edd.DocDataSource),
			"Published in", orDash(edd.DocTitleIn),
		)
		if edd.DownloadURL != nil {
			pairs = append(pairs, "Download", edd.DownloadURL.String())
		}
	}
	p.fields(pairs...)

	if len(b.StatusHistory) > 0 {
		fmt.Fprintln(p.w, p.label.Render("History:"))
		for _, s := range b.StatusHistory {
			fmt.Fprintf(p.w, "  %s  %s\n", core.FormatDate(s.CreatedAt), s.Name)
		}
	}
}

// PrintMessages prints the conversation in order, marking unread messages.
func (p *Printer) PrintMessages(msgs []model.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(p.w, "No messages.")
		return
	}
	for _, m := range msgs {
		marker := " "
		if !m.Read {
			marker = "*"
		}
		fmt.Fprintf(p.w, "%s %s %s: %s\n", marker, m.CreatedAt.Format(core.DisplayTimeFmt), p.label.Render(m.Sender), m.Text)
	}
}

// PrintEstimate prints an EDD fee estimate.
func (p *Printer) PrintEstimate(e *model.EddEstimate) {
	p.fields(
		"Fee", fmt.Sprintf("%.2f", e.Fee),
		"Supplier fee", fmt.Sprintf("%.2f", e.FeeDk),
		"DILIA fee", fmt.Sprintf("%.2f", e.FeeDilia),
		"Valid", yesNo(e.IsValid),
	)
}

// fields prints label/value pairs aligned on the labels.
func (p *Printer) fields(pairs ...string) {
	width := 0
	for i := 0; i < len(pairs); i += 2 {
		width = max(width, len(pairs[i]))
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		label := p.label.Render(fmt.Sprintf("%-*s", width+1, pairs[i]+":"))
		fmt.Fprintf(p.w, "%s %s\n", label, pairs[i+1])
	}
}

func statusText(s *model.StatusName) string {
	if s == nil {
		return "-"
	}
	return string(*s)
}

func enumText[E ~string](e *E) string {
	if e == nil {
		return "-"
	}
	return string(*e)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
