package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colthorp/ziskej-cli-go/internal/api"
	"github.com/colthorp/ziskej-cli-go/internal/config"
	"github.com/colthorp/ziskej-cli-go/internal/core"
)

const (
	eppn        = "1185@mzk.cz"
	ticketsPath = "/readers/1185@mzk.cz/tickets"
	detailPath  = "/readers/1185@mzk.cz/tickets/T1"
	msgsPath    = "/readers/1185@mzk.cz/tickets/T1/messages"
	mvsBody     = `{"ticket_type": "mvs", "ticket_id": "T1", "hid": "MVS-1", "created_datetime": "2026-10-01T09:30:00Z", "is_open": true, "doc_id": "mzk.1", "doc_title": "Babicka", "status_reader": "created"}`
)

var fixedNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

type harness struct {
	transport *api.MockTransport
	stdin     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, name := range []string{core.EnvToken, core.EnvPrivateKey, core.EnvEppn, core.EnvLegacyAPIURL} {
		t.Setenv(name, "")
	}
	t.Setenv(core.EnvAPIURL, "https://ziskej.example.cz/api/v1")
	return &harness{transport: api.NewMockTransport()}
}

// run executes the command line and returns what it printed.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := &App{
		In:  strings.NewReader(h.stdin),
		Out: &out,
		Err: &errOut,
		Now: func() time.Time { return fixedNow },
		Connect: func(config.Config, *slog.Logger) (*api.ZiskejAPI, error) {
			return api.NewZiskejAPI(h.transport), nil
		},
	}
	cmd := app.RootCmd()
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLibraries(t *testing.T) {
	h := newHarness(t)
	h.transport.On("GET", "/libraries?service=any", 200, `{"items": ["ABA001", "BOA001"]}`)

	out, err := h.run(t, "libraries")
	require.NoError(t, err)
	assert.Equal(t, "ABA001\nBOA001\n", out)

	out, err = h.run(t, "libraries", "--raw")
	require.NoError(t, err)
	assert.JSONEq(t, `["ABA001", "BOA001"]`, out)
	assert.Equal(t, 2, h.transport.RequestsMade(), "every listing asks the service")
}

func TestLibrariesFlags(t *testing.T) {
	h := newHarness(t)
	h.transport.On("GET", "/libraries?include_deactivated=1&service=mvszk", 200, `{"items": ["ABA001"]}`)

	out, err := h.run(t, "libraries", "--service", "mvszk", "--include-deactivated")
	require.NoError(t, err)
	assert.Equal(t, "ABA001\n", out)

	_, err = h.run(t, "libraries", "--service", "bogus")
	assert.Error(t, err)
	assert.Equal(t, 1, h.transport.RequestsMade())

	_, err = h.run(t, "libraries", "--offline")
	assert.ErrorContains(t, err, "unknown flag")
}

func TestLibrariesServiceFailure(t *testing.T) {
	h := newHarness(t)
	h.transport.On("GET", "/libraries?service=any", 200, `{"items": ["ABA001"]}`)

	_, err := h.run(t, "libraries")
	require.NoError(t, err)

	h.transport.On("GET", "/libraries?service=any", 503, `{"detail": "maintenance"}`)
	out, err := h.run(t, "libraries")
	var respErr *api.APIResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 503, respErr.StatusCode)
	assert.Empty(t, out, "a failed listing prints nothing")
}

func TestLibrary(t *testing.T) {
	h := newHarness(t)
	h.transport.On("GET", "/libraries?include_deactivated=1&service=anyzk", 200, `{"items": ["BOA001"]}`)

	out, err := h.run(t, "library", "boa001")
	require.NoError(t, err)
	assert.Equal(t, "BOA001\n", out)

	_, err = h.run(t, "library", "XYZ999")
	assert.ErrorContains(t, err, "XYZ999 is not part of Ziskej")
}

func TestReaderCommands(t *testing.T) {
	h := newHarness(t)
	readerPath := "/readers/1185@mzk.cz?expand=status"
	h.transport.On("GET", readerPath, 404, "")

	_, err := h.run(t, "reader", "get")
	assert.ErrorContains(t, err, "--eppn")

	_, err = h.run(t, "--eppn", eppn, "reader", "get")
	assert.ErrorContains(t, err, "not registered")

	h.transport.Reset()
	h.transport.On("PUT", "/readers/1185@mzk.cz", 201, "")
	h.transport.On("GET", readerPath, 200, `{"reader_id": "1185", "first_name": "Jana", "last_name": "Novakova", "email": "jana@example.cz", "sigla": "BOA001", "is_active": true}`)

	out, err := h.run(t, "--eppn", eppn, "reader", "put",
		"--first-name", "Jana", "--last-name", "Novakova", "--email", "jana@example.cz",
		"--sigla", "BOA001", "--gdpr-reg", "--gdpr-data", "--notifications=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Jana Novakova")

	put, ok := h.transport.Last()
	require.True(t, ok)
	assert.Equal(t, "GET", put.Method, "update is followed by a fetch")
	body := h.transport.RequestLog[0].Body
	assert.JSONEq(t, `{"first_name": "Jana", "last_name": "Novakova", "email": "jana@example.cz", "sigla": "BOA001", "is_gdpr_reg": true, "is_gdpr_data": true, "notification_enabled": false}`, string(body))

	_, err = h.run(t, "--eppn", eppn, "reader", "put", "--first-name", "Jana", "--email", "not-an-email", "--sigla", "BOA001")
	assert.ErrorContains(t, err, "email")
}

func TestTickets(t *testing.T) {
	h := newHarness(t)
	h.transport.On("GET", ticketsPath+"?expand=detail&include_closed=1&ticket_type=mvs", 200, `{"items": [`+mvsBody+`]}`)

	out, err := h.run(t, "--eppn", eppn, "tickets", "--type", "mvs")
	require.NoError(t, err)
	assert.Contains(t, out, "MVS-1")
	assert.Contains(t, out, "Babicka")

	out, err = h.run(t, "--eppn", eppn, "--raw", "tickets", "--type", "mvs", "--open")
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "T1", got[0]["ticket_id"])

	_, err = h.run(t, "--eppn", eppn, "tickets", "--type", "book")
	assert.Error(t, err)
}

func TestTicketIDs(t *testing.T) {
	h := newHarness(t)
	h.transport.On("GET", ticketsPath, 200, `{"items": ["T1", "T2"]}`)

	out, err := h.run(t, "--eppn", eppn, "ticket-ids")
	require.NoError(t, err)
	assert.Equal(t, "T1\nT2\n", out)
}

func TestTicketGetAndCancel(t *testing.T) {
	h := newHarness(t)
	h.transport.On("GET", detailPath, 200, mvsBody)
	h.transport.On("DELETE", detailPath, 200, "")

	out, err := h.run(t, "--eppn", eppn, "ticket", "get", "T1")
	require.NoError(t, err)
	assert.Contains(t, out, "mzk.1")

	out, err = h.run(t, "--eppn", eppn, "ticket", "cancel", "T1")
	require.NoError(t, err)
	assert.Equal(t, "Ticket T1 cancelled.\n", out)

	h.transport.Reset()
	h.transport.On("GET", detailPath, 404, "")
	h.transport.On("DELETE", detailPath, 422, `{"error": "already accepted"}`)

	_, err = h.run(t, "--eppn", eppn, "ticket", "get", "T1")
	assert.ErrorContains(t, err, "not found")

	_, err = h.run(t, "--eppn", eppn, "ticket", "cancel", "T1")
	assert.ErrorContains(t, err, "cannot be cancelled")
}

func TestTicketCreateMvs(t *testing.T) {
	h := newHarness(t)
	h.transport.On("POST", ticketsPath, 201, `{"id": "T1"}`)
	h.transport.On("GET", detailPath, 200, mvsBody)

	out, err := h.run(t, "--eppn", eppn, "ticket", "create-mvs", "--doc-id", "mzk.1", "--alt-id", "nkp.2", "--date", "d+3")
	require.NoError(t, err)
	assert.Contains(t, out, "MVS-1")

	post := h.transport.RequestLog[0]
	assert.Equal(t, "POST", post.Method)
	assert.JSONEq(t, `{"ticket_type": "mvs", "doc_id": "mzk.1", "doc_alt_ids": ["nkp.2"], "date_requested": "2026-10-17"}`, string(post.Body))

	_, err = h.run(t, "--eppn", eppn, "ticket", "create-mvs")
	assert.ErrorContains(t, err, "doc_id")
	_, err = h.run(t, "--eppn", eppn, "ticket", "create-mvs", "--doc-id", "x", "--date", "someday")
	assert.Error(t, err)
}

func TestTicketCreateEdd(t *testing.T) {
	h := newHarness(t)
	h.transport.On("POST", ticketsPath, 201, `{"id": "T1"}`)
	h.transport.On("GET", detailPath, 200, `{"ticket_type": "edd", "ticket_id": "T1", "created_datetime": "2026-10-01T09:30:00Z", "edd_subtype": "selection"}`)

	_, err := h.run(t, "--eppn", eppn, "ticket", "create-edd",
		"--subtype", "selection", "--title-in", "Vesmir", "--title", "Kapitola", "--pages-from", "3", "--pages-to", "9")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(h.transport.RequestLog[0].Body, &body))
	assert.Equal(t, "manual", body["ticket_doc_data_source"])
	assert.Equal(t, "selection", body["edd_subtype"])
	assert.EqualValues(t, 3, body["pages_from"])
	assert.EqualValues(t, 9, body["pages_to"])

	requests := h.transport.RequestsMade()
	_, err = h.run(t, "--eppn", eppn, "ticket", "create-edd", "--subtype", "selection", "--pages-from", "1", "--pages-to", "40")
	assert.ErrorContains(t, err, "pages_to")
	assert.Equal(t, requests, h.transport.RequestsMade(), "invalid requests never reach the service")

	_, err = h.run(t, "--eppn", eppn, "ticket", "create-edd", "--source", "auto")
	assert.ErrorContains(t, err, "doc_id")
}

func TestMessagesCommands(t *testing.T) {
	h := newHarness(t)
	h.transport.On("GET", msgsPath, 200, `{"items": [
		{"sender": "library", "unread": true, "text": "Hotovo", "created_datetime": "2026-10-02T10:00:00Z"},
		{"sender": "reader", "unread": false, "text": "Dobry den", "created_datetime": "2026-10-01T10:00:00Z"}
	]}`)
	h.transport.On("POST", msgsPath, 201, "")
	h.transport.On("PUT", msgsPath, 200, "")

	out, err := h.run(t, "--eppn", eppn, "messages", "list", "T1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Dobry den")
	assert.True(t, strings.HasPrefix(lines[1], "*"), "unread message is marked")

	out, err = h.run(t, "--eppn", eppn, "messages", "send", "T1", "Kdy", "to", "bude?")
	require.NoError(t, err)
	assert.Equal(t, "Message sent.\n", out)
	sent, _ := h.transport.Last()
	assert.JSONEq(t, `{"text": "Kdy to bude?"}`, string(sent.Body))

	out, err = h.run(t, "--eppn", eppn, "messages", "mark-read", "T1")
	require.NoError(t, err)
	assert.Equal(t, "Messages marked read.\n", out)
	marked, _ := h.transport.Last()
	assert.JSONEq(t, `{"unread": false}`, string(marked.Body))

	_, err = h.run(t, "--eppn", eppn, "messages", "mark-read", "T1", "--unread")
	require.NoError(t, err)
	marked, _ = h.transport.Last()
	assert.JSONEq(t, `{"unread": true}`, string(marked.Body))
}

func TestEstimate(t *testing.T) {
	h := newHarness(t)
	h.transport.On("GET", "/service/edd/estimate?edd_subtype=selection&number_of_pages=5", 200, `{"fee": 50, "fee_dk": 10, "fee_dilia": 2.5, "is_valid": true}`)

	out, err := h.run(t, "estimate", "--pages", "5", "--subtype", "selection")
	require.NoError(t, err)
	assert.Contains(t, out, "50.00")
	assert.Contains(t, out, "2.50")

	_, err = h.run(t, "estimate", "--pages", "0")
	assert.Error(t, err)
	assert.Equal(t, 1, h.transport.RequestsMade())
}

func TestToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "token")
	assert.ErrorContains(t, err, "no credentials configured")

	t.Setenv(core.EnvToken, "static-token")
	out, err := h.run(t, "token")
	require.NoError(t, err)
	assert.Equal(t, "static-token\n", out)
	assert.Zero(t, h.transport.RequestsMade())
}

func TestMissingBaseURL(t *testing.T) {
	h := newHarness(t)
	t.Setenv(core.EnvAPIURL, "")

	_, err := h.run(t, "estimate")
	assert.ErrorContains(t, err, "base URL is not set")
}
