package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReaderRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r, err := NewCreateReaderRequest("Jakub", "Novak", "jakub@example.cz", "BOA001", true, false)
		require.NoError(t, err)

		p := r.Payload()
		assert.Equal(t, true, p["notification_enabled"])
		assert.NotContains(t, p, "reader_library_id")
		assert.Equal(t, "BOA001", p["sigla"])
		assert.Equal(t, true, p["is_gdpr_reg"])
		assert.Equal(t, false, p["is_gdpr_data"])
	})

	t.Run("options", func(t *testing.T) {
		r, err := NewCreateReaderRequest("Jakub", "Novak", "jakub@example.cz", "BOA001", true, true,
			WithReaderLibraryID("1234"), WithNotifications(false))
		require.NoError(t, err)

		p := r.Payload()
		assert.Equal(t, "1234", p["reader_library_id"])
		assert.Equal(t, false, p["notification_enabled"])
	})

	t.Run("payload parses back into a reader", func(t *testing.T) {
		r, err := NewCreateReaderRequest("Jakub", "Novak", "jakub@example.cz", "BOA001", true, true, WithReaderLibraryID("1234"))
		require.NoError(t, err)

		body := r.Payload()
		body["reader_id"] = "eppn@example.cz"
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader, err := ParseReader(decode(t, string(raw)))
		require.NoError(t, err)
		assert.Equal(t, r.FirstName, reader.FirstName)
		assert.Equal(t, r.LastName, reader.LastName)
		assert.Equal(t, r.Email, reader.Email)
		assert.Equal(t, r.Sigla, reader.Sigla)
		assert.Equal(t, r.ReaderLibraryID, reader.ReaderLibraryID)
		assert.Equal(t, r.IsNotificationEnabled, reader.IsNotificationEnabled)
		assert.Equal(t, r.IsGdprReg, reader.IsGdprReg)
		assert.Equal(t, r.IsGdprData, reader.IsGdprData)
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name, email, sigla, field string
		}{
			{"bad email", "not-an-email", "BOA001", "email"},
			{"empty email", "", "BOA001", "email"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r, err := NewCreateReaderRequest("Jakub", "Novak", tt.email, tt.sigla, true, true)
				assert.Nil(t, r)
				var input *InvalidInputError
				require.ErrorAs(t, err, &input)
				assert.Equal(t, tt.field, input.Field)
			})
		}
	})
}

func TestCreateReaderRequestLeavesSiglaToService(t *testing.T) {
	// Only the e-mail address is checked locally; an unknown or empty sigla
	// comes back from the service as a 422.
	r, err := NewCreateReaderRequest("Jakub", "Novak", "jakub@example.cz", "", true, true)
	require.NoError(t, err)
	assert.Equal(t, "", r.Payload()["sigla"])
}

func TestMvsTicketRequest(t *testing.T) {
	r, err := NewMvsTicketRequest("mzk.MZK01-000000001")
	require.NoError(t, err)
	assert.Equal(t, TicketTypeMVS, r.TicketType())
	assert.Equal(t, map[string]any{"ticket_type": "mvs", "doc_id": "mzk.MZK01-000000001"}, r.Payload())

	when := time.Date(2021, 5, 17, 15, 0, 0, 0, time.UTC)
	r.DateRequested = &when
	r.ReaderNote = "please"
	r.DocumentAltIDs = []string{"nkp.NKC01-1"}
	p := r.Payload()
	assert.Equal(t, "2021-05-17", p["date_requested"])
	assert.Equal(t, "please", p["reader_note"])
	assert.Equal(t, []string{"nkp.NKC01-1"}, p["doc_alt_ids"])

	_, err = NewMvsTicketRequest("")
	var input *InvalidInputError
	require.ErrorAs(t, err, &input)
	assert.Equal(t, "doc_id", input.Field)
}

func TestEddTicketRequest(t *testing.T) {
	t.Run("payload", func(t *testing.T) {
		r, err := NewEddTicketRequest(DataSourceManual, EddSubtypeArticle, "Journal", "Article", "")
		require.NoError(t, err)
		r.PagesFrom = 10
		r.PagesTo = 12
		r.DocIssn = "1234-5678"
		require.NoError(t, r.Validate())

		assert.Equal(t, map[string]any{
			"ticket_type":            "edd",
			"ticket_doc_data_source": "manual",
			"edd_subtype":            "article",
			"doc_title_in":           "Journal",
			"doc_title":              "Article",
			"doc_id":                 "",
			"pages_from":             10,
			"pages_to":               12,
			"doc_issn":               "1234-5678",
		}, r.Payload())
	})

	tests := []struct {
		name     string
		source   TicketDataSource
		subtype  TicketEddSubtype
		docID    string
		from, to int
		field    string
	}{
		{"auto needs doc id", DataSourceAuto, EddSubtypeArticle, "", 0, 0, "doc_id"},
		{"unknown source", TicketDataSource("scan"), EddSubtypeArticle, "x", 0, 0, "ticket_doc_data_source"},
		{"unknown subtype", DataSourceManual, TicketEddSubtype("book"), "x", 0, 0, "edd_subtype"},
		{"reversed pages", DataSourceManual, EddSubtypeArticle, "x", 9, 3, "pages_to"},
		{"selection too wide", DataSourceManual, EddSubtypeSelection, "x", 1, EddSelectionMaxPages + 1, "pages_to"},
		{"negative page", DataSourceManual, EddSubtypeArticle, "x", -1, 0, "pages_from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &EddTicketRequest{DocDataSource: tt.source, EddSubtype: tt.subtype, DocumentID: tt.docID, PagesFrom: tt.from, PagesTo: tt.to}
			var input *InvalidInputError
			require.ErrorAs(t, r.Validate(), &input)
			assert.Equal(t, tt.field, input.Field)
		})
	}

	t.Run("selection at the limit", func(t *testing.T) {
		r := &EddTicketRequest{DocDataSource: DataSourceManual, EddSubtype: EddSubtypeSelection, PagesFrom: 1, PagesTo: EddSelectionMaxPages}
		assert.NoError(t, r.Validate())
	})
}

func TestMessageRequests(t *testing.T) {
	m, err := NewCreateMessageRequest("hello")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "hello"}, m.Payload())

	_, err = NewCreateMessageRequest("")
	assert.Error(t, err)

	assert.Equal(t, map[string]any{"unread": false}, MarkMessagesReadRequest{Read: true}.Payload())
	assert.Equal(t, map[string]any{"unread": true}, MarkMessagesReadRequest{Read: false}.Payload())
}
