package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/colthorp/ziskej-cli-go/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode mirrors how the API layer decodes bodies: numbers stay json.Number.
func decode(t *testing.T, s string) extract.Object {
	t.Helper()
	dec := json.NewDecoder(bytes.NewBufferString(s))
	dec.UseNumber()
	var obj extract.Object
	require.NoError(t, dec.Decode(&obj))
	return obj
}

func decodeItems(t *testing.T, s string) []any {
	t.Helper()
	return extract.OptionalArray(decode(t, s), "items")
}

func TestLibraryCollection(t *testing.T) {
	items := decodeItems(t, `{"items": ["BOA001", "ABA013", {"sigla": "KOA001"}, 42, {"name": "x"}, "", "BOA001"]}`)
	c := ParseLibraryCollection(items)

	assert.Equal(t, 3, c.Len())
	for _, sigla := range []string{"BOA001", "ABA013", "KOA001"} {
		l := c.Get(sigla)
		require.NotNil(t, l, sigla)
		assert.Equal(t, sigla, l.Sigla)
	}
	assert.Nil(t, c.Get("XYZ999"))
	assert.Equal(t, []Library{{"BOA001"}, {"ABA013"}, {"KOA001"}}, c.All())
}

func TestEmptyCollections(t *testing.T) {
	for _, body := range []string{`{}`, `{"items": []}`, `{"items": null}`} {
		items := decodeItems(t, body)

		assert.Equal(t, 0, ParseLibraryCollection(items).Len(), body)
		assert.Equal(t, 0, ParseMessageCollection(items).Len(), body)

		tickets, err := ParseTicketCollection(items)
		require.NoError(t, err, body)
		require.NotNil(t, tickets)
		assert.Equal(t, 0, tickets.Len())
		assert.NotNil(t, tickets.All())
	}
}

func TestParseReader(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		r, err := ParseReader(decode(t, `{"reader_id": "1234"}`))
		require.NoError(t, err)
		assert.Equal(t, &Reader{ID: "1234"}, r)
	})

	t.Run("full", func(t *testing.T) {
		r, err := ParseReader(decode(t, `{
			"reader_id": "1234",
			"is_active": true,
			"first_name": "Jakub",
			"last_name": "Novak",
			"email": "jakub@example.cz",
			"notification_enabled": true,
			"sigla": "BOA001",
			"reader_library_id": "99",
			"is_gdpr_reg": true,
			"is_gdpr_data": false,
			"count_tickets": 4,
			"count_tickets_open": 2,
			"count_messages": 10,
			"count_messages_unread": 1
		}`))
		require.NoError(t, err)
		assert.Equal(t, &Reader{
			ID:                    "1234",
			IsActive:              true,
			FirstName:             "Jakub",
			LastName:              "Novak",
			Email:                 "jakub@example.cz",
			IsNotificationEnabled: true,
			Sigla:                 "BOA001",
			ReaderLibraryID:       "99",
			IsGdprReg:             true,
			CountTickets:          4,
			CountTicketsOpen:      2,
			CountMessages:         10,
			CountMessagesUnread:   1,
		}, r)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := ParseReader(decode(t, `{}`))
		var missing *extract.MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "reader_id", missing.Field)
	})
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(decode(t, `{"date": "2020-03-11", "id": "created"}`))
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, s.Name)
	assert.Equal(t, time.Date(2020, 3, 11, 0, 0, 0, 0, time.UTC), s.CreatedAt)

	_, err = ParseStatus(decode(t, `{"date": "2020-03-11", "id": "bogus"}`))
	var enumErr *extract.InvalidEnumValueError
	require.ErrorAs(t, err, &enumErr)
	assert.Equal(t, "bogus", enumErr.Value)

	_, err = ParseStatus(decode(t, `{"id": "created"}`))
	assert.ErrorIs(t, err, extract.ErrParse)
}

func TestParseMessage(t *testing.T) {
	m, err := ParseMessage(decode(t, `{"sender": "reader", "unread": false, "text": "t", "created_datetime": "2020-02-04T12:32:44+01:00"}`))
	require.NoError(t, err)
	assert.True(t, m.Read)
	assert.Equal(t, "reader", m.Sender)
	assert.Equal(t, "t", m.Text)
	assert.True(t, m.CreatedAt.Equal(time.Date(2020, 2, 4, 11, 32, 44, 0, time.UTC)))

	m, err = ParseMessage(decode(t, `{"sender": "library", "unread": true, "text": "x", "created_datetime": "2020-02-04T12:32:44+01:00"}`))
	require.NoError(t, err)
	assert.False(t, m.Read)
}

func TestMessageCollectionSkipsMalformed(t *testing.T) {
	items := decodeItems(t, `{"items": [
		{"sender": "reader", "unread": true, "text": "a", "created_datetime": "2020-02-04T12:32:44+01:00"},
		"garbage",
		{"sender": "reader", "text": "no unread flag", "created_datetime": "2020-02-04T12:32:44+01:00"},
		{"sender": "library", "unread": false, "text": "b", "created_datetime": "2020-02-05T08:00:00+01:00"}
	]}`)
	c := ParseMessageCollection(items)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, "a", c.All()[0].Text)
	assert.Equal(t, "b", c.All()[1].Text)
	assert.Equal(t, 1, c.Unread())
}

func TestParseEddEstimate(t *testing.T) {
	e := ParseEddEstimate(decode(t, `{"fee": 100, "fee_dk": 20.5, "fee_dilia": "5", "is_valid": true}`))
	assert.Equal(t, &EddEstimate{Fee: 100, FeeDk: 20.5, FeeDilia: 5, IsValid: true}, e)

	assert.Equal(t, &EddEstimate{}, ParseEddEstimate(decode(t, `{}`)))
}

func TestEnumParsers(t *testing.T) {
	typ, err := ParseTicketType("edd")
	require.NoError(t, err)
	assert.Equal(t, TicketTypeEDD, typ)

	_, err = ParseLibraryServiceType("nope")
	assert.True(t, errors.Is(err, extract.ErrParse))

	for _, s := range LibraryServiceTypes {
		got, err := ParseLibraryServiceType(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}
