package model

import (
	"fmt"
	"time"

	"github.com/colthorp/ziskej-cli-go/internal/extract"
)

// Status is one entry of a ticket's status history.
type Status struct {
	CreatedAt time.Time  `json:"date"`
	Name      StatusName `json:"id"`
}

// ParseStatus builds a Status. Both the date and a known status id are required.
func ParseStatus(obj extract.Object) (Status, error) {
	createdAt, err := extract.Time(obj, "date")
	if err != nil {
		return Status{}, err
	}
	name, err := extract.Enum(obj, "id", StatusNames)
	if err != nil {
		return Status{}, err
	}
	return Status{CreatedAt: createdAt, Name: name}, nil
}

// parseStatusHistory maps ParseStatus over items, keeping wire order.
func parseStatusHistory(field string, items []any) ([]Status, error) {
	history := make([]Status, 0, len(items))
	for i, item := range items {
		obj, ok := extract.AsObject(item)
		if !ok {
			return nil, &extract.InvalidTypeError{Field: fmt.Sprintf("%s[%d]", field, i), Want: "object", Value: item}
		}
		s, err := ParseStatus(obj)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		history = append(history, s)
	}
	return history, nil
}
