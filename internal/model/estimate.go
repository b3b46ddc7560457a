package model

import "github.com/colthorp/ziskej-cli-go/internal/extract"

// EddEstimate is the fee estimate for an EDD request.
type EddEstimate struct {
	Fee      float64 `json:"fee"`
	FeeDk    float64 `json:"fee_dk"`
	FeeDilia float64 `json:"fee_dilia"`
	IsValid  bool    `json:"is_valid"`
}

// ParseEddEstimate builds an EddEstimate; every field defaults to its zero value.
func ParseEddEstimate(obj extract.Object) *EddEstimate {
	return &EddEstimate{
		Fee:      extract.OptionalFloat(obj, "fee"),
		FeeDk:    extract.OptionalFloat(obj, "fee_dk"),
		FeeDilia: extract.OptionalFloat(obj, "fee_dilia"),
		IsValid:  extract.OptionalBool(obj, "is_valid"),
	}
}
