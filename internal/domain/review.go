package domain

import (
	"errors"
	"time"
)

const (
	RatingMin = 1
	RatingMax = 5
)

type Review struct {
	BookingID      string
	VendorID       int64
	Rating         int
	ServiceQuality int
	Communication  int
	ValueForMoney  int
	Punctuality    int
	ReviewText     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// VendorRating is the running aggregate readers see; it is updated in the
// same transaction as the review row so it is never partially applied.
type VendorRating struct {
	VendorID    int64
	ReviewCount int64
	RatingSum   int64
	RatingAvg   float64
}

// ApplySubratingDefaults fills omitted sub-ratings (zero values) with the
// overall rating. Explicit rule, not UI behavior.
func (r *Review) ApplySubratingDefaults() {
	if r.ServiceQuality == 0 {
		r.ServiceQuality = r.Rating
	}
	if r.Communication == 0 {
		r.Communication = r.Rating
	}
	if r.ValueForMoney == 0 {
		r.ValueForMoney = r.Rating
	}
	if r.Punctuality == 0 {
		r.Punctuality = r.Rating
	}
}

// Validate checks all rating fields are inside [1,5]. Sub-ratings must be
// defaulted first; zero means "omitted" only before ApplySubratingDefaults.
func (r *Review) Validate() error {
	for _, v := range []int{r.Rating, r.ServiceQuality, r.Communication, r.ValueForMoney, r.Punctuality} {
		if v < RatingMin || v > RatingMax {
			return ErrValidation
		}
	}
	return nil
}

var ErrValidation = errors.New("rating values must be between 1 and 5")
