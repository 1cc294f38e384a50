package payment

import (
	"errors"
	"math"
)

const (
	MinRating = 1
	MaxRating = 5
)

var ErrRatingRange = errors.New("rating must be between 1 and 5")

func ValidateRating(v int) error {
	if v < MinRating || v > MaxRating {
		return ErrRatingRange
	}
	return nil
}

// RatingLabel is the caption shown under the star picker.
func RatingLabel(v int) string {
	switch v {
	case 5:
		return "Excellent!"
	case 4:
		return "Great!"
	case 3:
		return "Good"
	case 2:
		return "Fair"
	case 1:
		return "Needs Improvement"
	default:
		return "Poor"
	}
}

// FromTenPoint converts the rating endpoint's 10-point average to stars,
// rounded to one decimal.
func FromTenPoint(avg float64) float64 {
	return math.Round(avg/2*10) / 10
}

// ToTenPoint is the inverse of FromTenPoint, before rounding.
func ToTenPoint(stars float64) float64 {
	return stars * 2
}
