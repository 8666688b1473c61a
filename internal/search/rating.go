package search

import (
	"regexp"
	"strconv"
	"strings"
)

// positiveRatingStars is the minimum star count for a review to be promoted
// into a product's supporting reviews.
const positiveRatingStars = 3

var leadingNumber = regexp.MustCompile(`\d+`)

// ratingStars extracts a star count from a review's rating representation.
// Glyph ratings ("★★★★☆") are counted directly; otherwise the first integer
// in the string is used ("4", "4/5", "4 stars"). Unparseable ratings score 0.
func ratingStars(rating string) int {
	rating = strings.TrimSpace(rating)
	if rating == "" {
		return 0
	}

	stars := strings.Count(rating, "★")
	if stars > 0 {
		return stars
	}

	if m := leadingNumber.FindString(rating); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 0
}
