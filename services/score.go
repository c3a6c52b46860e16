package services

// Score is the popularity score of a listing. Zero counts are replaced by 1
// before any arithmetic, so Score(0, 0) is 0.2 rather than 0.
func Score(rating float64, review int) float64 {
	if rating == 0 {
		rating = 1
	}
	r := float64(review)
	if r == 0 {
		r = 1
	}
	return (r / 5) / (r / rating) * r
}
