package jobs

// PageSize is the number of listings revealed per "Show More".
const PageSize = 7

// Reveal returns the first pages*PageSize listings and whether more remain.
func Reveal(list []Listing, pages int) ([]Listing, bool) {
	if pages < 1 {
		pages = 1
	}
	n := pages * PageSize
	if n >= len(list) {
		return list, false
	}
	return list[:n], true
}
