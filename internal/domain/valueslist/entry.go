package valueslist

// Entry is one legal value of a values-list field.
type Entry struct {
	DisplayValue string
	ID           int
}

// Find returns the id of the entry whose display value equals value exactly.
func Find(entries []Entry, value string) (int, bool) {
	for _, e := range entries {
		if e.DisplayValue == value {
			return e.ID, true
		}
	}
	return 0, false
}
