package utils

import "time"

// ParseDate interpreta una fecha ISO (YYYY-MM-DD) persistida como
// texto. La cadena vacía no es error: significa fecha ausente.
func ParseDate(dateStr string) (*time.Time, error) {
	if dateStr == "" {
		return nil, nil
	}

	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return nil, err
	}

	return &date, nil
}
