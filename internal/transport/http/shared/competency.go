package shared

import (
	"fmt"
	"strconv"
)

// ParseCompetency converts raw month and year values into a validated pair.
func ParseCompetency(rawMonth, rawYear string) (int, int, error) {
	month, err := strconv.Atoi(rawMonth)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be a number")
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return 0, 0, fmt.Errorf("year must be a number")
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 1900 || year > 2200 {
		return 0, 0, fmt.Errorf("year must be between 1900 and 2200")
	}
	return month, year, nil
}
