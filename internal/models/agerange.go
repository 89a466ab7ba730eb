package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/kidsync/internal/common"
)

// ParseAgeRange splits an approximate age such as "15-25" into its bounds.
func ParseAgeRange(s string) (lower, upper int, err error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("age range %q: missing '-': %w", s, common.ErrParse)
	}

	lower, err = strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("age range %q: lower bound: %w", s, common.ErrParse)
	}
	upper, err = strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("age range %q: upper bound: %w", s, common.ErrParse)
	}
	return lower, upper, nil
}
