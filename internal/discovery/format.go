package discovery

import (
	"fmt"
	"strconv"
)

// FormatCount renders a count the way it is shown on result cards:
// 1.2M, 3.4K or the plain number below a thousand.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	case n < 0:
		return "0"
	}
	return strconv.FormatInt(n, 10)
}
