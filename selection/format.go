package selection

import (
	"fmt"
	"strings"

	"github.com/warp/fiscal-calendar/fiscal"
)

// DisplayLayout is the human date layout used in summaries.
const DisplayLayout = "Jan 2, 2006"

// FormatSelection renders a one-line summary of a selection:
//
//	"Feb 1, 2025 - Feb 28, 2025 • P01 • 28 days"
//	"Feb 2, 2025 - Jan 31, 2026 • Full Year • 364 days"
//
// A nil selection renders as "".
func FormatSelection(sel *Selection) string {
	if sel == nil {
		return ""
	}

	parts := []string{sel.Start.Format(DisplayLayout) + " - " + sel.End.Format(DisplayLayout)}

	if m := sel.Meta; m != nil {
		if len(m.PeriodIDs) > 0 {
			names := make([]string, len(m.PeriodIDs))
			for i, id := range m.PeriodIDs {
				names[i] = fiscal.PeriodName(id)
			}
			parts = append(parts, strings.Join(names, ", "))
		}
		if m.Week > 0 {
			parts = append(parts, fmt.Sprintf("Week %d", m.Week))
		}
		if m.WeekRange != nil {
			parts = append(parts, fmt.Sprintf("Weeks %d-%d", m.WeekRange.Start, m.WeekRange.End))
		}
		if m.Quick != "" {
			parts = append(parts, QuickLabel(m.Quick))
		}
	}

	parts = append(parts, fmt.Sprintf("%d days", sel.Days()))
	return strings.Join(parts, " • ")
}
