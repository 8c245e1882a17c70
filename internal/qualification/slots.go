package qualification

import (
	"fmt"
	"strings"
	"time"
)

const (
	lateCutoffHour = 17
	slotDayLayout  = "Monday, January 02"
)

type slotPeriod struct {
	label string
	first [2]string
	next  [2]string
}

var (
	slotPeriods = []struct {
		keyword string
		period  slotPeriod
	}{
		{"morning", slotPeriod{"morning", [2]string{"9:00 AM", "10:30 AM"}, [2]string{"9:00 AM", "11:00 AM"}}},
		{"afternoon", slotPeriod{"afternoon", [2]string{"1:00 PM", "2:30 PM"}, [2]string{"1:00 PM", "3:00 PM"}}},
		{"evening", slotPeriod{"evening", [2]string{"6:00 PM", "7:30 PM"}, [2]string{"6:00 PM", "7:00 PM"}}},
	}
	defaultSlotPeriod = slotPeriod{"various times", [2]string{"10:00 AM", "2:00 PM"}, [2]string{"10:00 AM", "6:00 PM"}}
)

// GenerateSlots offers four appointment times across two days for a coarse preference such
// as "mornings work best". After 5 PM the offer starts tomorrow.
func GenerateSlots(preference string, now time.Time) (string, []string) {
	firstDay, secondDay := now, now.AddDate(0, 0, 1)
	if now.Hour() >= lateCutoffHour {
		firstDay, secondDay = now.AddDate(0, 0, 1), now.AddDate(0, 0, 2)
	}

	period := defaultSlotPeriod
	lower := strings.ToLower(preference)
	for _, p := range slotPeriods {
		if strings.Contains(lower, p.keyword) {
			period = p.period
			break
		}
	}

	d1 := firstDay.Format(slotDayLayout)
	d2 := secondDay.Format(slotDayLayout)
	return period.label, []string{
		fmt.Sprintf("1. %s at %s", d1, period.first[0]),
		fmt.Sprintf("2. %s at %s", d1, period.first[1]),
		fmt.Sprintf("3. %s at %s", d2, period.next[0]),
		fmt.Sprintf("4. %s at %s", d2, period.next[1]),
	}
}
