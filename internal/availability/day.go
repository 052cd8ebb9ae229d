package availability

// BusinessHours is the inclusive range of bookable hours in a day.
type BusinessHours struct {
	Start int
	End   int
}

// Slot is the availability of a single hour of a provider's day.
type Slot struct {
	Hour      int  `json:"hour"`
	Available bool `json:"available"`
}

// DaySlots computes the availability vector for one provider day, ascending by
// hour. An hour is available iff it is not booked and, when the day is today,
// it is strictly after currentHour. Past hours of the current day are never
// bookable regardless of booking state.
func DaySlots(hours BusinessHours, booked map[int]bool, isToday bool, currentHour int) []Slot {
	if hours.End < hours.Start {
		return nil
	}

	slots := make([]Slot, 0, hours.End-hours.Start+1)
	for h := hours.Start; h <= hours.End; h++ {
		free := !booked[h]
		if isToday && h <= currentHour {
			free = false
		}
		slots = append(slots, Slot{Hour: h, Available: free})
	}
	return slots
}
