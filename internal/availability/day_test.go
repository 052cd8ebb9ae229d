package availability

import "testing"

func TestDaySlots_NoBookings(t *testing.T) {
	slots := DaySlots(BusinessHours{Start: 8, End: 17}, nil, false, 0)
	if len(slots) != 10 {
		t.Fatalf("expected 10 slots, got %d", len(slots))
	}
	for i, s := range slots {
		if s.Hour != 8+i {
			t.Fatalf("slot %d out of order: hour %d", i, s.Hour)
		}
		if !s.Available {
			t.Fatalf("hour %d should be available on an empty day", s.Hour)
		}
	}
}

func TestDaySlots_BookedHours(t *testing.T) {
	booked := map[int]bool{10: true, 14: true}
	slots := DaySlots(BusinessHours{Start: 8, End: 17}, booked, false, 0)
	for _, s := range slots {
		want := !booked[s.Hour]
		if s.Available != want {
			t.Fatalf("hour %d: available = %v, want %v", s.Hour, s.Available, want)
		}
	}
}

func TestDaySlots_TodayPastHoursBlocked(t *testing.T) {
	// Current time 11:20: hours 8..11 are gone, 12..17 depend only on bookings.
	booked := map[int]bool{14: true}
	slots := DaySlots(BusinessHours{Start: 8, End: 17}, booked, true, 11)
	for _, s := range slots {
		switch {
		case s.Hour <= 11:
			if s.Available {
				t.Fatalf("hour %d is in the past but marked available", s.Hour)
			}
		case s.Hour == 14:
			if s.Available {
				t.Fatalf("hour 14 is booked but marked available")
			}
		default:
			if !s.Available {
				t.Fatalf("hour %d should be available", s.Hour)
			}
		}
	}
}

func TestDaySlots_InvalidRange(t *testing.T) {
	if slots := DaySlots(BusinessHours{Start: 17, End: 8}, nil, false, 0); slots != nil {
		t.Fatalf("expected nil for inverted range, got %v", slots)
	}
}
