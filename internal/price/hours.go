package price

import "time"

var taipei = loadTaipei()

func loadTaipei() *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// isTradingHours reports whether t falls inside the TWSE regular session,
// Mon–Fri 09:00–13:30 Asia/Taipei.
func isTradingHours(t time.Time) bool {
	t = t.In(taipei)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= 9*60 && minutes <= 13*60+30
}
