package xl

import (
	"regexp"
	"strconv"
	"time"
)

const secondsPerDay = 24 * 60 * 60

var (
	datePattern = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	timePattern = regexp.MustCompile(`(\d+):(\d{2}):(\d{2})`)
)

// DateSerial converts a calendar date and time of day to the 1900-epoch
// serial number stored in numeric date cells.
//
// Day 1 is 1900-01-01. The phantom leap day 1900-02-29 is serial 60 and every
// later date is shifted by one to stay compatible with spreadsheet
// applications. Years outside 1900..9999 and impossible dates yield 0.
// A zero year, month and day means "time only" and yields the fraction.
func DateSerial(year, month, day, hour, min, sec int) float64 {
	frac := float64(hour*3600+min*60+sec) / secondsPerDay

	switch {
	case year == 0 && month == 0 && day == 0:
		return frac
	case year == 1899 && month == 12 && day == 31:
		return frac
	case year == 1900 && month == 1 && day == 0:
		return frac
	case year == 1900 && month == 2 && day == 29:
		return 60 + frac
	}

	if year < 1900 || year > 9999 {
		return 0
	}
	if month < 1 || month > 12 {
		return 0
	}
	leap := isLeapYear(year)
	mdays := [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if leap {
		mdays[1] = 29
	}
	if day < 1 || day > mdays[month-1] {
		return 0
	}

	span := year - 1900
	days := day
	for _, n := range mdays[:month-1] {
		days += n
	}
	days += span * 365
	days += span / 4
	days -= span / 100
	days += (span + 300) / 400
	if leap {
		days--
	}
	if days > 59 {
		days++
	}
	return float64(days) + frac
}

// ParseDateSerial extracts a "YYYY-MM-DD" date and an optional "H:MM:SS"
// time from s and converts them with DateSerial.
func ParseDateSerial(s string) float64 {
	var year, month, day, hour, min, sec int
	if m := datePattern.FindStringSubmatch(s); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
	}
	if m := timePattern.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		min, _ = strconv.Atoi(m[2])
		sec, _ = strconv.Atoi(m[3])
	}
	return DateSerial(year, month, day, hour, min, sec)
}

// TimeSerial converts t, read in its own location, with DateSerial.
func TimeSerial(t time.Time) float64 {
	return DateSerial(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func isLeapYear(y int) bool {
	return y%400 == 0 || (y%4 == 0 && y%100 != 0)
}
