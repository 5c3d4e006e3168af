package dateutil

import (
	"strconv"
	"strings"
	"time"
)

// persianMonths are the Solar Hijri month names, Farvardin first.
var persianMonths = [12]string{
	"فروردین", "اردیبهشت", "خرداد",
	"تیر", "مرداد", "شهریور",
	"مهر", "آبان", "آذر",
	"دی", "بهمن", "اسفند",
}

// cumulative day counts before each Gregorian month in a common year.
var gregorianDaysBefore = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// ToPersian converts the calendar date of t (in t's location) to the
// Persian solar calendar. Months are 1-based.
func ToPersian(t time.Time) (year, month, day int) {
	gy, gm, gd := t.Date()

	gy2 := gy
	if gm > time.February {
		gy2 = gy + 1
	}
	days := 355666 + 365*gy + (gy2+3)/4 - (gy2+99)/100 + (gy2+399)/400 + gd + gregorianDaysBefore[gm-1]

	year = -1595 + 33*(days/12053)
	days %= 12053
	year += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		year += (days - 1) / 365
		days = (days - 1) % 365
	}

	if days < 186 {
		return year, 1 + days/31, 1 + days%31
	}
	return year, 7 + (days-186)/30, 1 + (days-186)%30
}

// FormatPersian renders t as "day month year" with Persian digits and the
// Persian month name, e.g. "۲۶ مهر ۱۴۰۵".
func FormatPersian(t time.Time) string {
	y, m, d := ToPersian(t)
	return PersianDigits(strconv.Itoa(d)) + " " + persianMonths[m-1] + " " + PersianDigits(strconv.Itoa(y))
}

// PersianDigits replaces ASCII digits with Extended Arabic-Indic digits.
func PersianDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return '۰' + (r - '0')
		}
		return r
	}, s)
}
