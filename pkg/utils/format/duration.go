// Package format renders durations and text for operator output.
package format

import "fmt"

// Duration renders seconds as "M:SS" or "H:MM:SS". Unknown durations, zero
// or negative, render as "-".
func Duration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	s := int(seconds)
	h, m, sec := s/3600, (s%3600)/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// Offset renders a position inside a video as "M:SS.s".
func Offset(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	m := int(seconds) / 60
	return fmt.Sprintf("%d:%04.1f", m, seconds-float64(m*60))
}
