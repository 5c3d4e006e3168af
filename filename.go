package routinepdf

import (
	"regexp"
	"strings"
)

// nameStrip matches everything FileName drops from a student name: it keeps
// ASCII word characters and the Arabic block (U+0600-U+06FF).
var nameStrip = regexp.MustCompile(`[^\w\x{0600}-\x{06FF}]+`)

// FileName returns "{Workout|Diet}[_name].ext" for an export.
//
//	FileName(KindMeal, "Ali Reza", "pdf") // "Diet_AliReza.pdf"
//	FileName(KindWorkout, "", "jpg")      // "Workout.jpg"
func FileName(kind Kind, studentName, ext string) string {
	prefix := "Workout"
	if kind == KindMeal {
		prefix = "Diet"
	}

	base := prefix
	if name := nameStrip.ReplaceAllString(strings.TrimSpace(studentName), ""); name != "" {
		base += "_" + name
	}

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return base
	}
	return base + "." + ext
}
