package view

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Readout formats the "Showing X of Y rows" line with the digit grouping of
// tag.
func Readout(tag language.Tag, shown, total int) string {
	return message.NewPrinter(tag).Sprintf("Showing %d of %d rows", shown, total)
}
