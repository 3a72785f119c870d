package helpers

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortByName orders items by name the way people expect to read a list.
// A collator is not safe for concurrent use, so each call builds its own.
func SortByName[T any](items []T, name func(T) string) {
	c := collate.New(language.English, collate.Loose)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(name(items[i]), name(items[j])) < 0
	})
}
