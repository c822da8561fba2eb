// Package label maps free-text stamp labels to stamp kinds and builds the
// labels used by quick stamps.
package label

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Tiliavir/pronto/internal/engine"
)

var (
	entryWords = map[string]bool{"entrada": true, "in": true, "entrance": true}
	exitWords  = map[string]bool{"saída": true, "saida": true, "out": true, "exit": true}
)

// Classify returns the kind named by a label such as "Entrada 1" or "Out 2".
// Matching is case-insensitive and word based; entry words take precedence.
// A label naming neither kind is KindNone.
func Classify(label string) engine.Kind {
	words := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if entryWords[w] {
			return engine.KindEntry
		}
	}
	for _, w := range words {
		if exitWords[w] {
			return engine.KindExit
		}
	}
	return engine.KindNone
}

// Next returns the quick-stamp label for a day that already holds count
// stamps: entries on even counts, exits on odd ones, numbered per pair.
func Next(count int, lang string) string {
	kind := engine.KindEntry
	if count%2 == 1 {
		kind = engine.KindExit
	}
	return For(kind, count/2+1, lang)
}

// For builds the label of the n-th stamp of the given kind.
func For(kind engine.Kind, n int, lang string) string {
	var base string
	switch {
	case lang == "pt" && kind == engine.KindExit:
		base = "Saída"
	case lang == "pt":
		base = "Entrada"
	case kind == engine.KindExit:
		base = "Out"
	default:
		base = "In"
	}
	return fmt.Sprintf("%s %d", base, n)
}

// ParseKind decodes a persisted kind name.
func ParseKind(s string) engine.Kind {
	switch s {
	case "entry":
		return engine.KindEntry
	case "exit":
		return engine.KindExit
	default:
		return engine.KindNone
	}
}
