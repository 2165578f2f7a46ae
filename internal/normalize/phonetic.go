package normalize

import (
	"strings"
	"unicode"
)

var natoAlphabet = map[rune]string{
	'a': "Alpha", 'b': "Bravo", 'c': "Charlie", 'd': "Delta",
	'e': "Echo", 'f': "Foxtrot", 'g': "Golf", 'h': "Hotel",
	'i': "India", 'j': "Juliet", 'k': "Kilo", 'l': "Lima",
	'm': "Mike", 'n': "November", 'o': "Oscar", 'p': "Papa",
	'q': "Quebec", 'r': "Romeo", 's': "Sierra", 't': "Tango",
	'u': "Uniform", 'v': "Victor", 'w': "Whiskey", 'x': "X-ray",
	'y': "Yankee", 'z': "Zulu",
	'0': "Zero", '1': "One", '2': "Two", '3': "Three", '4': "Four",
	'5': "Five", '6': "Six", '7': "Seven", '8': "Eight", '9': "Nine",
}

var symbolWords = map[rune]string{
	'@': "at",
	'.': "dot",
	'-': "dash",
	'_': "underscore",
}

// Phonetic renders s one character at a time using the NATO alphabet, digit
// names and literal words for email punctuation. It is only ever used for
// read-back; nothing parses its output.
func Phonetic(s string) string {
	parts := make([]string, 0, len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		if w, ok := symbolWords[r]; ok {
			parts = append(parts, w)
			continue
		}
		if w, ok := natoAlphabet[r]; ok {
			parts = append(parts, w)
			continue
		}
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}
