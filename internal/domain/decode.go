package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// undefinedCP1252 holds the byte values that code page 1252 leaves unassigned.
// The charmap decoder passes them through as C1 controls, so they are rejected here.
var undefinedCP1252 = [256]bool{0x81: true, 0x8D: true, 0x8F: true, 0x90: true, 0x9D: true}

// DecodeLines decodes Windows-1252 input and splits it into lines.
// Line terminators (\n or \r\n) are removed; no other trimming is done.
func DecodeLines(raw []byte) ([]string, error) {
	for i, b := range raw {
		if undefinedCP1252[b] {
			return nil, &FormatError{Offset: i, Byte: b}
		}
	}

	text, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode windows-1252: %w", err)
	}
	if len(text) == 0 {
		return nil, nil
	}

	lines := strings.Split(strings.TrimSuffix(string(text), "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}
