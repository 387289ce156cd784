package extract

import (
	"bytes"
	"errors"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func extractText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", errors.New("text file is not valid UTF-8")
	}
	return string(data), nil
}
