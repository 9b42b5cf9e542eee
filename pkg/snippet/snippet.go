// Package snippet reads source statements for findings whose tool does not
// report the offending line itself.
package snippet

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/user/secmerge/pkg/logging"
)

// Statement returns the text of the zero-based line index in path, without
// its line terminator. The file is decoded as ISO-8859-1, which maps every
// byte to a rune, so no input can fail to decode. Out of range indices and
// I/O failures yield "".
func Statement(path string, index int) string {
	if index < 0 {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		logging.Debugf("snippet: %v", err)
		return ""
	}
	defer f.Close()

	line, err := nthLine(charmap.ISO8859_1.NewDecoder().Reader(f), index)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			logging.Warnf("snippet: reading %s: %v", path, err)
		}
		return ""
	}
	return line
}

func nthLine(src io.Reader, index int) (string, error) {
	r := bufio.NewReader(src)
	for i := 0; ; i++ {
		line, err := r.ReadString('\n')
		if i == index && line != "" {
			return trimEOL(line), nil
		}
		if err != nil {
			return "", err
		}
	}
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}
