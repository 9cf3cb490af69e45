package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"
)

const numberWordsFile = "numberwords.json"

const (
	minBrightness = 10
	maxBrightness = 200
)

var errNotANumber = errors.New("not a number")

var smallNumbers = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// loadNumberWords reads optional extra spellings such as
// {"numberwords": [{"word": "a hundred", "number": 100}]}.
func loadNumberWords(path string) map[string]int {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("failed to read %s: %v", path, err)
		}
		return nil
	}
	var f struct {
		NumberWords []struct {
			Word   string `json:"word"`
			Number int    `json:"number"`
		} `json:"numberwords"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warnf("failed to decode %s: %v", path, err)
		return nil
	}
	words := make(map[string]int, len(f.NumberWords))
	for _, w := range f.NumberWords {
		words[strings.ToLower(w.Word)] = w.Number
	}
	return words
}

// wordsToNumber understands spelled numbers up to the hundreds, e.g.
// "one hundred and twenty five" or "seventy-five".
func wordsToNumber(s string, extra map[string]int) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, ok := extra[s]; ok {
		return n, nil
	}

	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' })
	total, seen := 0, false
	for _, f := range fields {
		switch {
		case f == "and":
			continue
		case f == "hundred":
			if total == 0 {
				total = 1
			}
			total *= 100
		case f == "a" && !seen:
			total = 1
		default:
			n, ok := smallNumbers[f]
			if !ok {
				return 0, fmt.Errorf("%w: %q", errNotANumber, s)
			}
			total += n
		}
		seen = true
	}
	if !seen {
		return 0, fmt.Errorf("%w: %q", errNotANumber, s)
	}
	return total, nil
}

func isWords(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' {
			return false
		}
	}
	return true
}

// parseBrightness turns "150", "75%", "seventy five percent" or "fifty" into
// the mirror's brightness scale. Percentages map 100% to the maximum of 200.
func parseBrightness(value string, extra map[string]int) (int, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	percent := strings.Contains(value, "%") || strings.Contains(value, "percent")
	value = strings.NewReplacer("%", "", "percent", "").Replace(value)
	value = strings.TrimSpace(value)

	var n int
	var err error
	if isWords(value) {
		n, err = wordsToNumber(value, extra)
	} else {
		n, err = strconv.Atoi(strings.ReplaceAll(value, " ", ""))
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errNotANumber, value)
	}

	if percent {
		n = min(n, 100) * maxBrightness / 100
	}
	return min(max(n, minBrightness), maxBrightness), nil
}
