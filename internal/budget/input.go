package budget

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var emptyList = json.RawMessage(`[]`)

// Salary is a submitted salary. Text is shown in plans as it was sent and
// Value drives the fallback amounts and storage.
type Salary struct {
	Text  string
	Value float64
}

// Storable reports whether Value fits the numeric salary column.
func (s Salary) Storable() bool {
	return !math.IsNaN(s.Value) && !math.IsInf(s.Value, 0)
}

// Input is a Request after its raw fields have been interpreted.
type Input struct {
	UserID             int64
	Salary             Salary
	SpendingCategories json.RawMessage
	SavingOptions      json.RawMessage
	// Notes is nil when notes were missing or null.
	Notes *string
	// NotesText is what the prompt shows; "None" for falsy notes.
	NotesText string
}

// ParseRequest interprets the submitted fields with loose truthiness: a
// missing, null, false, zero or empty-string salary is ErrSalaryRequired.
// Any other value passes, whatever its type.
func ParseRequest(req Request) (Input, error) {
	salary, ok, err := parseSalary(req.Salary)
	if err != nil {
		return Input{}, fmt.Errorf("decode salary: %w", err)
	}
	if !ok {
		return Input{}, ErrSalaryRequired
	}
	in := Input{UserID: req.UserID, Salary: salary, NotesText: "None"}
	if in.SpendingCategories, err = compactList(req.SpendingCategories); err != nil {
		return Input{}, fmt.Errorf("decode spending categories: %w", err)
	}
	if in.SavingOptions, err = compactList(req.SavingOptions); err != nil {
		return Input{}, fmt.Errorf("decode saving options: %w", err)
	}

	notes, present, err := decodeField(req.Notes)
	if err != nil {
		return Input{}, fmt.Errorf("decode notes: %w", err)
	}
	if present && notes != nil {
		text := displayText(notes, req.Notes)
		in.Notes = &text
		if truthy(notes) {
			in.NotesText = text
		}
	}
	return in, nil
}

func parseSalary(raw json.RawMessage) (Salary, bool, error) {
	value, present, err := decodeField(raw)
	if err != nil || !present || !truthy(value) {
		return Salary{}, false, err
	}
	return Salary{Text: displayText(value, raw), Value: toNumber(value)}, true, nil
}

// decodeField decodes one raw field, keeping numbers as json.Number.
func decodeField(raw json.RawMessage) (any, bool, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case json.Number:
		f := numberValue(v)
		return f != 0 && !math.IsNaN(f)
	case string:
		return v != ""
	default:
		return true
	}
}

// displayText renders a value the way it appears inside plan text.
// Arrays and objects keep their JSON form.
func displayText(value any, raw json.RawMessage) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return formatNumber(numberValue(v))
	case string:
		return v
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return string(raw)
		}
		return buf.String()
	}
}

// toNumber coerces a value to a float64; anything without a numeric reading is NaN.
func toNumber(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		return numberValue(v)
	case string:
		return stringNumber(v)
	default:
		return math.NaN()
	}
}

func numberValue(n json.Number) float64 {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// stringNumber reads numeric text: surrounding space is ignored, blank is
// zero, and 0x/0o/0b integers and signed Infinity are accepted.
func stringNumber(s string) float64 {
	s = strings.TrimFunc(s, unicode.IsSpace)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	lower := strings.ToLower(s)
	if strings.ContainsAny(s, "_xX") || strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// formatNumber prints a float the shortest way that reads back exactly,
// with an exponent only for very large or very small magnitudes.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	out, err := json.Marshal(f)
	if err != nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return string(out)
}

// compactList returns the field as compact JSON, or [] when missing or null.
func compactList(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptyList, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}
