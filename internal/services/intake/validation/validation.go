// Package validation checks record fields against ordered rule lists.
//
// Validation is pure: it reads the record through fieldpath and never writes
// to it. Callers run it when a card is saved, not while input is typed.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
)

// Constraint checks a single field value. Check receives nil when the field is
// absent from the record.
type Constraint interface {
	Check(value any) (message string, ok bool)
}

// Condition gates a rule on the state of the whole record.
type Condition func(record any) bool

// Rule binds constraints to one field. Constraints are evaluated in order and
// every failing constraint contributes a message.
type Rule struct {
	Field       fieldpath.Path
	Constraints []Constraint
	When        Condition
}

// Rules is the ordered rule list for one card.
type Rules []Rule

// Field builds a rule for the dotted field name.
func Field(name string, constraints ...Constraint) Rule {
	path, err := fieldpath.Parse(name)
	if err != nil {
		panic(fmt.Sprintf("validation: bad field %q: %v", name, err))
	}
	return Rule{Field: path, Constraints: constraints}
}

// If returns a copy of the rule that only applies when cond holds.
func (r Rule) If(cond Condition) Rule {
	r.When = cond
	return r
}

// FieldEquals is a Condition that holds when the field at name equals value.
func FieldEquals(name string, value any) Condition {
	path, err := fieldpath.Parse(name)
	if err != nil {
		panic(fmt.Sprintf("validation: bad field %q: %v", name, err))
	}
	return func(record any) bool {
		got, err := fieldpath.Get(record, path)
		return err == nil && got == value
	}
}

// Result is the outcome of one validation run. Errors is keyed by dotted field
// name; messages for a field keep rule order.
type Result struct {
	Errors map[string][]string
}

// Passes reports whether no rule failed.
func (r Result) Passes() bool {
	return len(r.Errors) == 0
}

// For returns the messages recorded for field.
func (r Result) For(field string) []string {
	return r.Errors[field]
}

// Fields returns the failing field names in sorted order.
func (r Result) Fields() []string {
	fields := make([]string, 0, len(r.Errors))
	for field := range r.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func (r *Result) add(field, message string) {
	if r.Errors == nil {
		r.Errors = map[string][]string{}
	}
	r.Errors[field] = append(r.Errors[field], message)
}

// Validate evaluates rules against record.
func Validate(record any, rules Rules) Result {
	var result Result
	for _, rule := range rules {
		if rule.When != nil && !rule.When(record) {
			continue
		}
		field := rule.Field.String()
		value, err := fieldpath.Get(record, rule.Field)
		if err != nil {
			result.add(field, "has an unexpected shape")
			continue
		}
		for _, constraint := range rule.Constraints {
			if message, ok := constraint.Check(value); !ok {
				result.add(field, message)
			}
		}
	}
	return result
}

// ErrFailed is matched by every *Error.
var ErrFailed = errors.New("validation failed")

// Error carries a failing Result out of a save attempt.
type Error struct {
	Result Result
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, len(e.Result.Errors))
	for _, field := range e.Result.Fields() {
		parts = append(parts, field+": "+strings.Join(e.Result.Errors[field], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is lets errors.Is(err, ErrFailed) match.
func (e *Error) Is(target error) bool {
	return target == ErrFailed
}

type regexConstraint struct {
	pattern *regexp.Regexp
	message string
}

// Regex requires a present value to match pattern in full. Non-string values
// fail.
func Regex(pattern, message string) Constraint {
	return regexConstraint{pattern: regexp.MustCompile(pattern), message: message}
}

func (c regexConstraint) Check(value any) (string, bool) {
	if value == nil {
		return "", true
	}
	s, ok := value.(string)
	if !ok || !c.pattern.MatchString(s) {
		return c.message, false
	}
	return "", true
}

type requiredConstraint struct {
	message string
}

// Required rejects nil, blank strings and empty lists.
func Required(message string) Constraint {
	return requiredConstraint{message: message}
}

func (c requiredConstraint) Check(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return c.message, false
	case string:
		if strings.TrimSpace(v) == "" {
			return c.message, false
		}
	case []any:
		if len(v) == 0 {
			return c.message, false
		}
	}
	return "", true
}

type maxLengthConstraint struct {
	max     int
	message string
}

// MaxLength limits a present string to max characters.
func MaxLength(max int, message string) Constraint {
	return maxLengthConstraint{max: max, message: message}
}

func (c maxLengthConstraint) Check(value any) (string, bool) {
	s, ok := value.(string)
	if !ok {
		return "", true
	}
	if utf8.RuneCountInString(s) > c.max {
		return c.message, false
	}
	return "", true
}
