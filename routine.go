package routinepdf

import (
	"fmt"
	"strings"

	"github.com/alnah/go-routinepdf/internal/yamlutil"
)

// Kind selects the table layout of a routine.
type Kind string

// Routine kinds.
const (
	KindWorkout Kind = "workout"
	KindMeal    Kind = "meal"
)

// ParseKind parses s case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q (must be workout or meal)", ErrInvalidKind, s)
	}
	return k, nil
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindWorkout || k == KindMeal
}

// Label returns the heading printed on pages.
func (k Kind) Label() string {
	if k == KindMeal {
		return "برنامه غذایی"
	}
	return "برنامه تمرینی"
}

// Heading returns Label followed by "اختصاصی", as used in the text export.
func (k Kind) Heading() string {
	return k.Label() + " اختصاصی"
}

// Item is one row of a day table. For workouts the fields are name, sets,
// reps and rest. For meals Label is the title and Primary the description;
// Secondary and Tertiary are unused.
type Item struct {
	Label     string `json:"name" yaml:"name"`
	Primary   string `json:"sets" yaml:"sets"`
	Secondary string `json:"reps" yaml:"reps"`
	Tertiary  string `json:"rest" yaml:"rest"`
}

// Day is a named, ordered list of items. A day may be empty.
type Day struct {
	Name  string `json:"dayName" yaml:"dayName"`
	Items []Item `json:"exercises" yaml:"exercises"`
}

// Routine is a structured workout or meal plan.
type Routine struct {
	Title         string `json:"title" yaml:"title"`
	Kind          Kind   `json:"type" yaml:"type"`
	StudentName   string `json:"studentName,omitempty" yaml:"studentName,omitempty"`
	StudentWeight string `json:"studentWeight,omitempty" yaml:"studentWeight,omitempty"`
	Days          []Day  `json:"days" yaml:"days"`
	Tips          string `json:"tips,omitempty" yaml:"tips,omitempty"`
}

// Validate checks that r can be exported.
func (r *Routine) Validate() error {
	if r == nil {
		return ErrNilRoutine
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q (must be workout or meal)", ErrInvalidKind, r.Kind)
	}
	if len(r.Days) == 0 {
		return ErrNoDays
	}
	return nil
}

// Clone returns a deep copy of r.
func (r *Routine) Clone() *Routine {
	if r == nil {
		return nil
	}
	c := *r
	c.Days = make([]Day, len(r.Days))
	for i, d := range r.Days {
		c.Days[i] = Day{Name: d.Name, Items: append([]Item(nil), d.Items...)}
	}
	return &c
}

// ItemCount returns the number of items across all days.
func (r *Routine) ItemCount() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Items)
	}
	return n
}

// DecodeRoutine decodes a routine from YAML or JSON and normalizes its kind.
// The result is not validated; call Validate before exporting.
func DecodeRoutine(data []byte) (*Routine, error) {
	var r Routine
	if err := yamlutil.UnmarshalStrict(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoutineDecode, err)
	}
	r.Kind = Kind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
	return &r, nil
}

// Meta carries values printed on exports that do not come from the routine.
type Meta struct {
	RenewalDate string
	Contact     Contact
}

// DefaultContactLabel is used when Contact.Label is empty.
const DefaultContactLabel = "جهت تمدید و دریافت برنامه جدید پیام بدهید"

// Contact is the renewal contact in the footer. An empty Phone omits the
// phone line.
type Contact struct {
	Label string
	Phone string
}

func (c Contact) label() string {
	if c.Label == "" {
		return DefaultContactLabel
	}
	return c.Label
}

// placeholder stands in for a missing student name or weight.
const placeholder = "---"

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
