package wizard

import (
	"fmt"
	"strings"
)

// Section identifies one step of the coupon wizard.
type Section int

const (
	Essentials Section = iota
	Lifecycle
	Guardrails
	Inventory
	Distribution
)

// SectionOrder is the fixed order sections are filled in.
var SectionOrder = [...]Section{Essentials, Lifecycle, Guardrails, Inventory, Distribution}

var sectionNames = map[Section]string{
	Essentials:   "essentials",
	Lifecycle:    "lifecycle",
	Guardrails:   "guardrails",
	Inventory:    "inventory",
	Distribution: "distribution",
}

var sectionTitles = map[Section]string{
	Essentials:   "Essentials",
	Lifecycle:    "Lifecycle",
	Guardrails:   "Guardrails",
	Inventory:    "Inventory",
	Distribution: "Distribution",
}

// String returns the lowercase identifier of the section
func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Section(%d)", int(s))
}

// Title returns the display name of the section
func (s Section) Title() string {
	if title, ok := sectionTitles[s]; ok {
		return title
	}
	return s.String()
}

// Valid reports whether s is one of the defined sections.
func (s Section) Valid() bool {
	_, ok := sectionNames[s]
	return ok
}

// ParseSection maps a section identifier (case-insensitive) to a Section.
func ParseSection(name string) (Section, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, s := range SectionOrder {
		if sectionNames[s] == want {
			return s, nil
		}
	}
	return 0, &InvalidSectionError{Name: name}
}

// MarshalText implements encoding.TextMarshaler
func (s Section) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, &InvalidSectionError{Section: s}
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Section) UnmarshalText(text []byte) error {
	parsed, err := ParseSection(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
