package core

import (
	"fmt"
	"strings"
)

// Organization is the church organization a member belongs to.
// Declaration order is the order used by reports.
type Organization int

const (
	OrganizationNone Organization = iota
	OrganizationYouth
	OrganizationMensFellowship
	OrganizationWomensFellowship
	OrganizationChoir
	OrganizationSundaySchool
	OrganizationUshers
)

// BibleClass is the Bible study class a member attends.
// Declaration order is the order used by reports.
type BibleClass int

const (
	BibleClassNone BibleClass = iota
	BibleClassGenesis
	BibleClassExodus
	BibleClassLeviticus
	BibleClassNumbers
	BibleClassDeuteronomy
	BibleClassJoshua
)

var organizationNames = [...]string{
	"none",
	"youth",
	"mens_fellowship",
	"womens_fellowship",
	"choir",
	"sunday_school",
	"ushers",
}

var bibleClassNames = [...]string{
	"none",
	"genesis",
	"exodus",
	"leviticus",
	"numbers",
	"deuteronomy",
	"joshua",
}

// Organizations lists every organization in declaration order.
func Organizations() []Organization {
	out := make([]Organization, len(organizationNames))
	for i := range organizationNames {
		out[i] = Organization(i)
	}
	return out
}

// BibleClasses lists every class in declaration order.
func BibleClasses() []BibleClass {
	out := make([]BibleClass, len(bibleClassNames))
	for i := range bibleClassNames {
		out[i] = BibleClass(i)
	}
	return out
}

func (o Organization) IsValid() bool {
	return o >= 0 && int(o) < len(organizationNames)
}

func (o Organization) String() string {
	if !o.IsValid() {
		return fmt.Sprintf("organization(%d)", int(o))
	}
	return organizationNames[o]
}

func (o Organization) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("unknown organization %d", int(o))
	}
	return []byte(o.String()), nil
}

func (o *Organization) UnmarshalText(b []byte) error {
	parsed, err := ParseOrganization(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOrganization accepts the lower-case name; an empty string means none.
func ParseOrganization(s string) (Organization, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return OrganizationNone, nil
	}
	for i, name := range organizationNames {
		if name == s {
			return Organization(i), nil
		}
	}
	return OrganizationNone, fmt.Errorf("unknown organization %q", s)
}

func (c BibleClass) IsValid() bool {
	return c >= 0 && int(c) < len(bibleClassNames)
}

func (c BibleClass) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("bible_class(%d)", int(c))
	}
	return bibleClassNames[c]
}

func (c BibleClass) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("unknown bible class %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *BibleClass) UnmarshalText(b []byte) error {
	parsed, err := ParseBibleClass(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseBibleClass accepts the lower-case name; an empty string means none.
func ParseBibleClass(s string) (BibleClass, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BibleClassNone, nil
	}
	for i, name := range bibleClassNames {
		if name == s {
			return BibleClass(i), nil
		}
	}
	return BibleClassNone, fmt.Errorf("unknown bible class %q", s)
}
