package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
)

type (
	Gender string

	// Date is a calendar date without a time-of-day component.
	Date struct {
		time.Time
	}

	Member struct {
		ID           int64        `json:"id"`
		FirstName    string       `json:"first_name"`
		LastName     string       `json:"last_name"`
		Contact      string       `json:"contact,omitempty"`
		Gender       Gender       `json:"gender,omitempty"`
		Address      string       `json:"address,omitempty"`
		Organization Organization `json:"organization"`
		BibleClass   BibleClass   `json:"bible_class"`
		IsLeader     bool         `json:"is_leader"`
	}

	Payment struct {
		ID       int64 `json:"id"`
		MemberID int64 `json:"member_id"`
		Amount   Money `json:"amount"`
		DatePaid Date  `json:"date_paid"`
	}

	// PaymentWithName is a payment joined with the payer's current name.
	PaymentWithName struct {
		Payment
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	// FieldErrors maps a field name to its validation message.
	FieldErrors map[string]string
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidPeriod = errors.New("invalid period")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	return d.UnmarshalText([]byte(s))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// FullName is the grouping key used by member reports.
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

func (m Member) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(m.FirstName) == "" {
		errs["first_name"] = "first name is required"
	}
	if strings.TrimSpace(m.LastName) == "" {
		errs["last_name"] = "last name is required"
	}
	if len(m.FirstName) > 100 {
		errs["first_name"] = "first name too long (max 100 characters)"
	}
	if len(m.LastName) > 100 {
		errs["last_name"] = "last name too long (max 100 characters)"
	}
	switch m.Gender {
	case GenderUnspecified, GenderMale, GenderFemale:
	default:
		errs["gender"] = "gender must be male or female"
	}
	if !m.Organization.IsValid() {
		errs["organization"] = "unknown organization"
	}
	if !m.BibleClass.IsValid() {
		errs["bible_class"] = "unknown bible class"
	}
	return errs.OrNil()
}

func (p Payment) Validate() error {
	errs := FieldErrors{}
	if p.MemberID <= 0 {
		errs["member_id"] = "member is required"
	}
	if err := p.Amount.Validate(); err != nil {
		errs["amount"] = "amount must be greater than zero"
	}
	if err := p.DatePaid.Validate(); err != nil {
		errs["date_paid"] = "date paid is required"
	}
	return errs.OrNil()
}

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns nil when no field failed, so callers can return it as an error directly.
func (e FieldErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
