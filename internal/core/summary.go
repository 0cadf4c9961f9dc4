package core

// Dimension names the member attribute a report groups by.
type Dimension string

const (
	DimensionMember       Dimension = "member"
	DimensionClass        Dimension = "class"
	DimensionOrganization Dimension = "organization"
)

// MemberTotal is the amount paid by one full name in a period.
type MemberTotal struct {
	FullName string `json:"full_name"`
	Total    Money  `json:"total"`
}

// ClassTotal is the amount paid by members of one Bible class.
type ClassTotal struct {
	Class BibleClass `json:"class"`
	Total Money      `json:"total"`
}

// OrganizationTotal is the amount paid by members of one organization.
type OrganizationTotal struct {
	Organization Organization `json:"organization"`
	Total        Money        `json:"total"`
}

// GroupTotal is a dimension-agnostic report row.
type GroupTotal struct {
	Key   string `json:"key"`
	Total Money  `json:"total"`
}

// Report is an ordered list of group totals for one period.
type Report struct {
	Dimension Dimension    `json:"dimension"`
	Period    Period       `json:"period"`
	Label     string       `json:"label"`
	Rows      []GroupTotal `json:"rows"`
	Total     Money        `json:"total"`
}

// ComparisonRow holds one group's totals across every period of a comparison.
type ComparisonRow struct {
	Key     string  `json:"key"`
	Totals  []Money `json:"totals"`
	Overall Money   `json:"overall"`
}

// Comparison lays the periods of a year side by side.
type Comparison struct {
	Dimension Dimension       `json:"dimension"`
	Unit      Unit            `json:"unit"`
	Year      int             `json:"year"`
	Columns   []string        `json:"columns"`
	Rows      []ComparisonRow `json:"rows"`
}
