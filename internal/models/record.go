// Package models defines the missing-child record and the values exchanged
// between the remote client, the local store and the sync components.
package models

// Record is a missing-child case as cached in the local store.
//
// Measurements carry one unit system per fetch; the other pair stays 0.
// Dates are UTC epoch milliseconds where 0 means absent.
type Record struct {
	// ID is assigned by the local store on first insert and preserved
	// across updates of the same NaturalKey.
	ID int64

	OrgPrefix  string
	CaseNumber string
	// NaturalKey is OrgPrefix+CaseNumber, unique in the local store.
	NaturalKey string
	OrgName    string

	FirstName  string
	MiddleName string
	LastName   string

	Race      string
	Gender    string
	HairColor string
	EyeColor  string

	HeightImperial float64 // inches
	HeightMetric   float64 // centimetres
	WeightImperial float64 // pounds
	WeightMetric   float64 // kilograms

	DateMissing int64
	DateOfBirth int64

	Age         int
	EstAgeLower int
	EstAgeUpper int

	City    string
	State   string
	Country string

	ThumbnailURL string
	CaseType     string
	Description  string

	// HasDetail is set once detail data has been merged into the record.
	HasDetail bool
}

// NaturalKey builds the unique key of a case.
func NaturalKey(orgPrefix, caseNumber string) string {
	return orgPrefix + caseNumber
}

// EnsureKey fills NaturalKey from OrgPrefix and CaseNumber when it is empty.
func (r *Record) EnsureKey() {
	if r.NaturalKey == "" {
		r.NaturalKey = NaturalKey(r.OrgPrefix, r.CaseNumber)
	}
}

// FullName joins the non-empty name parts with single spaces.
func (r *Record) FullName() string {
	name := ""
	for _, p := range []string{r.FirstName, r.MiddleName, r.LastName} {
		if p == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += p
	}
	return name
}
