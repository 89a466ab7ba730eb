package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/kidsync/internal/common"
	"github.com/dmitrijs2005/kidsync/internal/models"
)

// dateLayout is how the servlet formats dates, e.g. "Mar 04, 2017 12:00:00 AM".
const dateLayout = "Jan 02, 2006 03:04:05 PM"

type searchBeginResponse struct {
	Status       string `json:"status"`
	TotalRecords int    `json:"totalRecords"`
	TotalPages   int    `json:"totalPages"`
}

type searchPageResponse struct {
	TotalPages int `json:"totalPages"`
	// Persons are kept raw so one bad entry does not fail the page.
	Persons []json.RawMessage `json:"persons"`
}

type personDTO struct {
	CaseNumber     string    `json:"caseNumber"`
	OrgPrefix      string    `json:"orgPrefix"`
	OrgName        string    `json:"orgName"`
	FirstName      string    `json:"firstName"`
	MiddleName     string    `json:"middleName"`
	LastName       string    `json:"lastName"`
	MissingCity    string    `json:"missingCity"`
	MissingState   string    `json:"missingState"`
	MissingCountry string    `json:"missingCountry"`
	MissingDate    string    `json:"missingDate"`
	Age            flexFloat `json:"age"`
	ApproxAge      string    `json:"approxAge"`
	ThumbnailURL   string    `json:"thumbnailUrl"`
	CaseType       string    `json:"caseType"`
	Race           string    `json:"race"`
}

type detailResponse struct {
	Status    string     `json:"status"`
	ChildBean *childBean `json:"childBean"`
}

type childBean struct {
	Sex           *string    `json:"sex"`
	Race          *string    `json:"race"`
	BirthDate     *string    `json:"birthDate"`
	Height        *flexFloat `json:"height"`
	HeightInInch  *bool      `json:"heightInInch"`
	Weight        *flexFloat `json:"weight"`
	WeightInPound *bool      `json:"weightInPound"`
	EyeColor      *string    `json:"eyeColor"`
	HairColor     *string    `json:"hairColor"`
	Circumstance  *string    `json:"circumstance"`
}

// flexFloat accepts a JSON number or a numeric string; "" and null are 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number %q: %w", s, common.ErrParse)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// parseDate converts a servlet date into UTC epoch milliseconds. An empty
// string is absent and yields 0.
func parseDate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("date %q: %w", s, common.ErrParse)
	}
	return t.UnixMilli(), nil
}

type parsedPerson struct {
	models.Record
	// dateErr is an unparsable missingDate; the record is kept with DateMissing 0.
	dateErr error
}

func parsePerson(raw json.RawMessage) (parsedPerson, error) {
	var p personDTO
	if err := json.Unmarshal(raw, &p); err != nil {
		return parsedPerson{}, fmt.Errorf("decode person: %w: %w", common.ErrParse, err)
	}
	if p.CaseNumber == "" || p.OrgPrefix == "" {
		return parsedPerson{}, fmt.Errorf("person without case number or org prefix: %w", common.ErrParse)
	}

	rec := models.Record{
		OrgPrefix:    p.OrgPrefix,
		CaseNumber:   p.CaseNumber,
		NaturalKey:   models.NaturalKey(p.OrgPrefix, p.CaseNumber),
		OrgName:      p.OrgName,
		FirstName:    p.FirstName,
		MiddleName:   p.MiddleName,
		LastName:     p.LastName,
		City:         p.MissingCity,
		State:        p.MissingState,
		Country:      p.MissingCountry,
		Age:          int(p.Age),
		ThumbnailURL: p.ThumbnailURL,
		CaseType:     p.CaseType,
		Race:         p.Race,
	}

	if strings.TrimSpace(p.ApproxAge) != "" {
		lo, hi, err := models.ParseAgeRange(p.ApproxAge)
		if err != nil {
			return parsedPerson{}, err
		}
		rec.EstAgeLower, rec.EstAgeUpper = lo, hi
	}

	out := parsedPerson{Record: rec}
	out.DateMissing, out.dateErr = parseDate(p.MissingDate)
	return out, nil
}

// toDetail maps the payload onto a Detail. An unparsable birth date is
// reported but does not drop the rest of the detail.
func (b *childBean) toDetail() (*models.Detail, error) {
	d := &models.Detail{
		Gender:        b.Sex,
		Race:          b.Race,
		EyeColor:      b.EyeColor,
		HairColor:     b.HairColor,
		Description:   b.Circumstance,
		HeightInInch:  b.HeightInInch,
		WeightInPound: b.WeightInPound,
	}
	if b.Height != nil {
		v := float64(*b.Height)
		d.Height = &v
	}
	if b.Weight != nil {
		v := float64(*b.Weight)
		d.Weight = &v
	}

	var err error
	if b.BirthDate != nil && strings.TrimSpace(*b.BirthDate) != "" {
		var ms int64
		if ms, err = parseDate(*b.BirthDate); err == nil {
			d.DateOfBirth = &ms
		}
	}
	return d, err
}
