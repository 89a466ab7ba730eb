package models

// Detail is the per-case supplementary data returned by the detail endpoint.
// A nil field was absent from the payload and leaves the record unchanged.
type Detail struct {
	Gender      *string
	Race        *string
	DateOfBirth *int64
	EyeColor    *string
	HairColor   *string
	Description *string

	Height *float64
	// HeightInInch selects the imperial column for Height. Nil means imperial.
	HeightInInch *bool
	Weight       *float64
	// WeightInPound selects the imperial column for Weight. Nil means imperial.
	WeightInPound *bool
}

// ApplyDetail overlays d onto r field by field. Identity fields, names and
// location are never touched. The record is marked as having detail.
func ApplyDetail(r *Record, d Detail) {
	overlay(&r.Gender, d.Gender)
	overlay(&r.Race, d.Race)
	overlay(&r.EyeColor, d.EyeColor)
	overlay(&r.HairColor, d.HairColor)
	overlay(&r.Description, d.Description)
	if d.DateOfBirth != nil {
		r.DateOfBirth = *d.DateOfBirth
	}

	if d.Height != nil {
		if d.HeightInInch == nil || *d.HeightInInch {
			r.HeightImperial, r.HeightMetric = *d.Height, 0
		} else {
			r.HeightImperial, r.HeightMetric = 0, *d.Height
		}
	}
	if d.Weight != nil {
		if d.WeightInPound == nil || *d.WeightInPound {
			r.WeightImperial, r.WeightMetric = *d.Weight, 0
		} else {
			r.WeightImperial, r.WeightMetric = 0, *d.Weight
		}
	}

	r.HasDetail = true
}

func overlay(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
