package models

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/kidsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAgeRange_OK(t *testing.T) {
	tests := []struct {
		in           string
		lower, upper int
	}{
		{"15-25", 15, 25},
		{"0-99", 0, 99},
		{" 3 - 7 ", 3, 7},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi, err := ParseAgeRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.lower, lo)
			assert.Equal(t, tt.upper, hi)
		})
	}
}

func TestParseAgeRange_Malformed(t *testing.T) {
	for _, in := range []string{"", "15", "15to25", "a-25", "15-b", "-25", "15-"} {
		t.Run(in, func(t *testing.T) {
			_, _, err := ParseAgeRange(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrParse))
		})
	}
}

func TestEnsureKey(t *testing.T) {
	r := Record{OrgPrefix: "NCMC", CaseNumber: "1234567"}
	r.EnsureKey()
	assert.Equal(t, "NCMC1234567", r.NaturalKey)

	r.NaturalKey = "keep"
	r.EnsureKey()
	assert.Equal(t, "keep", r.NaturalKey)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Jane Q Doe", (&Record{FirstName: "Jane", MiddleName: "Q", LastName: "Doe"}).FullName())
	assert.Equal(t, "Jane Doe", (&Record{FirstName: "Jane", LastName: "Doe"}).FullName())
	assert.Equal(t, "", (&Record{}).FullName())
}

func ptr[T any](v T) *T { return &v }

func TestApplyDetail_OverlaysOnlyPresentFields(t *testing.T) {
	r := Record{
		ID: 7, OrgPrefix: "NCMC", CaseNumber: "1", NaturalKey: "NCMC1",
		FirstName: "Ann", LastName: "Lee", Race: "White", HairColor: "Brown", City: "Fresno",
	}

	ApplyDetail(&r, Detail{Gender: ptr("Female"), EyeColor: ptr("Blue")})

	assert.Equal(t, "Female", r.Gender)
	assert.Equal(t, "Blue", r.EyeColor)
	assert.Equal(t, "White", r.Race)
	assert.Equal(t, "Brown", r.HairColor)
	assert.Equal(t, int64(7), r.ID)
	assert.Equal(t, "NCMC1", r.NaturalKey)
	assert.Equal(t, "Ann", r.FirstName)
	assert.Equal(t, "Fresno", r.City)
	assert.True(t, r.HasDetail)
}

func TestApplyDetail_UnitSelection(t *testing.T) {
	r := Record{HeightMetric: 150, WeightImperial: 90}

	ApplyDetail(&r, Detail{
		Height: ptr(60.0), HeightInInch: ptr(true),
		Weight: ptr(45.0), WeightInPound: ptr(false),
	})

	assert.Equal(t, 60.0, r.HeightImperial)
	assert.Zero(t, r.HeightMetric)
	assert.Zero(t, r.WeightImperial)
	assert.Equal(t, 45.0, r.WeightMetric)

	ApplyDetail(&r, Detail{Weight: ptr(100.0)})
	assert.Equal(t, 100.0, r.WeightImperial)
	assert.Zero(t, r.WeightMetric)
}

func TestNetworkState_String(t *testing.T) {
	assert.Equal(t, "idle", NetworkIdle.String())
	assert.Equal(t, "loading", NetworkLoading.String())
	assert.Equal(t, "loaded", NetworkLoaded.String())
	assert.Equal(t, "failed: timeout", NetworkFailed("timeout").String())
	assert.Equal(t, "unknown", NetworkStatus(42).String())
}
