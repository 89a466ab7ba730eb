package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/kidsync/internal/models"
)

func printRecord(w io.Writer, r models.Record) {
	fmt.Fprintf(w, "%-14s %-32s %s\n", r.NaturalKey, r.FullName(), location(r))
}

func printDetail(w io.Writer, r models.Record) {
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %-14s %s\n", label+":", value)
		}
	}

	fmt.Fprintf(w, "%s %s\n", r.NaturalKey, r.FullName())
	line("organization", r.OrgName)
	line("case type", r.CaseType)
	line("missing since", formatDate(r.DateMissing))
	line("missing from", location(r))
	line("born", formatDate(r.DateOfBirth))
	if r.Age > 0 {
		line("age", fmt.Sprint(r.Age))
	}
	line("gender", r.Gender)
	line("race", r.Race)
	line("hair", r.HairColor)
	line("eyes", r.EyeColor)
	line("height", formatMeasure(r.HeightImperial, "in", r.HeightMetric, "cm"))
	line("weight", formatMeasure(r.WeightImperial, "lbs", r.WeightMetric, "kg"))
	line("description", r.Description)
}

func location(r models.Record) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.City, r.State, r.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func formatDate(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

func formatMeasure(imperial float64, iu string, metric float64, mu string) string {
	switch {
	case imperial > 0:
		return fmt.Sprintf("%g %s", imperial, iu)
	case metric > 0:
		return fmt.Sprintf("%g %s", metric, mu)
	}
	return ""
}
