package reports

import (
	"math"
	"time"

	"github.com/edflow/edflow/internal/domain/triage"
)

// SLA thresholds in minutes from triage to consultation start, per
// classification. The sicker the child, the shorter the allowance.
const (
	SLARedMinutes    = 15
	SLAYellowMinutes = 30
	SLAGreenMinutes  = 45
)

// SLAThreshold returns the door-to-doctor allowance for a severity.
func SLAThreshold(s triage.Severity) int {
	switch s {
	case triage.SeverityRed:
		return SLARedMinutes
	case triage.SeverityYellow:
		return SLAYellowMinutes
	default:
		return SLAGreenMinutes
	}
}

// AttendedRow is a finished visit with its derived wait metrics.
type AttendedRow struct {
	triage.QueueEntry
	WaitMinutes *int  `json:"waitMinutes,omitempty"`
	SLAOk       *bool `json:"slaOk,omitempty"`
}

// KPIBucket aggregates one severity class.
type KPIBucket struct {
	Total int `json:"total"`
	OK    int `json:"ok"`
	Pct   int `json:"pct"`
}

// KPI is the per-class SLA compliance summary.
type KPI struct {
	Green  KPIBucket `json:"GREEN"`
	Yellow KPIBucket `json:"YELLOW"`
	Red    KPIBucket `json:"RED"`
}

// Query filters the attended listing.
type Query struct {
	StartDate      string `query:"startDate"` // YYYY-MM-DD, department tz
	EndDate        string `query:"endDate"`
	Classification string `query:"classification"`
	Search         string `query:"q"`
}

// Result is the attended listing with its KPI summary.
type Result struct {
	Rows []*AttendedRow `json:"rows"`
	KPI  KPI            `json:"kpi"`
}

// WaitMinutes is the door-to-doctor wait, rounded to whole minutes.
// Nil when the consultation never started.
func WaitMinutes(triageAt time.Time, consultStart *time.Time) *int {
	if consultStart == nil {
		return nil
	}
	m := int(math.Round(consultStart.Sub(triageAt).Minutes()))
	return &m
}

// ComputeKPI folds attended rows into per-class totals. A row counts
// as compliant when its wait is within the class threshold.
func ComputeKPI(rows []*AttendedRow) KPI {
	var kpi KPI
	for _, r := range rows {
		b := kpi.bucket(r.Classification)
		if b == nil {
			continue
		}
		b.Total++
		if r.WaitMinutes != nil && *r.WaitMinutes <= SLAThreshold(r.Classification) {
			b.OK++
		}
	}
	for _, b := range []*KPIBucket{&kpi.Green, &kpi.Yellow, &kpi.Red} {
		if b.Total > 0 {
			b.Pct = int(math.Round(float64(b.OK) / float64(b.Total) * 100))
		}
	}
	return kpi
}

func (k *KPI) bucket(s triage.Severity) *KPIBucket {
	switch s {
	case triage.SeverityGreen:
		return &k.Green
	case triage.SeverityYellow:
		return &k.Yellow
	case triage.SeverityRed:
		return &k.Red
	}
	return nil
}
