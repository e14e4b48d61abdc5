package reports

import (
	"context"
	"strings"
	"time"

	"github.com/edflow/edflow/internal/domain/triage"
	"github.com/edflow/edflow/internal/platform/apperr"
)

type Service struct {
	repo Repository
	loc  *time.Location
}

func NewService(repo Repository, loc *time.Location) *Service {
	return &Service{repo: repo, loc: loc}
}

// ListAttended returns the finished visits in the requested range with
// their wait metrics and the per-class SLA summary. Dates are civil
// days in the department's timezone; both default to today.
func (s *Service) ListAttended(ctx context.Context, q Query) (*Result, error) {
	f, err := s.resolve(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListAttended(ctx, f)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		r.WaitMinutes = WaitMinutes(r.TriageAt, r.ConsultStart)
		if r.WaitMinutes != nil {
			ok := *r.WaitMinutes <= SLAThreshold(r.Classification)
			r.SLAOk = &ok
		}
	}

	return &Result{Rows: rows, KPI: ComputeKPI(rows)}, nil
}

func (s *Service) resolve(q Query) (Filter, error) {
	now := time.Now()

	start, _ := triage.DayWindow(now, s.loc)
	if d := strings.TrimSpace(q.StartDate); d != "" {
		day, err := time.ParseInLocation("2006-01-02", d, s.loc)
		if err != nil {
			return Filter{}, apperr.New(apperr.Validation, "invalid startDate %q", d)
		}
		start = day
	}

	_, end := triage.DayWindow(now, s.loc)
	if d := strings.TrimSpace(q.EndDate); d != "" {
		day, err := time.ParseInLocation("2006-01-02", d, s.loc)
		if err != nil {
			return Filter{}, apperr.New(apperr.Validation, "invalid endDate %q", d)
		}
		end = day.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		return Filter{}, apperr.New(apperr.Validation, "startDate must not be after endDate")
	}

	f := Filter{Start: start, End: end, Search: strings.TrimSpace(q.Search)}
	if c := strings.TrimSpace(q.Classification); c != "" {
		sev, err := triage.ParseSeverity(c)
		if err != nil {
			return Filter{}, err
		}
		f.Classification = &sev
	}
	return f, nil
}
