package triage

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/platform/apperr"
)

type passRunner struct{}

func (passRunner) InTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordPub struct {
	kinds []string
}

func (p *recordPub) Publish(kind, visitID string, payload any) {
	p.kinds = append(p.kinds, kind)
}

type mockPatientRepo struct {
	byID  map[uuid.UUID]*Patient
	byExp map[string]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{byID: make(map[uuid.UUID]*Patient), byExp: make(map[string]*Patient)}
}

func (m *mockPatientRepo) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.byID[p.ID] = p
	if p.Expediente != nil {
		m.byExp[*p.Expediente] = p
	}
	return nil
}

func (m *mockPatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "patient not found")
	}
	return p, nil
}

func (m *mockPatientRepo) GetByExpediente(ctx context.Context, exp string) (*Patient, error) {
	p, ok := m.byExp[exp]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "patient not found")
	}
	return p, nil
}

func (m *mockPatientRepo) Update(ctx context.Context, p *Patient) error {
	m.byID[p.ID] = p
	return nil
}

type mockVisitRepo struct {
	visits    map[uuid.UUID]*Visit
	noteStart map[uuid.UUID]*time.Time
}

func newMockVisitRepo() *mockVisitRepo {
	return &mockVisitRepo{visits: make(map[uuid.UUID]*Visit), noteStart: make(map[uuid.UUID]*time.Time)}
}

func (m *mockVisitRepo) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *mockVisitRepo) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "visit not found")
	}
	cp := *v
	return &cp, nil
}

func (m *mockVisitRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return m.GetByID(ctx, id)
}

func (m *mockVisitRepo) Update(ctx context.Context, v *Visit) error {
	if _, ok := m.visits[v.ID]; !ok {
		return apperr.New(apperr.NotFound, "visit not found")
	}
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *mockVisitRepo) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "visit not found")
	}
	return &Detail{Visit: *v, ConsultStart: m.noteStart[id]}, nil
}

func (m *mockVisitRepo) entries(filter func(*Visit) bool, start, end time.Time) []*QueueEntry {
	var out []*QueueEntry
	for _, v := range m.visits {
		if v.TriageAt.Before(start) || !v.TriageAt.Before(end) {
			continue
		}
		if !filter(v) {
			continue
		}
		out = append(out, &QueueEntry{Visit: *v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Classification.Rank() != out[j].Classification.Rank() {
			return out[i].Classification.Rank() > out[j].Classification.Rank()
		}
		return out[i].TriageAt.Before(out[j].TriageAt)
	})
	return out
}

func (m *mockVisitRepo) ListCashierPending(ctx context.Context, start, end time.Time) ([]*QueueEntry, error) {
	return m.entries(func(v *Visit) bool { return v.PaidStatus == PaidPending }, start, end), nil
}

func (m *mockVisitRepo) ListDoctorQueue(ctx context.Context, start, end time.Time) ([]*QueueEntry, error) {
	return m.entries(func(v *Visit) bool { return v.PaidStatus == PaidPaid }, start, end), nil
}

func (m *mockVisitRepo) ListDoctorWaiting(ctx context.Context, start, end time.Time) ([]*QueueEntry, error) {
	return m.entries(func(v *Visit) bool {
		return v.PaidStatus == PaidPaid && m.noteStart[v.ID] == nil
	}, start, end), nil
}

func (m *mockVisitRepo) ListNurseRecent(ctx context.Context, nurseID uuid.UUID, start, end time.Time) ([]*QueueEntry, error) {
	return m.entries(func(v *Visit) bool { return v.NurseID == nurseID }, start, end), nil
}

func newTestService() (*Service, *mockPatientRepo, *mockVisitRepo, *recordPub) {
	patients := newMockPatientRepo()
	visits := newMockVisitRepo()
	pub := &recordPub{}
	loc, _ := time.LoadLocation("America/Merida")
	return NewService(patients, visits, passRunner{}, pub, loc), patients, visits, pub
}

func TestCreateVisitClassifiesWorstAxis(t *testing.T) {
	svc, _, _, pub := newTestService()
	nurseID := uuid.New()

	detail, err := svc.CreateVisit(context.Background(), nurseID, CreateVisitInput{
		Reason:          "fiebre alta",
		PatientFullName: "Ana Pech",
		Appearance:      "YELLOW",
		Breathing:       "GREEN",
		Circulation:     "RED",
	})
	if err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if detail.Visit.Classification != SeverityRed {
		t.Errorf("classification = %v, want RED", detail.Visit.Classification)
	}
	if detail.Visit.PaidStatus != PaidPending {
		t.Errorf("paid status = %q, want PENDING", detail.Visit.PaidStatus)
	}
	if detail.Visit.NurseID != nurseID {
		t.Errorf("nurse id not recorded")
	}
	if len(pub.kinds) != 1 || pub.kinds[0] != "triage:new" {
		t.Errorf("published %v, want [triage:new]", pub.kinds)
	}
}

func TestCreateVisitValidation(t *testing.T) {
	svc, _, _, pub := newTestService()

	_, err := svc.CreateVisit(context.Background(), uuid.New(), CreateVisitInput{
		Reason: "  ", PatientFullName: "Ana Pech",
		Appearance: "GREEN", Breathing: "GREEN", Circulation: "GREEN",
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("empty reason: expected validation error, got %v", err)
	}

	_, err = svc.CreateVisit(context.Background(), uuid.New(), CreateVisitInput{
		Reason: "dolor", PatientFullName: "Ana Pech",
		Appearance: "PURPLE", Breathing: "GREEN", Circulation: "GREEN",
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("bad color: expected validation error, got %v", err)
	}

	if len(pub.kinds) != 0 {
		t.Errorf("no events should fire on validation failure, got %v", pub.kinds)
	}
}

func TestCreateVisitReusesPatientByChartNumber(t *testing.T) {
	svc, patients, visits, _ := newTestService()
	exp := "EXP-001"

	first, err := svc.CreateVisit(context.Background(), uuid.New(), CreateVisitInput{
		Reason: "tos", PatientFullName: "Luis Canul", Expediente: &exp,
		Appearance: "GREEN", Breathing: "GREEN", Circulation: "GREEN",
	})
	if err != nil {
		t.Fatalf("first visit: %v", err)
	}

	second, err := svc.CreateVisit(context.Background(), uuid.New(), CreateVisitInput{
		Reason: "tos persistente", PatientFullName: "Luis Canul Couoh", Expediente: &exp,
		Appearance: "YELLOW", Breathing: "GREEN", Circulation: "GREEN",
	})
	if err != nil {
		t.Fatalf("second visit: %v", err)
	}

	if first.Visit.PatientID != second.Visit.PatientID {
		t.Error("expected both visits to share the patient with the same chart number")
	}
	if len(patients.byID) != 1 {
		t.Errorf("expected one patient record, got %d", len(patients.byID))
	}
	if len(visits.visits) != 2 {
		t.Errorf("expected two visits, got %d", len(visits.visits))
	}
}

func TestRevaluePartialUpdate(t *testing.T) {
	svc, _, visits, pub := newTestService()
	nurseID := uuid.New()
	temp := 38.5

	created, err := svc.CreateVisit(context.Background(), nurseID, CreateVisitInput{
		Reason: "fiebre", PatientFullName: "Maria Uc",
		Appearance: "GREEN", Breathing: "GREEN", Circulation: "GREEN",
		TemperatureC: &temp,
	})
	if err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}

	red := "RED"
	updated, err := svc.Revalue(context.Background(), nurseID, created.Visit.ID, RevalueInput{
		Appearance: &red,
	})
	if err != nil {
		t.Fatalf("Revalue: %v", err)
	}

	if updated.Visit.Classification != SeverityRed {
		t.Errorf("classification = %v, want RED after revalue", updated.Visit.Classification)
	}
	if updated.Visit.TemperatureC == nil || *updated.Visit.TemperatureC != temp {
		t.Error("temperature should be kept when not provided")
	}
	if updated.Visit.Breathing != SeverityGreen {
		t.Error("untouched axis should be kept")
	}

	stored := visits.visits[created.Visit.ID]
	if stored.Classification != SeverityRed {
		t.Error("revalue not persisted")
	}
	if pub.kinds[len(pub.kinds)-1] != "triage:updated" {
		t.Errorf("expected triage:updated event, got %v", pub.kinds)
	}
}

func TestRevalueConflictsAfterConsultationStart(t *testing.T) {
	svc, _, visits, _ := newTestService()
	nurseID := uuid.New()

	created, err := svc.CreateVisit(context.Background(), nurseID, CreateVisitInput{
		Reason: "caida", PatientFullName: "Pedro Chan",
		Appearance: "YELLOW", Breathing: "GREEN", Circulation: "GREEN",
	})
	if err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}

	now := time.Now()
	visits.noteStart[created.Visit.ID] = &now

	red := "RED"
	_, err = svc.Revalue(context.Background(), nurseID, created.Visit.ID, RevalueInput{Appearance: &red})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict once consultation started, got %v", err)
	}
}

func TestRevalueOtherNurse(t *testing.T) {
	svc, _, _, _ := newTestService()

	created, err := svc.CreateVisit(context.Background(), uuid.New(), CreateVisitInput{
		Reason: "vomito", PatientFullName: "Sofia Poot",
		Appearance: "GREEN", Breathing: "GREEN", Circulation: "GREEN",
	})
	if err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}

	red := "RED"
	_, err = svc.Revalue(context.Background(), uuid.New(), created.Visit.ID, RevalueInput{Appearance: &red})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("another nurse must not see the visit, got %v", err)
	}
}

func TestCashierPendingOrdering(t *testing.T) {
	svc, _, visits, _ := newTestService()
	nurseID := uuid.New()
	base := time.Now().UTC()

	add := func(cls Severity, offset time.Duration, paid string) uuid.UUID {
		v := &Visit{
			TriageAt: base.Add(offset), Reason: "r",
			Appearance: cls, Breathing: cls, Circulation: cls, Classification: cls,
			PaidStatus: paid, NurseID: nurseID, PatientID: uuid.New(),
		}
		visits.Create(context.Background(), v)
		return v.ID
	}

	green := add(SeverityGreen, 0, PaidPending)
	redLate := add(SeverityRed, 3*time.Minute, PaidPending)
	yellow := add(SeverityYellow, 1*time.Minute, PaidPending)
	redEarly := add(SeverityRed, 2*time.Minute, PaidPending)
	add(SeverityRed, 4*time.Minute, PaidPaid) // already paid, not in cashier queue

	queue, err := svc.CashierPending(context.Background())
	if err != nil {
		t.Fatalf("CashierPending: %v", err)
	}

	want := []uuid.UUID{redEarly, redLate, yellow, green}
	if len(queue) != len(want) {
		t.Fatalf("queue length = %d, want %d", len(queue), len(want))
	}
	for i, id := range want {
		if queue[i].Visit.ID != id {
			t.Errorf("queue[%d] = %s, want %s", i, queue[i].Visit.ID, id)
		}
	}
}

func TestDayWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/Merida")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 03:00 UTC is still the previous civil day in Merida (UTC-6).
	at := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	start, end := DayWindow(at, loc)

	wantStart := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("end = %v, want next midnight", end)
	}
	if !at.Before(end) || at.Before(start) {
		t.Error("instant should fall inside its own window")
	}
}
