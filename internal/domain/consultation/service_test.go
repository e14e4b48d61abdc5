package consultation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/domain/triage"
	"github.com/edflow/edflow/internal/platform/apperr"
)

// lockRunner serializes transactions the way row locks do in postgres.
type lockRunner struct{ mu sync.Mutex }

func (r *lockRunner) InTx(ctx context.Context, fn func(context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

type recordPub struct {
	mu    sync.Mutex
	kinds []string
}

func (p *recordPub) Publish(kind, visitID string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, kind)
}

func (p *recordPub) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.kinds...)
}

type mockNoteRepo struct {
	mu      sync.Mutex
	byVisit map[uuid.UUID]*Note
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{byVisit: make(map[uuid.UUID]*Note)}
}

func (m *mockNoteRepo) Create(ctx context.Context, n *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = uuid.New()
	cp := *n
	m.byVisit[n.VisitID] = &cp
	return nil
}

func (m *mockNoteRepo) Update(ctx context.Context, n *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.byVisit[n.VisitID] = &cp
	return nil
}

func (m *mockNoteRepo) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byVisit[visitID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "consultation note not found")
	}
	cp := *n
	return &cp, nil
}

func (m *mockNoteRepo) ListConsulting(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*triage.QueueEntry, error) {
	return nil, nil
}

func (m *mockNoteRepo) ListAttended(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*triage.QueueEntry, error) {
	return nil, nil
}

type mockVisitRepo struct {
	mu     sync.Mutex
	visits map[uuid.UUID]*triage.Visit
}

func newMockVisitRepo() *mockVisitRepo {
	return &mockVisitRepo{visits: make(map[uuid.UUID]*triage.Visit)}
}

func (m *mockVisitRepo) Create(ctx context.Context, v *triage.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = uuid.New()
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *mockVisitRepo) GetByID(ctx context.Context, id uuid.UUID) (*triage.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "visit not found")
	}
	cp := *v
	return &cp, nil
}

func (m *mockVisitRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*triage.Visit, error) {
	return m.GetByID(ctx, id)
}

func (m *mockVisitRepo) Update(ctx context.Context, v *triage.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *mockVisitRepo) GetDetail(ctx context.Context, id uuid.UUID) (*triage.Detail, error) {
	v, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &triage.Detail{Visit: *v}, nil
}

func (m *mockVisitRepo) ListCashierPending(ctx context.Context, start, end time.Time) ([]*triage.QueueEntry, error) {
	return nil, nil
}

func (m *mockVisitRepo) ListDoctorQueue(ctx context.Context, start, end time.Time) ([]*triage.QueueEntry, error) {
	return nil, nil
}

func (m *mockVisitRepo) ListDoctorWaiting(ctx context.Context, start, end time.Time) ([]*triage.QueueEntry, error) {
	return nil, nil
}

func (m *mockVisitRepo) ListNurseRecent(ctx context.Context, nurseID uuid.UUID, start, end time.Time) ([]*triage.QueueEntry, error) {
	return nil, nil
}

func newTestService() (*Service, *mockNoteRepo, *mockVisitRepo, *recordPub) {
	notes := newMockNoteRepo()
	visits := newMockVisitRepo()
	pub := &recordPub{}
	loc, _ := time.LoadLocation("America/Merida")
	return NewService(notes, visits, &lockRunner{}, pub, loc), notes, visits, pub
}

func seedVisit(visits *mockVisitRepo, paid string) uuid.UUID {
	v := &triage.Visit{
		TriageAt: time.Now().UTC(), Reason: "r",
		Appearance: triage.SeverityYellow, Breathing: triage.SeverityGreen,
		Circulation: triage.SeverityGreen, Classification: triage.SeverityYellow,
		PaidStatus: paid, NurseID: uuid.New(), PatientID: uuid.New(),
	}
	visits.Create(context.Background(), v)
	return v.ID
}

func TestClaimRequiresPayment(t *testing.T) {
	svc, _, visits, pub := newTestService()
	visitID := seedVisit(visits, triage.PaidPending)

	_, err := svc.Claim(context.Background(), uuid.New(), visitID)
	if !apperr.IsKind(err, apperr.Precondition) {
		t.Errorf("expected precondition error for unpaid visit, got %v", err)
	}
	if len(pub.published()) != 0 {
		t.Error("failed claim must not publish events")
	}
}

func TestClaimStartsConsultation(t *testing.T) {
	svc, notes, visits, pub := newTestService()
	visitID := seedVisit(visits, triage.PaidPaid)
	doctorID := uuid.New()

	note, err := svc.Claim(context.Background(), doctorID, visitID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if note.DoctorID != doctorID {
		t.Error("note not owned by claiming doctor")
	}
	if note.StartedAt == nil {
		t.Error("claim must stamp the start time")
	}
	if notes.byVisit[visitID] == nil {
		t.Error("note not persisted")
	}
	if got := pub.published(); len(got) != 1 || got[0] != "consultation:started" {
		t.Errorf("published %v, want [consultation:started]", got)
	}
}

func TestClaimIsStableForSameDoctor(t *testing.T) {
	svc, _, visits, pub := newTestService()
	visitID := seedVisit(visits, triage.PaidPaid)
	doctorID := uuid.New()

	first, err := svc.Claim(context.Background(), doctorID, visitID)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	second, err := svc.Claim(context.Background(), doctorID, visitID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if !first.StartedAt.Equal(*second.StartedAt) {
		t.Error("re-claim must keep the original start time")
	}
	if got := pub.published(); len(got) != 1 {
		t.Errorf("re-claim must not publish again, got %v", got)
	}
}

func TestClaimRejectsSecondDoctor(t *testing.T) {
	svc, _, visits, _ := newTestService()
	visitID := seedVisit(visits, triage.PaidPaid)

	if _, err := svc.Claim(context.Background(), uuid.New(), visitID); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := svc.Claim(context.Background(), uuid.New(), visitID)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict for second doctor, got %v", err)
	}
}

// Two doctors race for the same patient: exactly one must win and the
// other must see a conflict.
func TestClaimConcurrentExactlyOneWinner(t *testing.T) {
	svc, notes, visits, _ := newTestService()
	visitID := seedVisit(visits, triage.PaidPaid)
	doctorA, doctorB := uuid.New(), uuid.New()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{doctorA, doctorB} {
		wg.Add(1)
		go func(doctorID uuid.UUID) {
			defer wg.Done()
			_, err := svc.Claim(context.Background(), doctorID, visitID)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case apperr.IsKind(err, apperr.Conflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d; want exactly one of each", wins, conflicts)
	}

	note := notes.byVisit[visitID]
	if note == nil || note.StartedAt == nil {
		t.Fatal("winner's note missing")
	}
	if note.DoctorID != doctorA && note.DoctorID != doctorB {
		t.Error("note owned by neither doctor")
	}
}

func TestUpdateNotePartialMerge(t *testing.T) {
	svc, _, visits, _ := newTestService()
	visitID := seedVisit(visits, triage.PaidPaid)
	doctorID := uuid.New()

	if _, err := svc.Claim(context.Background(), doctorID, visitID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	diag := "faringitis aguda"
	first, err := svc.UpdateNote(context.Background(), doctorID, visitID, NoteInput{
		Diagnosis: &diag,
		WatchFor:  &WatchFor{Fever: true, FrequentVomiting: true},
	})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Diagnosis != diag || !first.WatchFor.Fever {
		t.Error("first update not applied")
	}

	plan := "paracetamol 15mg/kg"
	second, err := svc.UpdateNote(context.Background(), doctorID, visitID, NoteInput{TreatmentPlan: &plan})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if second.Diagnosis != diag {
		t.Error("untouched field must be kept")
	}
	if !second.WatchFor.FrequentVomiting {
		t.Error("untouched checklist must be kept")
	}
	if second.TreatmentPlan != plan {
		t.Error("second update not applied")
	}
	if second.StartedAt == nil || second.FinishedAt != nil {
		t.Error("note edits must not touch the consultation stamps")
	}
}

func TestUpdateNoteOwnerOnly(t *testing.T) {
	svc, _, visits, _ := newTestService()
	visitID := seedVisit(visits, triage.PaidPaid)

	if _, err := svc.Claim(context.Background(), uuid.New(), visitID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	diag := "otitis"
	_, err := svc.UpdateNote(context.Background(), uuid.New(), visitID, NoteInput{Diagnosis: &diag})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict for non-owner, got %v", err)
	}
}

func TestFinishTerminal(t *testing.T) {
	svc, _, visits, pub := newTestService()
	visitID := seedVisit(visits, triage.PaidPaid)
	doctorID := uuid.New()

	if _, err := svc.Claim(context.Background(), doctorID, visitID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	first, err := svc.Finish(context.Background(), doctorID, visitID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if first.FinishedAt == nil {
		t.Fatal("finish must stamp the end time")
	}

	second, err := svc.Finish(context.Background(), doctorID, visitID)
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if !second.FinishedAt.Equal(*first.FinishedAt) {
		t.Error("second finish must keep the original timestamp")
	}

	diag := "tardy edit"
	if _, err := svc.UpdateNote(context.Background(), doctorID, visitID, NoteInput{Diagnosis: &diag}); !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict editing a finished note, got %v", err)
	}

	got := pub.published()
	var finishes int
	for _, k := range got {
		if k == "consultation:finished" {
			finishes++
		}
	}
	if finishes != 1 {
		t.Errorf("expected one consultation:finished event, got %v", got)
	}
}

func TestFinishOwnerOnly(t *testing.T) {
	svc, _, visits, _ := newTestService()
	visitID := seedVisit(visits, triage.PaidPaid)

	if _, err := svc.Claim(context.Background(), uuid.New(), visitID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	_, err := svc.Finish(context.Background(), uuid.New(), visitID)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict for non-owner, got %v", err)
	}
}
