package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	emailAdapter "casework/internal/adapters/email"
	"casework/internal/adapters/media"
	"casework/internal/domain/audit"
	"casework/internal/domain/incident"
	"casework/internal/domain/injurycase"
	"casework/internal/domain/notification"
	"casework/internal/domain/outbox"
	"casework/internal/domain/team"
	"casework/internal/domain/worker"
)

var fixedTime = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// sequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

var errUnavailable = errors.New("dependency unavailable")

// mockCaseStore implements CaseStore over a map.
type mockCaseStore struct {
	cases     map[string]injurycase.Case
	createErr error
	updateErr error
	findErr   error
	creates   int
	updates   int
}

func newMockCaseStore(cases ...injurycase.Case) *mockCaseStore {
	m := &mockCaseStore{cases: make(map[string]injurycase.Case)}
	for _, c := range cases {
		m.cases[c.ID] = c
	}
	return m
}

func (m *mockCaseStore) FindOpenBySubject(_ context.Context, subjectID string, statusNotIn []injurycase.Status) (injurycase.Case, bool, error) {
	if m.findErr != nil {
		return injurycase.Case{}, false, m.findErr
	}
	for _, c := range m.cases {
		if c.SubjectID != subjectID {
			continue
		}
		excluded := false
		for _, s := range statusNotIn {
			if c.Status() == s {
				excluded = true
			}
		}
		if !excluded {
			return c, true, nil
		}
	}
	return injurycase.Case{}, false, nil
}

func (m *mockCaseStore) Create(_ context.Context, c injurycase.Case) (injurycase.Case, error) {
	if m.createErr != nil {
		return injurycase.Case{}, m.createErr
	}
	m.creates++
	m.cases[c.ID] = c
	return c, nil
}

func (m *mockCaseStore) GetByID(_ context.Context, id string) (injurycase.Case, error) {
	c, ok := m.cases[id]
	if !ok {
		return injurycase.Case{}, injurycase.ErrNotFound
	}
	return c, nil
}

func (m *mockCaseStore) UpdateStatus(_ context.Context, id string, status injurycase.Status, a injurycase.Annotation) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	c, ok := m.cases[id]
	if !ok {
		return injurycase.ErrNotFound
	}
	m.updates++
	c.Annotation = a
	c.LegacyStatus = injurycase.CoarseStatus(status)
	m.cases[id] = c
	return nil
}

// mockIncidentStore implements IncidentStore.
type mockIncidentStore struct {
	saved []incident.Incident
	err   error
}

func (m *mockIncidentStore) Create(_ context.Context, i incident.Incident) (incident.Incident, error) {
	if m.err != nil {
		return incident.Incident{}, m.err
	}
	m.saved = append(m.saved, i)
	return i, nil
}

// mockTeamDirectory implements TeamDirectory.
type mockTeamDirectory struct {
	routes map[string]team.Routing
	err    error
}

func (m *mockTeamDirectory) ResolveTeam(_ context.Context, subjectID string) (team.Routing, error) {
	if m.err != nil {
		return team.Routing{}, m.err
	}
	r, ok := m.routes[subjectID]
	if !ok {
		return team.Routing{}, team.ErrNoTeam
	}
	return r, nil
}

// mockScheduleRegistry implements ScheduleRegistry.
type mockScheduleRegistry struct {
	active map[string]int
	err    error
	calls  int
}

func (m *mockScheduleRegistry) DeactivateAll(_ context.Context, subjectID string, _ time.Time) (int, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	n := m.active[subjectID]
	m.active[subjectID] = 0
	return n, nil
}

// mockMediaStore implements media.Store.
type mockMediaStore struct {
	objects []media.Object
	err     error
}

func (m *mockMediaStore) Put(_ context.Context, obj media.Object) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.objects = append(m.objects, obj)
	return fmt.Sprintf("blake2b:obj%d", len(m.objects)), nil
}

// mockSink implements notify.Sink. failFor lists recipients whose enqueue fails;
// failAll makes every call fail.
type mockSink struct {
	sent    []notification.Notification
	failFor map[string]bool
	failAll bool
	calls   int
}

func (m *mockSink) Enqueue(_ context.Context, n notification.Notification) error {
	m.calls++
	if m.failAll || m.failFor[n.RecipientID] {
		return errUnavailable
	}
	m.sent = append(m.sent, n)
	return nil
}

// mockRehabOracle implements RehabPlanOracle.
type mockRehabOracle struct {
	active map[string]bool
	err    error
}

func (m *mockRehabOracle) HasActivePlan(_ context.Context, caseID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.active[caseID], nil
}

// mockAuditRecorder implements AuditRecorder.
type mockAuditRecorder struct {
	events []audit.Event
	err    error
}

func (m *mockAuditRecorder) Save(_ context.Context, e audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

// mockWorkerDirectory implements WorkerDirectory.
type mockWorkerDirectory struct {
	workers map[string]worker.Worker
}

func (m *mockWorkerDirectory) GetByID(_ context.Context, id string) (worker.Worker, error) {
	w, ok := m.workers[id]
	if !ok {
		return worker.Worker{}, worker.ErrNotFound
	}
	return w, nil
}

// mockOutboxStore implements the outbox Store over a map, preserving insertion order.
type mockOutboxStore struct {
	entries map[string]outbox.Entry
	order   []string
}

func newMockOutboxStore(entries ...outbox.Entry) *mockOutboxStore {
	m := &mockOutboxStore{entries: make(map[string]outbox.Entry)}
	for _, e := range entries {
		_ = m.Save(context.Background(), e)
	}
	return m
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, outbox.ErrNotFound
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockOutboxStore) ListFailed(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, id := range m.order {
		if e := m.entries[id]; e.Status == outbox.StatusFailed && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

// mockSender implements email.Sender.
type mockSender struct {
	sent []emailAdapter.SendRequest
	err  error
}

func (m *mockSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	if m.err != nil {
		return emailAdapter.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return emailAdapter.SendResult{MessageID: fmt.Sprintf("msg-%d", len(m.sent)), SentAt: fixedTime}, nil
}
