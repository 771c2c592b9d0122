package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"moneta/internal/core"
	"moneta/internal/ledger"
	applog "moneta/internal/log"
	"moneta/internal/session"
	"moneta/internal/views"
)

type fakeRecorder struct {
	result ledger.Result
	err    error
	calls  int
}

func (f *fakeRecorder) Record(ctx context.Context, input ledger.Input, lookup ledger.Lookup) (ledger.Result, error) {
	f.calls++
	if f.err != nil {
		return ledger.Result{}, f.err
	}
	return f.result, nil
}

type fakeLoader struct {
	snap  *views.Snapshot
	err   error
	calls int
}

func (f *fakeLoader) Load(ctx context.Context, userUUID uuid.UUID, accountUUIDs []uuid.UUID) (*views.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type fakeStore struct {
	saved *views.Snapshot
	snap  *views.Snapshot
}

func (f *fakeStore) SaveSnapshot(ctx context.Context, snap *views.Snapshot) error {
	f.saved = snap
	return nil
}

func (f *fakeStore) LoadSnapshot(ctx context.Context) (*views.Snapshot, error) {
	if f.snap == nil {
		return nil, errors.New("no snapshot stored")
	}
	return f.snap, nil
}

func testSnapshot() *views.Snapshot {
	return &views.Snapshot{
		FetchedAt: time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
		Categories: []core.Category{
			{ID: 1, Name: "Groceries", Type: core.CategoryExpense},
			{ID: 2, Name: "Save", Type: core.CategoryExpense},
		},
		Budgets: []core.Budget{
			{ID: 5, Name: "Food", Amount: core.Money{Cents: 40000}, CurrentAmount: core.Money{Cents: 12045}, CategoryID: 1},
		},
		Goals: []core.FinancialGoal{
			{ID: 3, Name: "Vacation", TargetAmount: core.Money{Cents: 80000}, CurrAmount: core.Money{Cents: 20000}, Status: core.GoalActive},
		},
		BudgetUsers: map[int64][]uuid.UUID{},
	}
}

func newTestServer(t *testing.T, recorder Recorder, loader SnapshotLoader, store SnapshotStore) *Server {
	t.Helper()

	sessions := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err := sessions.Save(session.Session{
		UserUUID:     uuid.New(),
		AccountUUIDs: []uuid.UUID{uuid.New()},
		AccessToken:  "token",
		RefreshToken: "refresh",
	}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	logger := applog.New(applog.DefaultConfig())
	s := NewServer(":0", logger, sessions, recorder, loader, store)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &fakeRecorder{}, &fakeLoader{snap: testSnapshot()}, nil)

	if rec := do(s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rec.Code)
	}
}

func TestReadyWithoutSession(t *testing.T) {
	sessions := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	logger := applog.New(applog.DefaultConfig())
	s := NewServer(":0", logger, sessions, &fakeRecorder{}, &fakeLoader{snap: testSnapshot()}, nil)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	if rec := do(s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", rec.Code)
	}
}

func TestCreateTransaction(t *testing.T) {
	recorder := &fakeRecorder{
		result: ledger.Result{
			Transaction: core.Transaction{ID: 10, UUID: uuid.New(), Amount: core.Money{Cents: -12045}, Date: core.NewDate(2023, 6, 14), Description: "weekly shop", CategoryID: 1, BudgetID: 5},
			Budget:      core.Budget{ID: 5, CurrentAmount: core.Money{Cents: 24090}},
		},
	}
	s := newTestServer(t, recorder, &fakeLoader{snap: testSnapshot()}, nil)

	body := `{"amount":"-120.45","date":"2023-06-14","description":"weekly shop","categoryId":1,"budgetId":5}`
	rec := do(s, http.MethodPost, "/transactions", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	if recorder.calls != 1 {
		t.Errorf("recorder calls = %d, want 1", recorder.calls)
	}

	var resp createTransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "committed" {
		t.Errorf("status = %q, want committed", resp.Status)
	}
	if resp.BudgetCurrentCents != 24090 {
		t.Errorf("budgetCurrentCents = %d, want 24090", resp.BudgetCurrentCents)
	}
	if resp.Transaction.Category != "Groceries" {
		t.Errorf("category = %q, want Groceries", resp.Transaction.Category)
	}
}

func TestCreateTransactionBadAmount(t *testing.T) {
	recorder := &fakeRecorder{}
	s := newTestServer(t, recorder, &fakeLoader{snap: testSnapshot()}, nil)

	rec := do(s, http.MethodPost, "/transactions", `{"amount":"abc","date":"2023-06-14","description":"x","categoryId":1,"budgetId":5}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if recorder.calls != 0 {
		t.Errorf("recorder calls = %d, want 0", recorder.calls)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Field != "amount" {
		t.Errorf("field = %q, want amount", resp.Field)
	}
}

func TestCreateTransactionValidationError(t *testing.T) {
	recorder := &fakeRecorder{err: &ledger.ValidationError{Field: "budget", Reason: "no budget selected"}}
	s := newTestServer(t, recorder, &fakeLoader{snap: testSnapshot()}, nil)

	rec := do(s, http.MethodPost, "/transactions", `{"amount":"-10.00","date":"2023-06-14","description":"x","categoryId":1}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Field != "budget" {
		t.Errorf("field = %q, want budget", resp.Field)
	}
}

func TestCreateTransactionPartialFailure(t *testing.T) {
	committed := core.Transaction{ID: 10, UUID: uuid.New(), Amount: core.Money{Cents: -12045}, Date: core.NewDate(2023, 6, 14), Description: "weekly shop"}
	recorder := &fakeRecorder{err: &ledger.PartialError{
		Stage:       ledger.StageBudget,
		Transaction: committed,
		Err:         errors.New("backend returned 500"),
	}}
	s := newTestServer(t, recorder, &fakeLoader{snap: testSnapshot()}, nil)

	rec := do(s, http.MethodPost, "/transactions", `{"amount":"-120.45","date":"2023-06-14","description":"weekly shop","categoryId":1,"budgetId":5}`)

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body %s", rec.Code, rec.Body.String())
	}
	var resp partialResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "partial" {
		t.Errorf("status = %q, want partial", resp.Status)
	}
	if resp.Stage != string(ledger.StageBudget) {
		t.Errorf("stage = %q, want %q", resp.Stage, ledger.StageBudget)
	}
	if resp.Transaction.UUID != committed.UUID.String() {
		t.Errorf("transaction uuid = %q, want %q", resp.Transaction.UUID, committed.UUID)
	}
}

func TestViewsBudgets(t *testing.T) {
	s := newTestServer(t, &fakeRecorder{}, &fakeLoader{snap: testSnapshot()}, nil)

	rec := do(s, http.MethodGet, "/views/budgets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var rows []budgetDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Category != "Groceries" {
		t.Errorf("category = %q, want Groceries", rows[0].Category)
	}
	if rows[0].RemainingCents != 27955 {
		t.Errorf("remainingCents = %d, want 27955", rows[0].RemainingCents)
	}
}

func TestSnapshotCaching(t *testing.T) {
	loader := &fakeLoader{snap: testSnapshot()}
	s := newTestServer(t, &fakeRecorder{}, loader, nil)

	do(s, http.MethodGet, "/views/budgets", "")
	do(s, http.MethodGet, "/views/goals", "")
	if loader.calls != 1 {
		t.Errorf("loader calls = %d, want 1 (second view served from cache)", loader.calls)
	}

	do(s, http.MethodGet, "/views/budgets?refresh=true", "")
	if loader.calls != 2 {
		t.Errorf("loader calls = %d, want 2 after forced refresh", loader.calls)
	}
}

func TestSnapshotStaleFallback(t *testing.T) {
	stale := testSnapshot()
	loader := &fakeLoader{err: errors.New("connection refused")}
	store := &fakeStore{snap: stale}
	s := newTestServer(t, &fakeRecorder{}, loader, store)

	rec := do(s, http.MethodGet, "/views/budgets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 from stale snapshot, body %s", rec.Code, rec.Body.String())
	}

	var rows []budgetDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want 1", len(rows))
	}
}

func TestSnapshotPersistedOnLoad(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, &fakeRecorder{}, &fakeLoader{snap: testSnapshot()}, store)

	do(s, http.MethodGet, "/views/budgets", "")
	if store.saved == nil {
		t.Error("snapshot was not persisted after a successful load")
	}
}

func TestReport(t *testing.T) {
	snap := testSnapshot()
	snap.Transactions = []core.Transaction{
		{ID: 1, UUID: uuid.New(), Amount: core.Money{Cents: 250000}, Date: core.NewDate(2023, 6, 1), Description: "salary", CategoryID: 2},
		{ID: 2, UUID: uuid.New(), Amount: core.Money{Cents: -12045}, Date: core.NewDate(2023, 6, 14), Description: "weekly shop", CategoryID: 1},
	}
	s := newTestServer(t, &fakeRecorder{}, &fakeLoader{snap: snap}, nil)

	rec := do(s, http.MethodGet, "/reports/2023/6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var report reportDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.IncomeCents != 250000 {
		t.Errorf("incomeCents = %d, want 250000", report.IncomeCents)
	}
	if report.ExpensesCents != -12045 {
		t.Errorf("expensesCents = %d, want -12045", report.ExpensesCents)
	}
	if report.NetCents != 237955 {
		t.Errorf("netCents = %d, want 237955", report.NetCents)
	}
}

func TestReportBadMonth(t *testing.T) {
	s := newTestServer(t, &fakeRecorder{}, &fakeLoader{snap: testSnapshot()}, nil)

	if rec := do(s, http.MethodGet, "/reports/2023/13", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
