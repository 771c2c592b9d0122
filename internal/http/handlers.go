package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"moneta/internal/core"
	"moneta/internal/ledger"
	applog "moneta/internal/log"
	"moneta/internal/platform"
	"moneta/internal/session"
	"moneta/internal/views"
)

type createTransactionRequest struct {
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	CategoryID  int64  `json:"categoryId"`
	BudgetID    int64  `json:"budgetId"`
	GoalID      int64  `json:"goalId,omitempty"`
	AccountUUID string `json:"accountUuid,omitempty"`
}

type transactionDTO struct {
	ID          int64  `json:"id"`
	UUID        string `json:"uuid"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
	Budget      string `json:"budget,omitempty"`
}

type createTransactionResponse struct {
	Status             string         `json:"status"`
	Transaction        transactionDTO `json:"transaction"`
	BudgetCurrentCents int64          `json:"budgetCurrentCents"`
	Goal               *goalDTO       `json:"goal,omitempty"`
}

type partialResponse struct {
	Status      string         `json:"status"`
	Stage       string         `json:"stage"`
	Error       string         `json:"error"`
	Transaction transactionDTO `json:"transaction"`
}

type budgetDTO struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	AmountCents    int64    `json:"amountCents"`
	CurrentCents   int64    `json:"currentCents"`
	RemainingCents int64    `json:"remainingCents"`
	Over           bool     `json:"over"`
	Shared         bool     `json:"shared"`
	SharedWith     []string `json:"sharedWith,omitempty"`
}

type goalDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	TargetCents  int64   `json:"targetCents"`
	CurrentCents int64   `json:"currentCents"`
	Progress     float64 `json:"progress"`
	Deadline     string  `json:"deadline,omitempty"`
}

type recurringDTO struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amountCents"`
	Next        string `json:"next,omitempty"`
}

type reportDTO struct {
	Year          int              `json:"year"`
	Month         int              `json:"month"`
	IncomeCents   int64            `json:"incomeCents"`
	ExpensesCents int64            `json:"expensesCents"`
	NetCents      int64            `json:"netCents"`
	ByCategory    []categoryAmount `json:"byCategory"`
}

type categoryAmount struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amountCents"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseAmountToCents(req.Amount)
	if err != nil {
		writeFieldError(w, http.StatusUnprocessableEntity, "invalid amount", "amount")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeFieldError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD", "date")
		return
	}

	account, err := s.resolveAccount(req.AccountUUID)
	if err != nil {
		writeFieldError(w, http.StatusUnprocessableEntity, err.Error(), "accountUuid")
		return
	}

	snap, err := s.snapshot(ctx, false)
	if err != nil {
		s.writeBackendError(w, logger, err)
		return
	}

	input := ledger.Input{
		AccountUUID: account,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		BudgetID:    req.BudgetID,
		GoalID:      req.GoalID,
	}

	result, err := s.recorder.Record(ctx, input, snap.Lookup())
	if err != nil {
		s.invalidateSnapshot()
		s.writeRecordError(w, logger, err)
		return
	}

	s.invalidateSnapshot()

	resp := createTransactionResponse{
		Status:             "committed",
		Transaction:        toTransactionDTO(result.Transaction, snap),
		BudgetCurrentCents: result.Budget.CurrentAmount.Cents,
	}
	if result.Goal != nil {
		g := toGoalDTO(*result.Goal)
		resp.Goal = &g
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) resolveAccount(raw string) (uuid.UUID, error) {
	if raw != "" {
		account, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, errors.New("invalid account uuid")
		}
		return account, nil
	}

	sess, err := s.sessions.Current()
	if err != nil {
		return uuid.Nil, errors.New("no account selected and no session")
	}
	if len(sess.AccountUUIDs) == 0 {
		return uuid.Nil, errors.New("no account selected")
	}
	return sess.AccountUUIDs[0], nil
}

// writeRecordError maps write-path failures onto the response: local
// rejections are 422, an expired session is 401, a write that committed
// its earlier stages is reported distinctly from a full failure.
func (s *Server) writeRecordError(w http.ResponseWriter, logger *applog.Logger, err error) {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		writeFieldError(w, http.StatusUnprocessableEntity, verr.Error(), verr.Field)
		return
	}

	var perr *ledger.PartialError
	if errors.As(err, &perr) {
		logger.Warn("Write committed partially",
			applog.FieldStage, string(perr.Stage),
			applog.FieldError, perr.Err.Error())
		writeJSON(w, http.StatusMultiStatus, partialResponse{
			Status:      "partial",
			Stage:       string(perr.Stage),
			Error:       perr.Error(),
			Transaction: toTransactionDTO(perr.Transaction, nil),
		})
		return
	}

	s.writeBackendError(w, logger, err)
}

func (s *Server) writeBackendError(w http.ResponseWriter, logger *applog.Logger, err error) {
	if errors.Is(err, platform.ErrAuthExpired) || errors.Is(err, session.ErrNoSession) {
		writeError(w, http.StatusUnauthorized, "session expired, log in again")
		return
	}

	var apiErr *platform.APIError
	if errors.As(err, &apiErr) {
		logger.Error("Backend call failed",
			applog.FieldEndpoint, apiErr.Endpoint,
			applog.FieldStatusCode, apiErr.Status,
			applog.FieldError, apiErr.Message)
		writeError(w, http.StatusBadGateway, apiErr.Error())
		return
	}

	logger.Error("Request failed", applog.FieldError, err.Error())
	writeError(w, http.StatusInternalServerError, err.Error())
}

func wantRefresh(r *http.Request) bool {
	return r.URL.Query().Get("refresh") == "true"
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	snap, err := s.snapshot(r.Context(), wantRefresh(r))
	if err != nil {
		s.writeBackendError(w, logger, err)
		return
	}

	rows := snap.TransactionRows()
	if q := r.URL.Query().Get("q"); q != "" {
		rows = views.FilterByDescription(rows, q)
	}
	if category := r.URL.Query().Get("category"); category != "" {
		rows = views.FilterByCategory(rows, category)
	}

	out := make([]transactionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, transactionDTO{
			ID:          row.Transaction.ID,
			UUID:        row.Transaction.UUID.String(),
			Date:        row.Transaction.Date.String(),
			Description: row.Transaction.Description,
			AmountCents: row.Transaction.Amount.Cents,
			Amount:      row.Transaction.Amount.String(),
			Category:    row.Category,
			Budget:      row.Budget,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	snap, err := s.snapshot(r.Context(), wantRefresh(r))
	if err != nil {
		s.writeBackendError(w, logger, err)
		return
	}

	rows := snap.BudgetRows()
	switch r.URL.Query().Get("status") {
	case "over":
		rows, _ = views.PartitionBudgets(rows)
	case "under":
		_, rows = views.PartitionBudgets(rows)
	}

	out := make([]budgetDTO, 0, len(rows))
	for _, row := range rows {
		dto := budgetDTO{
			ID:             row.Budget.ID,
			Name:           row.Budget.Name,
			Category:       row.Category,
			AmountCents:    row.Budget.Amount.Cents,
			CurrentCents:   row.Budget.CurrentAmount.Cents,
			RemainingCents: row.Remaining.Cents,
			Over:           row.Over,
			Shared:         row.Budget.Shared,
		}
		for _, user := range row.SharedWith {
			dto.SharedWith = append(dto.SharedWith, user.String())
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	snap, err := s.snapshot(r.Context(), wantRefresh(r))
	if err != nil {
		s.writeBackendError(w, logger, err)
		return
	}

	rows := snap.GoalRows()
	out := make([]goalDTO, 0, len(rows))
	for _, row := range rows {
		dto := toGoalDTO(row.Goal)
		dto.Progress = row.Progress
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	snap, err := s.snapshot(r.Context(), wantRefresh(r))
	if err != nil {
		s.writeBackendError(w, logger, err)
		return
	}

	rows := snap.RecurringRows(time.Now())
	if freq := r.URL.Query().Get("frequency"); freq != "" {
		rows = views.FilterByFrequency(rows, core.Frequency(freq))
	}

	out := make([]recurringDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, recurringDTO{
			ID:          row.Rule.ID,
			Description: row.Rule.Description,
			Frequency:   string(row.Rule.Frequency),
			Category:    row.Category,
			AmountCents: row.Rule.Amount.Cents,
			Next:        row.Next,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeFieldError(w, http.StatusBadRequest, "invalid year", "year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		writeFieldError(w, http.StatusBadRequest, "invalid month, want 1-12", "month")
		return
	}

	snap, err := s.snapshot(r.Context(), wantRefresh(r))
	if err != nil {
		s.writeBackendError(w, logger, err)
		return
	}

	report := snap.MonthlyReport(year, month)
	dto := reportDTO{
		Year:          report.Year,
		Month:         report.Month,
		IncomeCents:   report.Income.Cents,
		ExpensesCents: report.Expenses.Cents,
		NetCents:      report.Net.Cents,
		ByCategory:    make([]categoryAmount, 0, len(report.ByCategory)),
	}
	for _, entry := range report.ByCategory {
		dto.ByCategory = append(dto.ByCategory, categoryAmount{
			Category:    entry.Name,
			AmountCents: entry.Amount.Cents,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

func toTransactionDTO(tx core.Transaction, snap *views.Snapshot) transactionDTO {
	dto := transactionDTO{
		ID:          tx.ID,
		UUID:        tx.UUID.String(),
		Date:        tx.Date.String(),
		Description: tx.Description,
		AmountCents: tx.Amount.Cents,
		Amount:      tx.Amount.String(),
	}
	if snap != nil {
		if category, ok := snap.CategoryByID()[tx.CategoryID]; ok {
			dto.Category = category.Name
		}
		if budget, ok := snap.BudgetByID()[tx.BudgetID]; ok {
			dto.Budget = budget.Name
		}
	}
	return dto
}

func toGoalDTO(goal core.FinancialGoal) goalDTO {
	dto := goalDTO{
		ID:           goal.ID,
		Name:         goal.Name,
		Status:       string(goal.Status),
		TargetCents:  goal.TargetAmount.Cents,
		CurrentCents: goal.CurrAmount.Cents,
		Deadline:     goal.Deadline.String(),
	}
	if goal.TargetAmount.Cents > 0 {
		dto.Progress = float64(goal.CurrAmount.Cents) / float64(goal.TargetAmount.Cents)
		if dto.Progress > 1 {
			dto.Progress = 1
		}
	}
	return dto
}
