package postgres

import (
	"context"
	"time"

	"github.com/MrEthical07/goAccount/reminders"
	"github.com/samber/oops"
)

// LoanStore implements reminders.Store over the loans table.
type LoanStore struct {
	db DB
}

func NewLoanStore(db DB) *LoanStore {
	return &LoanStore{db: db}
}

func (s *LoanStore) ListOverdue(ctx context.Context, cutoff time.Time) ([]reminders.Loan, error) {
	rows, err := s.db.Query(ctx, `SELECT l.id, l.account_id, l.title, l.due_date, a.name, a.email
		FROM loans l JOIN accounts a ON a.id = l.account_id
		WHERE l.due_date < $1 AND l.returned_at IS NULL AND NOT l.notified
		ORDER BY l.due_date, l.id`, cutoff)
	if err != nil {
		return nil, oops.Code("LOAN_QUERY_FAILED").With("operation", "list overdue loans").Wrap(err)
	}
	defer rows.Close()

	var out []reminders.Loan
	for rows.Next() {
		var l reminders.Loan
		if err := rows.Scan(&l.ID, &l.AccountID, &l.Title, &l.DueDate, &l.BorrowerName, &l.BorrowerEmail); err != nil {
			return nil, oops.Code("LOAN_QUERY_FAILED").With("operation", "scan overdue loan").Wrap(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("LOAN_QUERY_FAILED").With("operation", "iterate overdue loans").Wrap(err)
	}
	return out, nil
}

// MarkNotified claims the loan. Only one caller sees true for a given loan.
func (s *LoanStore) MarkNotified(ctx context.Context, loanID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE loans SET notified = TRUE WHERE id = $1 AND NOT notified`, loanID)
	if err != nil {
		return false, oops.Code("LOAN_UPDATE_FAILED").
			With("operation", "mark loan notified").
			With("loan_id", loanID).
			Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *LoanStore) ClearNotified(ctx context.Context, loanID string) error {
	_, err := s.db.Exec(ctx, `UPDATE loans SET notified = FALSE WHERE id = $1`, loanID)
	if err != nil {
		return oops.Code("LOAN_UPDATE_FAILED").
			With("operation", "clear loan notified").
			With("loan_id", loanID).
			Wrap(err)
	}
	return nil
}
