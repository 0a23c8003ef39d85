package reminders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAccount/mail"
)

const releaseTimeout = 5 * time.Second

// Loan is an outstanding loan joined with its borrower.
type Loan struct {
	ID            string
	AccountID     string
	Title         string
	DueDate       time.Time
	BorrowerName  string
	BorrowerEmail string
}

// Store finds and claims overdue loans.
type Store interface {
	// ListOverdue returns unreturned, unnotified loans due before cutoff.
	ListOverdue(ctx context.Context, cutoff time.Time) ([]Loan, error)
	// MarkNotified sets the notified flag only if it is still clear and
	// reports whether this caller won the claim.
	MarkNotified(ctx context.Context, loanID string) (bool, error)
	ClearNotified(ctx context.Context, loanID string) error
}

type Config struct {
	AppName  string
	Interval time.Duration
	Grace    time.Duration
}

func DefaultConfig() Config {
	return Config{
		AppName:  "Bookworm Library",
		Interval: 30 * time.Minute,
		Grace:    24 * time.Hour,
	}
}

// Result counts the outcome of one scan.
type Result struct {
	Notified int
	Failed   int
	Skipped  int
}

type Job struct {
	config Config
	store  Store
	sender mail.Sender
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Job)

func WithLogger(logger *slog.Logger) Option {
	return func(j *Job) { j.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(j *Job) { j.now = now }
}

func NewJob(store Store, sender mail.Sender, cfg Config, opts ...Option) (*Job, error) {
	if store == nil || sender == nil {
		return nil, errors.New("reminders: store and sender required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("reminders: interval must be > 0")
	}
	if cfg.Grace < 0 {
		return nil, errors.New("reminders: grace must be >= 0")
	}

	j := &Job{config: cfg, store: store, sender: sender, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Run scans every Interval until ctx is cancelled. Scan errors are logged
// and the loop continues.
func (j *Job) Run(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := j.RunOnce(ctx)
			if err != nil {
				j.logger.ErrorContext(ctx, "overdue scan failed", "error", err)
				continue
			}
			if res.Notified > 0 || res.Failed > 0 {
				j.logger.InfoContext(ctx, "overdue scan finished",
					"notified", res.Notified,
					"failed", res.Failed,
					"skipped", res.Skipped)
			}
		}
	}
}

// RunOnce performs a single scan.
func (j *Job) RunOnce(ctx context.Context) (Result, error) {
	var res Result

	loans, err := j.store.ListOverdue(ctx, j.now().Add(-j.config.Grace))
	if err != nil {
		return res, err
	}

	for _, loan := range loans {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if loan.BorrowerEmail == "" {
			res.Skipped++
			continue
		}

		claimed, err := j.store.MarkNotified(ctx, loan.ID)
		if err != nil {
			j.logger.WarnContext(ctx, "claim overdue loan failed", "loan_id", loan.ID, "error", err)
			res.Failed++
			continue
		}
		if !claimed {
			res.Skipped++
			continue
		}

		if err := j.notify(ctx, loan); err != nil {
			j.logger.WarnContext(ctx, "overdue reminder not delivered", "loan_id", loan.ID, "error", err)
			if clearErr := j.release(ctx, loan.ID); clearErr != nil {
				j.logger.ErrorContext(ctx, "release overdue claim failed", "loan_id", loan.ID, "error", clearErr)
			}
			res.Failed++
			continue
		}
		res.Notified++
	}
	return res, nil
}

// release drops the claim on loanID so a later scan retries it. It outlives
// ctx so a scan interrupted by shutdown does not strand the claim.
func (j *Job) release(ctx context.Context, loanID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	return j.store.ClearNotified(ctx, loanID)
}

func (j *Job) notify(ctx context.Context, loan Loan) error {
	subject, body, err := mail.RenderOverdueReminder(mail.ReminderData{
		AppName: j.config.AppName,
		Name:    loan.BorrowerName,
		DueDate: loan.DueDate,
	})
	if err != nil {
		return err
	}
	return j.sender.Send(ctx, loan.BorrowerEmail, subject, body)
}
