package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/notify"
)

const emailLogColumns = "id, kind, recipient, subject, transport, status, error, created_at"

type emailLogRow struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Recipient string    `db:"recipient"`
	Subject   string    `db:"subject"`
	Transport string    `db:"transport"`
	Status    string    `db:"status"`
	Error     string    `db:"error"`
	CreatedAt time.Time `db:"created_at"`
}

// EmailLog is a persisted delivery outcome.
type EmailLog struct {
	ID        string
	Kind      string
	Recipient string
	Subject   string
	Transport string
	Status    notify.Status
	Error     string
	CreatedAt time.Time
}

type EmailLogRepository struct {
	exec core.DBExecutor
}

var _ notify.DeliveryLog = (*EmailLogRepository)(nil) // interface compliance check

func NewEmailLogRepository(exec core.DBExecutor) *EmailLogRepository {
	return &EmailLogRepository{exec: exec}
}

// RecordDelivery inserts one email_logs row per outcome.
func (repo *EmailLogRepository) RecordDelivery(ctx context.Context, outcome notify.Outcome) error {
	row := emailLogRow{
		ID:        uuid.NewString(),
		Kind:      outcome.Kind,
		Recipient: outcome.To,
		Subject:   outcome.Subject,
		Transport: outcome.Transport,
		Status:    string(outcome.Status),
		CreatedAt: outcome.At.UTC(),
	}
	if outcome.Err != nil {
		row.Error = outcome.Err.Error()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	q := "INSERT INTO email_logs (" + emailLogColumns + ") VALUES (" + namedParams(emailLogColumns) + ")"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return wrapErr(err, "inserting email log")
	}
	return nil
}

// Recent returns the latest `limit` logs, newest first.
func (repo *EmailLogRepository) Recent(ctx context.Context, limit int) ([]EmailLog, error) {
	var rows []emailLogRow
	q := repo.exec.Rebind("SELECT " + emailLogColumns + " FROM email_logs ORDER BY created_at DESC, id LIMIT ?")
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, limit); err != nil {
		return nil, wrapErr(err, "querying email logs")
	}
	logs := make([]EmailLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, EmailLog{
			ID:        r.ID,
			Kind:      r.Kind,
			Recipient: r.Recipient,
			Subject:   r.Subject,
			Transport: r.Transport,
			Status:    notify.Status(r.Status),
			Error:     r.Error,
			CreatedAt: r.CreatedAt.UTC(),
		})
	}
	return logs, nil
}
