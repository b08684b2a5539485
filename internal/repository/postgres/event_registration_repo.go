package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventmanager/internal/domain"
)

const registrationColumns = `id, event_id, user_id, status, registered_at, updated_at`

const registrationDetailQuery = `
	SELECT er.id, er.event_id, er.user_id, er.status, er.registered_at, er.updated_at,
	       u.email, e.title, e.date
	FROM event_registrations er
	JOIN users u ON u.id = er.user_id
	JOIN events e ON e.id = er.event_id
`

func scanRegistration(row rowScanner) (*domain.EventRegistration, error) {
	reg := &domain.EventRegistration{}
	if err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.RegisteredAt, &reg.UpdatedAt); err != nil {
		return nil, err
	}
	return reg, nil
}

func scanRegistrationDetail(row rowScanner) (*domain.RegistrationDetail, error) {
	d := &domain.RegistrationDetail{}
	if err := row.Scan(&d.ID, &d.EventID, &d.UserID, &d.Status, &d.RegisteredAt, &d.UpdatedAt,
		&d.UserEmail, &d.EventTitle, &d.EventDate); err != nil {
		return nil, err
	}
	d.EventDate = d.EventDate.UTC()
	return d, nil
}

type eventRegistrationRepository struct {
	DB *sql.DB
}

func NewEventRegistrationRepository(db *sql.DB) domain.EventRegistrationRepository {
	return &eventRegistrationRepository{
		DB: db,
	}
}

func (r *eventRegistrationRepository) GetOrCreate(ctx context.Context, reg *domain.EventRegistration) (*domain.EventRegistration, bool, error) {
	query := `
		INSERT INTO event_registrations (event_id, user_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING ` + registrationColumns
	created, err := scanRegistration(conn(ctx, r.DB).QueryRowContext(ctx, query, reg.EventID, reg.UserID, reg.Status))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		switch pgErrorCode(err) {
		case pgForeignKeyViolation, pgInvalidTextRepresent:
			return nil, false, domain.ErrNotFound
		}
		return nil, false, err
	}
	// The pair already existed; the conflicting row was committed before our insert.
	existing, err := r.GetByEventAndUser(ctx, reg.EventID, reg.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *eventRegistrationRepository) Create(ctx context.Context, reg *domain.EventRegistration) error {
	query := `
		INSERT INTO event_registrations (event_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, registered_at, updated_at
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, reg.EventID, reg.UserID, reg.Status).
		Scan(&reg.ID, &reg.RegisteredAt, &reg.UpdatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return domain.ErrDuplicateRegistration
		case pgForeignKeyViolation, pgInvalidTextRepresent:
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *eventRegistrationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM event_registrations WHERE event_id = $1 AND user_id = $2`
	reg, err := scanRegistration(conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if isMissing(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *eventRegistrationRepository) GetDetailForUser(ctx context.Context, id, userID string) (*domain.RegistrationDetail, error) {
	query := registrationDetailQuery + ` WHERE er.id = $1 AND er.user_id = $2`
	d, err := scanRegistrationDetail(conn(ctx, r.DB).QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if isMissing(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *eventRegistrationRepository) ListDetailsByUserID(ctx context.Context, userID string) ([]*domain.RegistrationDetail, error) {
	query := registrationDetailQuery + ` WHERE er.user_id = $1 ORDER BY e.date ASC, er.id ASC`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.RegistrationDetail, 0)
	for rows.Next() {
		d, err := scanRegistrationDetail(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *eventRegistrationRepository) UpdateStatusForUser(ctx context.Context, id, userID string, status domain.RegistrationStatus) error {
	query := `
		UPDATE event_registrations SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, status, id, userID)
	if err != nil {
		if pgErrorCode(err) == pgInvalidTextRepresent {
			return domain.ErrNotFound
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRegistrationRepository) DeleteForUser(ctx context.Context, id, userID string) error {
	result, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM event_registrations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if pgErrorCode(err) == pgInvalidTextRepresent {
			return domain.ErrNotFound
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRegistrationRepository) ListRegistrantEmails(ctx context.Context, eventID string) ([]string, error) {
	query := `
		SELECT u.email
		FROM event_registrations er
		JOIN users u ON u.id = er.user_id
		WHERE er.event_id = $1
		ORDER BY u.email
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
