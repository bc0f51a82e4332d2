package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/subject"
)

const (
	domainColumns  = `id, name, website, creation_date, payment_period, expiration_date, base_cost, maintenance_fee, total_cost, created_at, updated_at`
	hostingColumns = `id, domain, provider, payment_type, includes_hosting, registration_date, base_cost, maintenance_fee, total_cost, created_at, updated_at`
)

type SQLSubjectRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLSubjectRepository(db *sql.DB, dialect Dialect) *SQLSubjectRepository {
	return &SQLSubjectRepository{db: db, dialect: dialect}
}

func (r *SQLSubjectRepository) CreateDomain(ctx context.Context, d *subject.Domain) error {
	stamp(&d.CreatedAt, &d.UpdatedAt)
	query := r.dialect.rebind(`INSERT INTO domains (` + domainColumns + `)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.Name, d.Website, expiry.Truncate(d.CreationDate), d.PaymentPeriod, expiry.Truncate(d.ExpirationDate),
		d.BaseCost, d.MaintenanceFee, d.TotalCost, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error creating domain: %w", err)
	}
	return nil
}

func (r *SQLSubjectRepository) GetDomain(ctx context.Context, id string) (*subject.Domain, error) {
	query := r.dialect.rebind(`SELECT ` + domainColumns + ` FROM domains WHERE id = ?`)
	d, err := scanDomain(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subject.ErrNotFound
		}
		return nil, fmt.Errorf("error getting domain by ID: %w", err)
	}
	return d, nil
}

func (r *SQLSubjectRepository) ListDomains(ctx context.Context) ([]*subject.Domain, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+domainColumns+` FROM domains ORDER BY expiration_date, name`)
	if err != nil {
		return nil, fmt.Errorf("error listing domains: %w", err)
	}
	defer rows.Close()

	var domains []*subject.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning domain row: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domain rows: %w", err)
	}
	return domains, nil
}

func (r *SQLSubjectRepository) DeleteDomain(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM domains WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("error deleting domain: %w", err)
	}
	return expectOneRow(res, subject.ErrNotFound)
}

func (r *SQLSubjectRepository) CreateHosting(ctx context.Context, h *subject.Hosting) error {
	stamp(&h.CreatedAt, &h.UpdatedAt)
	query := r.dialect.rebind(`INSERT INTO hostings (` + hostingColumns + `)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.Domain, h.Provider, h.PaymentType, h.IncludesHosting, expiry.Truncate(h.RegistrationDate),
		h.BaseCost, h.MaintenanceFee, h.TotalCost, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error creating hosting: %w", err)
	}
	return nil
}

func (r *SQLSubjectRepository) GetHosting(ctx context.Context, id string) (*subject.Hosting, error) {
	query := r.dialect.rebind(`SELECT ` + hostingColumns + ` FROM hostings WHERE id = ?`)
	h, err := scanHosting(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subject.ErrNotFound
		}
		return nil, fmt.Errorf("error getting hosting by ID: %w", err)
	}
	return h, nil
}

func (r *SQLSubjectRepository) ListHostings(ctx context.Context) ([]*subject.Hosting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+hostingColumns+` FROM hostings ORDER BY registration_date, domain`)
	if err != nil {
		return nil, fmt.Errorf("error listing hostings: %w", err)
	}
	defer rows.Close()

	var hostings []*subject.Hosting
	for rows.Next() {
		h, err := scanHosting(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning hosting row: %w", err)
		}
		hostings = append(hostings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hosting rows: %w", err)
	}
	return hostings, nil
}

func (r *SQLSubjectRepository) DeleteHosting(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM hostings WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("error deleting hosting: %w", err)
	}
	return expectOneRow(res, subject.ErrNotFound)
}

func scanDomain(row rowScanner) (*subject.Domain, error) {
	d := subject.Domain{}
	err := row.Scan(
		&d.ID, &d.Name, &d.Website, &d.CreationDate, &d.PaymentPeriod, &d.ExpirationDate,
		&d.BaseCost, &d.MaintenanceFee, &d.TotalCost, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.CreationDate = expiry.Truncate(d.CreationDate)
	d.ExpirationDate = expiry.Truncate(d.ExpirationDate)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}

func scanHosting(row rowScanner) (*subject.Hosting, error) {
	h := subject.Hosting{}
	err := row.Scan(
		&h.ID, &h.Domain, &h.Provider, &h.PaymentType, &h.IncludesHosting, &h.RegistrationDate,
		&h.BaseCost, &h.MaintenanceFee, &h.TotalCost, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.RegistrationDate = expiry.Truncate(h.RegistrationDate)
	h.CreatedAt = h.CreatedAt.UTC()
	h.UpdatedAt = h.UpdatedAt.UTC()
	return &h, nil
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*createdAt = createdAt.UTC()
	*updatedAt = now
}
