package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/donor/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) Create(ctx context.Context, d *model.Donor) (bool, error) {
	query := `
        INSERT INTO donors (
            id, account_id, first_name, last_name, email, blood_type,
            last_donation, eligibility_status, created_at, updated_at
        )
        VALUES (
            :id, :account_id, :first_name, :last_name, :email, :blood_type,
            :last_donation, :eligibility_status, :created_at, :updated_at
        )
        ON CONFLICT (email) DO NOTHING
    `
	res, err := r.DB.NamedExecContext(ctx, query, d)
	if err != nil {
		return false, model.NewStorageError("create donor", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, model.NewStorageError("create donor", err)
	}
	return n == 1, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*model.Donor, error) {
	var d model.Donor
	err := r.DB.GetContext(ctx, &d, r.DB.Rebind(`SELECT * FROM donors WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, model.NewStorageError("find donor", err)
	}
	return &d, nil
}

func (r *SQLRepository) FindAll(ctx context.Context, f *dto.DonorFilters) ([]model.Donor, int, error) {
	const op = "list donors"

	var conditions []string
	args := map[string]interface{}{}
	if q := strings.TrimSpace(f.Query); q != "" {
		conditions = append(conditions, "(LOWER(first_name) LIKE :q OR LOWER(last_name) LIKE :q OR LOWER(email) LIKE :q)")
		args["q"] = "%" + strings.ToLower(q) + "%"
	}
	if f.BloodType != "" {
		conditions = append(conditions, "blood_type = :blood_type")
		args["blood_type"] = string(f.BloodType)
	}
	if f.Eligibility != "" {
		conditions = append(conditions, "eligibility_status = :eligibility_status")
		args["eligibility_status"] = string(f.Eligibility)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := r.DB.BindNamed("SELECT count(*) FROM donors"+where, args)
	if err != nil {
		return nil, 0, model.NewStorageError(op, err)
	}
	var count int
	if err := r.DB.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, model.NewStorageError(op, err)
	}

	query := "SELECT * FROM donors" + where + " ORDER BY last_name ASC, first_name ASC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}
	query, queryArgs, err := r.DB.BindNamed(query, args)
	if err != nil {
		return nil, 0, model.NewStorageError(op, err)
	}

	var donors []model.Donor
	if err := r.DB.SelectContext(ctx, &donors, query, queryArgs...); err != nil {
		return nil, 0, model.NewStorageError(op, err)
	}
	return donors, count, nil
}

// UpdateEligibility sets the status and, when lastDonation is non-nil, the
// last donation date.
func (r *SQLRepository) UpdateEligibility(ctx context.Context, id string, status model.EligibilityStatus, lastDonation *time.Time, updatedAt time.Time) (bool, error) {
	query := `
        UPDATE donors
        SET eligibility_status = ?, last_donation = COALESCE(?, last_donation), updated_at = ?
        WHERE id = ?
    `
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), status, lastDonation, updatedAt, id)
	if err != nil {
		return false, model.NewStorageError("update donor eligibility", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, model.NewStorageError("update donor eligibility", err)
	}
	return n == 1, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) (bool, error) {
	const op = "delete donor"

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, model.NewStorageError(op, err)
	}
	defer tx.Rollback()

	var donations int
	if err := tx.GetContext(ctx, &donations, r.DB.Rebind(`SELECT count(*) FROM donations WHERE donor_id = ?`), id); err != nil {
		return false, model.NewStorageError(op, err)
	}
	if donations > 0 {
		return false, model.ErrDonorHasDonations
	}

	res, err := tx.ExecContext(ctx, r.DB.Rebind(`DELETE FROM donors WHERE id = ?`), id)
	if err != nil {
		return false, model.NewStorageError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, model.NewStorageError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return false, model.NewStorageError(op, err)
	}
	return n == 1, nil
}
