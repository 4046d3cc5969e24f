package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

const mysqlErrForeignKey = 1452

// ConditionsUnitOfWork stages a clear-then-write of licence conditions in one transaction.
type ConditionsUnitOfWork struct {
	tx *sql.Tx
}

func (s *Storage) BeginConditions(ctx context.Context) (storage.ConditionsUnitOfWork, error) {
	const op = "storage.mysql.BeginConditions"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin transaction: %w", op, err)
	}

	return &ConditionsUnitOfWork{tx: tx}, nil
}

func (u *ConditionsUnitOfWork) ClearConditions(ctx context.Context, applicationID uuid.UUID) error {
	const op = "storage.mysql.ClearConditions"

	_, err := u.tx.ExecContext(ctx, `DELETE FROM licence_conditions WHERE application_id = ?`, applicationID.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (u *ConditionsUnitOfWork) SaveConditions(ctx context.Context, conditions []storage.LicenceCondition) error {
	const op = "storage.mysql.SaveConditions"

	stmt, err := u.tx.PrepareContext(ctx, `
		INSERT INTO licence_conditions
			(id, application_id, sort_order, condition_text, parameters, applies_to_compartment_ids, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: prepare statement: %w", op, err)
	}
	defer stmt.Close()

	for _, c := range conditions {
		text, params, compartments, err := encodeCondition(c)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		_, err = stmt.ExecContext(ctx, c.ID.String(), c.ApplicationID.String(), c.SortOrder,
			text, params, compartments, c.CreatedBy.String(), c.CreatedAt)
		if err != nil {
			var mysqlErr *mysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrForeignKey {
				return fmt.Errorf("%s: application %s does not exist: %w", op, c.ApplicationID, err)
			}
			return fmt.Errorf("%s: insert condition %d: %w", op, c.SortOrder, err)
		}
	}

	return nil
}

func (u *ConditionsUnitOfWork) SaveChanges(ctx context.Context) error {
	const op = "storage.mysql.SaveChanges"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (u *ConditionsUnitOfWork) Rollback() error {
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("storage.mysql.Rollback: %w", err)
	}
	return nil
}

func (s *Storage) GetConditions(ctx context.Context, applicationID uuid.UUID) ([]storage.LicenceCondition, error) {
	const op = "storage.mysql.GetConditions"

	query := `
		SELECT id, application_id, sort_order, condition_text, parameters, applies_to_compartment_ids, created_by, created_at
		FROM licence_conditions
		WHERE application_id = ?
		ORDER BY sort_order
	`

	rows, err := s.db.QueryContext(ctx, query, applicationID.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	conditions := []storage.LicenceCondition{}
	for rows.Next() {
		var (
			c                                      storage.LicenceCondition
			id, appID, createdBy                   string
			textJSON, paramsJSON, compartmentsJSON string
		)

		err := rows.Scan(&id, &appID, &c.SortOrder, &textJSON, &paramsJSON, &compartmentsJSON, &createdBy, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}

		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%s: condition id: %w", op, err)
		}
		if c.ApplicationID, err = uuid.Parse(appID); err != nil {
			return nil, fmt.Errorf("%s: application id: %w", op, err)
		}
		if c.CreatedBy, err = uuid.Parse(createdBy); err != nil {
			return nil, fmt.Errorf("%s: created by: %w", op, err)
		}

		if err := json.Unmarshal([]byte(textJSON), &c.ConditionText); err != nil {
			return nil, fmt.Errorf("%s: parse condition text: %w", op, err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &c.Parameters); err != nil {
			return nil, fmt.Errorf("%s: parse parameters: %w", op, err)
		}
		if err := json.Unmarshal([]byte(compartmentsJSON), &c.AppliesToSubmittedCompartmentIDs); err != nil {
			return nil, fmt.Errorf("%s: parse compartment ids: %w", op, err)
		}

		conditions = append(conditions, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate rows: %w", op, err)
	}

	return conditions, nil
}

func encodeCondition(c storage.LicenceCondition) (text, params, compartments string, err error) {
	t, err := json.Marshal(c.ConditionText)
	if err != nil {
		return "", "", "", fmt.Errorf("encode condition text: %w", err)
	}
	p, err := json.Marshal(c.Parameters)
	if err != nil {
		return "", "", "", fmt.Errorf("encode parameters: %w", err)
	}
	ids := c.AppliesToSubmittedCompartmentIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	ci, err := json.Marshal(ids)
	if err != nil {
		return "", "", "", fmt.Errorf("encode compartment ids: %w", err)
	}
	return string(t), string(p), string(ci), nil
}
