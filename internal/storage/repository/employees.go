package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// FindActiveEmployment возвращает активную привязку сотрудника к бизнесу,
// сразу разрешённую до владельца. Отсутствие привязки — (nil, nil);
// бизнес без владельца выражается пустым OwnerUID.
func (s *Storage) FindActiveEmployment(ctx context.Context, userUID string) (*models.Employment, error) {
	const op = "storage.FindActiveEmployment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT b.id, b.name, COALESCE(o.uid::text, '')
			  FROM employees e
			  JOIN businesses b ON b.id = e.business_id
			  LEFT JOIN users o ON o.uid = b.owner_uid
			  WHERE e.user_uid = $1 AND e.is_active = true
			  LIMIT 1`
	var employment models.Employment
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&employment.BusinessID, &employment.BusinessName, &employment.OwnerUID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &employment, nil
}

// CreateEmployment привязывает сотрудника к бизнесу.
func (s *Storage) CreateEmployment(ctx context.Context, userUID string, businessID int) (int, error) {
	const op = "storage.CreateEmployment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO employees (user_uid, business_id, is_active)
			  VALUES ($1, $2, true)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, userUID, businessID).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}
