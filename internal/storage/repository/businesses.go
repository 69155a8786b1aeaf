package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// CreateBusiness сохраняет новый бизнес и возвращает его ID.
func (s *Storage) CreateBusiness(ctx context.Context, business models.Business) (int, error) {
	const op = "storage.CreateBusiness"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO businesses (name, owner_uid)
			  VALUES ($1, $2)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, business.Name, business.OwnerUID).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListBusinessesByOwner возвращает бизнесы владельца.
func (s *Storage) ListBusinessesByOwner(ctx context.Context, ownerUID string) ([]*models.Business, error) {
	const op = "storage.ListBusinessesByOwner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, owner_uid, created_at
			  FROM businesses
			  WHERE owner_uid = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Business
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.OwnerUID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetCurrentBusiness возвращает бизнес пользователя: для владельца — первый
// из его бизнесов, для сотрудника — бизнес активной привязки.
func (s *Storage) GetCurrentBusiness(ctx context.Context, userUID string) (*models.Business, error) {
	const op = "storage.GetCurrentBusiness"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT b.id, b.name, b.owner_uid, b.created_at
			  FROM businesses b
			  LEFT JOIN employees e ON e.business_id = b.id AND e.is_active = true
			  WHERE b.owner_uid = $1 OR e.user_uid = $1
			  ORDER BY b.id
			  LIMIT 1`
	var b models.Business
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&b.ID, &b.Name, &b.OwnerUID, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &b, nil
}
