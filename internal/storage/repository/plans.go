package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// ListPlans возвращает все тарифные планы.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, slug, price, duration_months, is_trial
			  FROM subscription_plans
			  ORDER BY price`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &p.DurationMonths, &p.IsTrial); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPlanBySlug возвращает план по слагу, (nil, nil) если план не найден.
func (s *Storage) GetPlanBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	const op = "storage.GetPlanBySlug"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, slug, price, duration_months, is_trial
			  FROM subscription_plans
			  WHERE slug = $1`
	var p models.Plan
	row := s.DB.QueryRowContext(ctx, query, slug)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &p.DurationMonths, &p.IsTrial); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// GetPlan возвращает план по ID.
func (s *Storage) GetPlan(ctx context.Context, id int) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, slug, price, duration_months, is_trial
			  FROM subscription_plans
			  WHERE id = $1`
	var p models.Plan
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &p.DurationMonths, &p.IsTrial); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// GetTrialPlan возвращает пробный план, (nil, nil) если он не настроен.
func (s *Storage) GetTrialPlan(ctx context.Context) (*models.Plan, error) {
	const op = "storage.GetTrialPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, slug, price, duration_months, is_trial
			  FROM subscription_plans
			  WHERE is_trial = true
			  LIMIT 1`
	var p models.Plan
	row := s.DB.QueryRowContext(ctx, query)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &p.DurationMonths, &p.IsTrial); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}
