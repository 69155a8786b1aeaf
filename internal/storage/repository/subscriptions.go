package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

const subscriptionColumns = `id, code, user_uid, plan_id, status, starts_at, ends_at, created_at`

func scanSubscription(row *sql.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.Code, &sub.UserUID, &sub.PlanID, &sub.Status,
		&sub.StartsAt, &sub.EndsAt, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription вставляет новую подписку и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (code, user_uid, plan_id, status, starts_at, ends_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.Code, sub.UserUID, sub.PlanID, sub.Status, sub.StartsAt, sub.EndsAt).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// FindActiveSubscription возвращает последнюю подписку пользователя
// со статусом active и ends_at позже now.
func (s *Storage) FindActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.Subscription, error) {
	const op = "storage.FindActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1 AND status = $2 AND ends_at > $3
			  ORDER BY created_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID, models.StatusActive, now))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// FindLatestPendingSubscription возвращает последнюю по дате создания
// подписку пользователя со статусом pending_payment.
func (s *Storage) FindLatestPendingSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.FindLatestPendingSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1 AND status = $2
			  ORDER BY created_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID, models.StatusPendingPayment))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// FindRecentlyActiveSubscription возвращает подписку со статусом active
// и ends_at позже cutoff, самую позднюю по ends_at. Условие умышленно
// без верхней границы: оно захватывает и ещё действующие подписки.
func (s *Storage) FindRecentlyActiveSubscription(ctx context.Context, userUID string, cutoff time.Time) (*models.Subscription, error) {
	const op = "storage.FindRecentlyActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1 AND status = $2 AND ends_at > $3
			  ORDER BY ends_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID, models.StatusActive, cutoff))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// FindSubscriptionByCode возвращает подписку по её коду.
func (s *Storage) FindSubscriptionByCode(ctx context.Context, code string) (*models.Subscription, error) {
	const op = "storage.FindSubscriptionByCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE code = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ListSubscriptions возвращает все подписки пользователя, новые первыми.
func (s *Storage) ListSubscriptions(ctx context.Context, userUID string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.Code, &sub.UserUID, &sub.PlanID, &sub.Status,
			&sub.StartsAt, &sub.EndsAt, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSubscriptionStatus обновляет статус подписки по коду и возвращает
// количество изменённых строк.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, code, status string) (int, error) {
	const op = "storage.UpdateSubscriptionStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions SET status = $1 WHERE code = $2`
	result, err := s.DB.ExecContext(ctx, query, status, code)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ActivateSubscription переводит подписку в active и задаёт срок действия.
func (s *Storage) ActivateSubscription(ctx context.Context, code string, startsAt, endsAt time.Time) (int, error) {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $1, starts_at = $2, ends_at = $3
			  WHERE code = $4 AND status = $5`
	result, err := s.DB.ExecContext(ctx, query,
		models.StatusActive, startsAt, endsAt, code, models.StatusPendingPayment)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// FindSubscriptionsExpiringWithin находит активные подписки с окончанием
// в интервале (now, until] вместе с данными владельца и плана.
// Используется планировщиком уведомлений.
func (s *Storage) FindSubscriptionsExpiringWithin(ctx context.Context, now, until time.Time) ([]*models.ExpiryNotice, error) {
	const op = "storage.FindSubscriptionsExpiringWithin"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.email, u.username, p.name, sub.ends_at
			  FROM subscriptions sub
			  JOIN users u ON u.uid = sub.user_uid
			  JOIN subscription_plans p ON p.id = sub.plan_id
			  WHERE sub.status = $1 AND sub.ends_at > $2 AND sub.ends_at <= $3
			  ORDER BY sub.ends_at`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusActive, now, until)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiryNotice
	for rows.Next() {
		var notice models.ExpiryNotice
		if err := rows.Scan(&notice.Email, &notice.Username, &notice.PlanName, &notice.EndsAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &notice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindSubscriptionsExpiredSince находит активные подписки, чей срок истёк
// в интервале (since, now]. Статус при этом не меняется: истечение
// учитывается лениво при проверке доступа.
func (s *Storage) FindSubscriptionsExpiredSince(ctx context.Context, since, now time.Time) ([]*models.ExpiryNotice, error) {
	const op = "storage.FindSubscriptionsExpiredSince"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.email, u.username, p.name, sub.ends_at
			  FROM subscriptions sub
			  JOIN users u ON u.uid = sub.user_uid
			  JOIN subscription_plans p ON p.id = sub.plan_id
			  WHERE sub.status = $1 AND sub.ends_at > $2 AND sub.ends_at <= $3
			  ORDER BY sub.ends_at`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusActive, since, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiryNotice
	for rows.Next() {
		var notice models.ExpiryNotice
		if err := rows.Scan(&notice.Email, &notice.Username, &notice.PlanName, &notice.EndsAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &notice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
