package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// SavePaymentToken сохраняет платёжный токен провайдера для подписки.
func (s *Storage) SavePaymentToken(ctx context.Context, token models.PaymentToken) (int, error) {
	const op = "storage.SavePaymentToken"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO payment_tokens (subscription_code, token, redirect_url)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		token.SubscriptionCode, token.Token, token.RedirectURL).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// FindPaymentToken возвращает последний токен для кода подписки,
// (nil, nil) если токен не выдавался.
func (s *Storage) FindPaymentToken(ctx context.Context, subscriptionCode string) (*models.PaymentToken, error) {
	const op = "storage.FindPaymentToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, subscription_code, token, redirect_url, created_at
			  FROM payment_tokens
			  WHERE subscription_code = $1
			  ORDER BY created_at DESC
			  LIMIT 1`
	var token models.PaymentToken
	row := s.DB.QueryRowContext(ctx, query, subscriptionCode)
	if err := row.Scan(&token.ID, &token.SubscriptionCode, &token.Token, &token.RedirectURL, &token.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &token, nil
}
