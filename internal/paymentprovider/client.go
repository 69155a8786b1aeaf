// Package paymentprovider реализует клиента платёжного шлюза:
// создание транзакции, проверка статуса и верификация подписи webhook'а.
package paymentprovider

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент платёжного провайдера. Аутентификация выполняется
// серверным ключом через HTTP Basic с пустым паролем. Создание транзакций
// и запрос статуса живут на разных хостах провайдера, поэтому базовых
// URL два: snapURL для Snap API и apiURL для core API.
type Client struct {
	serverKey string
	snapURL   string
	apiURL    string
	http      *http.Client
}

// New создает нового клиента платёжного провайдера.
func New(serverKey, snapURL, apiURL string) *Client {
	return &Client{
		serverKey: serverKey,
		snapURL:   snapURL,
		apiURL:    apiURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateTransaction создает транзакцию и возвращает платёжный токен
// и URL страницы оплаты.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*TransactionResponse, error) {
	const op = "paymentprovider.CreateTransaction"
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.snapURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, data)
	}

	var result TransactionResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// CheckStatus запрашивает у провайдера статус транзакции по коду заказа.
func (c *Client) CheckStatus(ctx context.Context, orderID string) (*StatusResponse, error) {
	const op = "paymentprovider.CheckStatus"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+"/v2/"+orderID+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, data)
	}

	var result StatusResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// VerifySignature проверяет подпись webhook-уведомления:
// sha512(order_id + status_code + gross_amount + server_key).
func (c *Client) VerifySignature(n WebhookNotification) bool {
	payload := n.OrderID + n.StatusCode + n.GrossAmount + c.serverKey
	sum := sha512.Sum512([]byte(payload))
	return hex.EncodeToString(sum[:]) == n.SignatureKey
}

func (c *Client) setHeaders(req *http.Request) {
	credentials := base64.StdEncoding.EncodeToString([]byte(c.serverKey + ":"))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
