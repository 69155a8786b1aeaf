// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок, сообщений валидации и отказов политики доступа
// в едином формате.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/policy"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// DenyResponse — тело ответа при отказе политики доступа по подписке.
// Машиночитаемые флаги и redirect_to позволяют клиенту показать нужный
// экран без разбора текста сообщения.
type DenyResponse struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	SubscriptionRequired bool   `json:"subscription_required,omitempty"`
	SubscriptionPending  bool   `json:"subscription_pending,omitempty"`
	SubscriptionExpired  bool   `json:"subscription_expired,omitempty"`
	RedirectTo           string `json:"redirect_to,omitempty"`
}

// Deny формирует DenyResponse по решению политики доступа. Каждый отказ
// несёт хотя бы один флаг причины: отказы сотрудника без бизнеса или без
// владельца выставляют subscription_required — корректный экран для них
// тот же, что и при отсутствии подписки.
func Deny(d policy.Decision) DenyResponse {
	required := d.Reason == policy.ReasonSubscriptionRequired ||
		d.Reason == policy.ReasonEmployeeBusinessMissing ||
		d.Reason == policy.ReasonOwnerMissing
	return DenyResponse{
		Success:              false,
		Message:              d.Message,
		SubscriptionRequired: required,
		SubscriptionPending:  d.Reason == policy.ReasonSubscriptionPending,
		SubscriptionExpired:  d.Reason == policy.ReasonSubscriptionExpired,
		RedirectTo:           d.RedirectTo,
	}
}
