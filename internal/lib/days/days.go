// Package days содержит функции подсчёта целых дней между моментами времени.
// Используется политикой доступа для вычисления оставшихся дней подписки.
package days

import "time"

// Until возвращает количество целых дней от now до deadline.
// Результат отрицательный, если deadline уже прошёл, — это нормальная
// ситуация во время льготного периода.
func Until(now, deadline time.Time) int {
	return int(deadline.Sub(now).Hours() / 24)
}
