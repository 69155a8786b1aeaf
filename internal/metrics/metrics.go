// Package metrics объявляет Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AccessDecisions считает решения политики доступа по эффекту и причине.
// Для allow/warn причина пустая.
var AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "access_decisions_total",
	Help: "Subscription access policy decisions by effect and deny reason.",
}, []string{"effect", "reason"})
