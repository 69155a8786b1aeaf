package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/config"
)

func TestExemptList_Match(t *testing.T) {
	list := NewExemptList([]config.ExemptRoute{
		{Method: "POST", Pattern: "api/v1/subscriptions/subscribe"},
		{Method: "GET", Pattern: "api/v1/subscriptions/payment-token/*"},
		{Method: "", Pattern: "api/v1/subscriptions/trial-status"},
		{Method: "GET", Pattern: "api/v1/businesses"},
	})

	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		{"exact match", "POST", "api/v1/subscriptions/subscribe", true},
		{"exact match with leading slash", "POST", "/api/v1/subscriptions/subscribe", true},
		{"method mismatch", "GET", "api/v1/subscriptions/subscribe", false},
		{"wildcard with suffix", "GET", "api/v1/subscriptions/payment-token/SUB-123", true},
		{"wildcard with empty suffix", "GET", "api/v1/subscriptions/payment-token", true},
		{"empty method matches any method", "DELETE", "api/v1/subscriptions/trial-status", true},
		{"extra segment without wildcard", "GET", "api/v1/businesses/current", false},
		{"segment substring does not match", "GET", "api/v1/businesses-extra", false},
		{"partial segment is not a prefix", "POST", "api/v1/subscriptions/subscribe-now", false},
		{"unrelated path", "GET", "api/v1/sales/stats", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, list.Match(tt.method, tt.path))
		})
	}
}
