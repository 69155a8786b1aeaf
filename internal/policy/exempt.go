package policy

import (
	"strings"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/config"
)

// ExemptList — упорядоченный список маршрутов, освобождённых от проверки
// подписки. Сопоставление идёт по сегментам пути, а не по вхождению
// подстроки, чтобы исключить ложные срабатывания на похожих путях.
type ExemptList struct {
	routes []exemptRoute
}

type exemptRoute struct {
	method   string
	segments []string
	wildcard bool // завершающий "*" в паттерне: любой суффикс пути
}

// NewExemptList собирает список из конфигурации. Пустой метод в записи
// означает любой HTTP-метод.
func NewExemptList(routes []config.ExemptRoute) *ExemptList {
	list := &ExemptList{}
	for _, r := range routes {
		segments := splitPath(r.Pattern)
		wildcard := false
		if n := len(segments); n > 0 && segments[n-1] == "*" {
			wildcard = true
			segments = segments[:n-1]
		}
		list.routes = append(list.routes, exemptRoute{
			method:   strings.ToUpper(r.Method),
			segments: segments,
			wildcard: wildcard,
		})
	}
	return list
}

// Match сообщает, освобождён ли запрос method+path от проверки подписки.
func (l *ExemptList) Match(method, path string) bool {
	segments := splitPath(path)
	for _, r := range l.routes {
		if r.method != "" && r.method != strings.ToUpper(method) {
			continue
		}
		if matchSegments(r.segments, segments, r.wildcard) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, path []string, wildcard bool) bool {
	if wildcard {
		// паттерн с "*" допускает любой суффикс, в том числе пустой
		if len(path) < len(pattern) {
			return false
		}
	} else if len(path) != len(pattern) {
		return false
	}
	for i, seg := range pattern {
		if path[i] != seg {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
