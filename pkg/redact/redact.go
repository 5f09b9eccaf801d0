// redact маскирует чувствительные данные клиента (e-mail, токены) перед
// записью в логи.
package redact

import "strings"

// Email маскирует e-mail: первые два символа локальной части + "***",
// домен сохраняется. Строка не из одного '@' целиком превращается в "***".
//
//	"patient@clinic.org" -> "pa***@clinic.org"
//	"ab@clinic.org"      -> "***@clinic.org"
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***"
	}

	lr := []rune(local)
	if len(lr) > 2 {
		return string(lr[:2]) + "***@" + domain
	}

	return "***@" + domain
}

// Token скрывает токен, сохраняя признак его наличия: пустая строка
// остаётся пустой, непустая заменяется заглушкой.
func Token(s string) string {
	if s == "" {
		return ""
	}

	return "[REDACTED_TOKEN]"
}
