package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200
	// MaxRedisLength Redis键最大长度
	MaxRedisLength = 100
)

// piiKeywords 属性名包含这些关键字时值需要掩码
var piiKeywords = []string{
	"email",
	"phone",
	"linkedin",
	"github",
	"name",
	"address",
	"secret",
	"token",
	"key",
}

// SafeAttributeValue 敏感属性返回掩码值，其余按长度截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾各两个字符，短值保留首字符
// "john.doe@example.com" -> "jo****************om"
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	n := len(runes)
	switch {
	case n <= 1:
		return "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-1)
	default:
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// MaskPtr 对可选字段掩码，nil 返回空串
func MaskPtr(value *string) string {
	if value == nil {
		return ""
	}
	return MaskPII(*value)
}

// TruncateString 超长时保留首尾，中间用省略号连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := max((maxLength-3)/2, 1)
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeRedisKey 截断 Redis 键
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}
