package analytics

import "strings"

// NormalizeQuestion 将问题文本规整为分组键
// 小写、折叠空白、去首尾空白，超长时按 maxLen 个字符截断
// 纯函数；大小写和空白噪声不影响分组，但不做词干或同义词归并，
// 过度归并会把不同的问题错误合到一组
func NormalizeQuestion(text string, maxLen int) string {
	key := strings.ToLower(strings.TrimSpace(text))
	key = strings.Join(strings.Fields(key), " ")

	if maxLen > 0 {
		runes := []rune(key)
		if len(runes) > maxLen {
			key = string(runes[:maxLen])
		}
	}
	return key
}
