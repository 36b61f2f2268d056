// Package pii 提供个人信息检测与脱敏
// 文本在入库或发往外部模型之前先经过这里
package pii

import (
	"regexp"
	"sort"
)

// maskToken 脱敏占位符
const maskToken = "<PII>"

// 检测规则：SSN、电话、邮箱、卡号、地址、自报姓名、自报年龄
var patterns = []*regexp.Regexp{
	// SSN 形式：123-45-6789 或 123456789
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	regexp.MustCompile(`\b\d{9}\b`),

	// 电话：+1 555-555-5555、(555) 555-5555、555-555-5555
	regexp.MustCompile(`\b(?:\+?1[\s-]?)?(?:\(\d{3}\)|\d{3})[\s-]?\d{3}[\s-]?\d{4}\b`),

	// 邮箱
	regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),

	// 银行卡/信用卡号（粗略）
	regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`),

	// 地址（粗略）：门牌号 + 街道词
	regexp.MustCompile(`(?i)\b\d+\s+(?:street|st\.?|avenue|ave\.?|road|rd\.?|lane|ln\.?|drive|dr\.?)\b`),

	// 自报姓名："my name is First Last" / "I am First Last"
	regexp.MustCompile(`\bmy\s+name\s+is\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`),
	regexp.MustCompile(`(?i)\b(i\s*am|i'm)\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`),

	// 自报年龄："I am 23"、"I'm 19 years old"
	regexp.MustCompile(`(?i)\b(i\s*am|i'm)\s*(\d{1,2})\s*(?:years?\s*old|yrs?\s*old|y/o)?\b`),
	regexp.MustCompile(`(?i)\bmy\s+age\s+is\s*(\d{1,2})\b`),
}

// Span 检测到的个人信息区间
type Span struct {
	Start int
	End   int
	Value string
}

// DetectSpans 返回文本中所有个人信息区间，重叠区间已合并
func DetectSpans(text string) []Span {
	if text == "" {
		return nil
	}

	var spans []Span
	for _, pat := range patterns {
		for _, loc := range pat.FindAllStringIndex(text, -1) {
			spans = append(spans, Span{
				Start: loc[0],
				End:   loc[1],
				Value: text[loc[0]:loc[1]],
			})
		}
	}

	if len(spans) == 0 {
		return nil
	}

	// 按起点排序后保守合并重叠区间
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// ContainsPII 文本是否包含个人信息
func ContainsPII(text string) bool {
	return len(DetectSpans(text)) > 0
}

// Mask 将所有个人信息区间替换为占位符
// 从后往前替换，避免位置失效
func Mask(text string) string {
	spans := DetectSpans(text)
	out := text
	for i := len(spans) - 1; i >= 0; i-- {
		out = out[:spans[i].Start] + maskToken + out[spans[i].End:]
	}
	return out
}
