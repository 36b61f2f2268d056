package analytics

import (
	"strings"

	"github.com/PrasunaBista/zuzu/internal/model"
)

// QAPair 问答对，由会话消息流配对得出，不落库
type QAPair struct {
	Question string
	Answer   string
	Category string
}

// Group 同一问题的问答组
type Group struct {
	Key   string
	Items []QAPair
}

// ExtractPairs 从按时间排序的消息流中配出问答对
// 规则：user 消息更新待答问题（后来的覆盖先前未被回答的）；
// assistant 消息在有待答问题时消费它并产出一个问答对；
// 空白消息完全忽略，不影响待答状态
func ExtractPairs(messages []*model.Message, classify func(string) string) []QAPair {
	var pairs []QAPair
	pending := ""

	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}

		switch strings.ToLower(m.Role) {
		case "user":
			pending = content
		case "assistant":
			if pending == "" {
				continue
			}
			pairs = append(pairs, QAPair{
				Question: pending,
				Answer:   content,
				Category: classify(pending),
			})
			pending = ""
		}
	}
	return pairs
}

// GroupPairs 按规整后的问题键分组，保持首次出现的顺序
// 分组只看问题文本，与会话、时间和类目无关
func GroupPairs(pairs []QAPair, keyLen int) []*Group {
	index := make(map[string]*Group)
	var groups []*Group

	for _, p := range pairs {
		key := NormalizeQuestion(p.Question, keyLen)
		if key == "" {
			continue
		}

		g, ok := index[key]
		if !ok {
			g = &Group{Key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.Items = append(g.Items, p)
	}
	return groups
}

// ScoreableGroups 过滤出可计分的组：同一问题至少出现两次
// 单次出现的问题没有一致性信号
func ScoreableGroups(groups []*Group) []*Group {
	var out []*Group
	for _, g := range groups {
		if len(g.Items) >= 2 {
			out = append(out, g)
		}
	}
	return out
}
