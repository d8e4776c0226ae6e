package analysis

import (
	"context"
	"encoding/json"

	"github.com/phrazzld/clarity-api/internal/domain"
)

// CannedCompleter returns a fixed, well-formed reply without calling any
// service. It lets the server run locally with no API key.
type CannedCompleter struct {
	reply string
}

// NewCannedCompleter returns a completer that always answers with sep. A nil
// sep selects a generic built-in answer.
func NewCannedCompleter(sep *domain.Separation) (*CannedCompleter, error) {
	if sep == nil {
		sep = &defaultCannedSeparation
	}
	raw, err := json.Marshal(sep)
	if err != nil {
		return nil, err
	}
	return &CannedCompleter{reply: "```json\n" + string(raw) + "\n```"}, nil
}

// Complete implements Completer.
func (c *CannedCompleter) Complete(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.reply, nil
}

var defaultCannedSeparation = domain.Separation{
	Uncontrollable: []string{
		"别人如何评价这件事",
		"别人做出的选择和决定",
		"事情已经发生的部分",
	},
	Controllable: []string{
		"我如何描述和理解这件事",
		"我接下来想采取的行动",
		"我向对方表达需求的方式",
	},
	Actions: []domain.ActionItem{
		{Action: "写下事情经过，只记录看到和听到的事实", Effect: "把事实和解读分开，情绪会更清楚"},
		{Action: "用一句话告诉对方你的需求", Effect: "让对方知道你在意什么，而不是让对方猜"},
		{Action: "今天留出十分钟做一件让自己放松的事", Effect: "先照顾好情绪，再处理问题"},
	},
}
