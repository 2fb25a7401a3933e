// Package catalog 保存启动时加载、之后只读的意图目录、快捷回复和图库配置。
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidCatalog 表示目录数据不完整或相互引用不一致。
var ErrInvalidCatalog = errors.New("invalid catalog")

// Intent 是意图文件中的一条记录。Patterns 仅供训练使用。
type Intent struct {
	Tag       string   `json:"tag"`
	Patterns  []string `json:"patterns,omitempty"`
	Responses []string `json:"responses"`
}

type intentFile struct {
	Intents []Intent `json:"intents"`
}

// IntentCatalog 按标签索引预先编写好的回复。
type IntentCatalog struct {
	byTag map[string][]string
	tags  []string
}

// ParseIntents 解析 {"intents":[...]} 格式的意图文件。
func ParseIntents(data []byte) (*IntentCatalog, error) {
	var f intentFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode intents: %w", err)
	}
	if len(f.Intents) == 0 {
		return nil, fmt.Errorf("%w: no intents", ErrInvalidCatalog)
	}
	c := &IntentCatalog{byTag: make(map[string][]string, len(f.Intents))}
	for i, in := range f.Intents {
		if in.Tag == "" {
			return nil, fmt.Errorf("%w: intent %d has empty tag", ErrInvalidCatalog, i)
		}
		if _, dup := c.byTag[in.Tag]; dup {
			return nil, fmt.Errorf("%w: duplicate tag %q", ErrInvalidCatalog, in.Tag)
		}
		if len(in.Responses) == 0 {
			return nil, fmt.Errorf("%w: tag %q has no responses", ErrInvalidCatalog, in.Tag)
		}
		responses := make([]string, len(in.Responses))
		copy(responses, in.Responses)
		c.byTag[in.Tag] = responses
		c.tags = append(c.tags, in.Tag)
	}
	return c, nil
}

// LoadIntentsFile 从本地文件加载意图目录。
func LoadIntentsFile(path string) (*IntentCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read intents file: %w", err)
	}
	return ParseIntents(data)
}

// Responses 返回标签对应的回复列表。
func (c *IntentCatalog) Responses(tag string) ([]string, bool) {
	r, ok := c.byTag[tag]
	return r, ok
}

// Has 判断标签是否存在。
func (c *IntentCatalog) Has(tag string) bool {
	_, ok := c.byTag[tag]
	return ok
}

// Tags 返回目录中的全部标签，保持文件顺序。
func (c *IntentCatalog) Tags() []string {
	cp := make([]string, len(c.tags))
	copy(cp, c.tags)
	return cp
}

// RequireTags 确认模型能输出的每个标签在目录中都有回复。
func (c *IntentCatalog) RequireTags(modelTags []string) error {
	for _, t := range modelTags {
		if !c.Has(t) {
			return fmt.Errorf("%w: model tag %q missing from intents", ErrInvalidCatalog, t)
		}
	}
	return nil
}
