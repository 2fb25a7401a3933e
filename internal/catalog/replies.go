package catalog

// QuickReplies 是按标签分组的建议问题，未注册的标签使用默认集合。
type QuickReplies struct {
	byTag    map[string][]string
	defaults []string
	fallback []string
}

// NewQuickReplies 构建快捷回复表。fallback 是低置信度时给出的示例问题。
func NewQuickReplies(byTag map[string][]string, defaults, fallback []string) QuickReplies {
	m := make(map[string][]string, len(byTag))
	for tag, replies := range byTag {
		m[tag] = copyStrings(replies)
	}
	return QuickReplies{byTag: m, defaults: copyStrings(defaults), fallback: copyStrings(fallback)}
}

// For 返回标签对应的建议；没有注册时返回默认集合。
func (q QuickReplies) For(tag string) []string {
	if r, ok := q.byTag[tag]; ok && len(r) > 0 {
		return copyStrings(r)
	}
	return q.Default()
}

// Default 返回默认建议集合。
func (q QuickReplies) Default() []string {
	return copyStrings(q.defaults)
}

// Fallback 返回低置信度时的示例问题。
func (q QuickReplies) Fallback() []string {
	return copyStrings(q.fallback)
}

func copyStrings(src []string) []string {
	if src == nil {
		return []string{}
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}
