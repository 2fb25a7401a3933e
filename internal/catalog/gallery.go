package catalog

import (
	"fmt"
	"strings"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/config"
)

// Category 是图库中的一个类别。
type Category struct {
	Name        string
	DisplayName string
	Keywords    []string
	Images      []string
}

// Gallery 保存按固定顺序遍历的类别、关键词以及意图到类别的映射。
type Gallery struct {
	categories       []Category
	byName           map[string]int
	intentToCategory map[string]string
}

// NewGallery 校验并构建图库。intentToCategory 中引用的标签必须在 knownTags 中，
// 引用的类别必须存在。
func NewGallery(categories []Category, intentToCategory map[string]string, knownTags []string) (*Gallery, error) {
	g := &Gallery{
		byName:           make(map[string]int, len(categories)),
		intentToCategory: make(map[string]string, len(intentToCategory)),
	}
	for i, c := range categories {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: gallery category %d has no name", ErrInvalidCatalog, i)
		}
		if _, dup := g.byName[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate gallery category %q", ErrInvalidCatalog, c.Name)
		}
		if c.DisplayName == "" {
			c.DisplayName = c.Name
		}
		kw := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kw = append(kw, k)
			}
		}
		c.Keywords = kw
		c.Images = copyStrings(c.Images)
		g.byName[c.Name] = len(g.categories)
		g.categories = append(g.categories, c)
	}

	known := make(map[string]struct{}, len(knownTags))
	for _, t := range knownTags {
		known[t] = struct{}{}
	}
	for tag, cat := range intentToCategory {
		if _, ok := known[tag]; !ok {
			return nil, fmt.Errorf("%w: intent %q mapped to gallery is unknown", ErrInvalidCatalog, tag)
		}
		if _, ok := g.byName[cat]; !ok {
			return nil, fmt.Errorf("%w: intent %q maps to unknown gallery category %q", ErrInvalidCatalog, tag, cat)
		}
		g.intentToCategory[tag] = cat
	}
	return g, nil
}

// NewGalleryFromConfig 从配置构建图库。
func NewGalleryFromConfig(cfg config.GalleryConfig, knownTags []string) (*Gallery, error) {
	cats := make([]Category, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		cats = append(cats, Category{
			Name:        c.Name,
			DisplayName: c.DisplayName,
			Keywords:    c.Keywords,
			Images:      c.Images,
		})
	}
	return NewGallery(cats, cfg.IntentCategories, knownTags)
}

// MatchKeywords 按配置顺序返回第一个关键词出现在语句中的类别。
// lower 需要已经转为小写。
func (g *Gallery) MatchKeywords(lower string) (Category, bool) {
	for _, c := range g.categories {
		for _, k := range c.Keywords {
			if strings.Contains(lower, k) {
				return c, true
			}
		}
	}
	return Category{}, false
}

// ForIntent 根据意图标签查找对应类别。
func (g *Gallery) ForIntent(tag string) (Category, bool) {
	name, ok := g.intentToCategory[tag]
	if !ok {
		return Category{}, false
	}
	return g.Category(name)
}

// Category 按名称查找类别。
func (g *Gallery) Category(name string) (Category, bool) {
	i, ok := g.byName[name]
	if !ok {
		return Category{}, false
	}
	return g.categories[i], true
}

// Categories 返回全部类别（按配置顺序）。
func (g *Gallery) Categories() []Category {
	cp := make([]Category, len(g.categories))
	copy(cp, g.categories)
	return cp
}

// MediaTags 返回映射到图库类别的意图标签。
func (g *Gallery) MediaTags() []string {
	tags := make([]string, 0, len(g.intentToCategory))
	for t := range g.intentToCategory {
		tags = append(tags, t)
	}
	return tags
}

// HasImage 判断某个图片标识是否属于图库。
func (g *Gallery) HasImage(id string) bool {
	for _, c := range g.categories {
		for _, img := range c.Images {
			if img == id {
				return true
			}
		}
	}
	return false
}
