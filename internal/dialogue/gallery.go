package dialogue

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/catalog"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
)

// galleryConfidence 是关键词命中时上报的置信度，不是模型输出。
const galleryConfidence = 100

var mediaTriggers = []string{
	"image", "images", "photo", "photos", "picture", "pictures",
	"show me", "example", "examples", "see", "look", "view", "gallery", "portfolio",
}

// GalleryDetector 在分类之前检查用户是否想看某类作品的图片。
type GalleryDetector struct {
	gallery    *catalog.Gallery
	rnd        Rand
	sampleSize int
}

// NewGalleryDetector 创建 GalleryDetector。sampleSize <= 0 时取 3。
func NewGalleryDetector(gallery *catalog.Gallery, rnd Rand, sampleSize int) *GalleryDetector {
	if sampleSize <= 0 {
		sampleSize = 3
	}
	return &GalleryDetector{gallery: gallery, rnd: rnd, sampleSize: sampleSize}
}

// IsMediaRequest 判断语句是否包含看图类的触发词。
func IsMediaRequest(lower string) bool {
	for _, t := range mediaTriggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Detect 返回图库应答；未触发或无法确定类别时 ok 为 false，调用方继续走分类流程。
// 不修改会话状态。
func (d *GalleryDetector) Detect(utterance, lastIntent string) (model.TurnResult, bool) {
	lower := strings.ToLower(utterance)
	if !IsMediaRequest(lower) {
		return model.TurnResult{}, false
	}

	// 命中关键词但该类别暂无图片时，按上一个意图再找一次
	category, ok := d.gallery.MatchKeywords(lower)
	if (!ok || len(category.Images) == 0) && lastIntent != "" {
		category, ok = d.gallery.ForIntent(lastIntent)
	}
	if !ok || len(category.Images) == 0 {
		return model.TurnResult{}, false
	}

	images := Sample(d.rnd, category.Images, d.sampleSize)
	return model.TurnResult{
		Text:              galleryText(category, images),
		ConfidencePercent: galleryConfidence,
		Tag:               GalleryTag,
		Images:            images,
		Suggestions: []string{
			"View full gallery",
			"Tell me more about " + category.DisplayName,
			"Contact for quote",
		},
		Tier:         model.TierGallery,
		PredictedTag: GalleryTag,
		Confidence:   1,
	}, true
}

func galleryText(c catalog.Category, images []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are some examples of our %s projects:\n\n", c.DisplayName)
	for i, img := range images {
		fmt.Fprintf(&b, "![Image %d](%s)\n\n", i+1, ImageURL(img))
	}
	fmt.Fprintf(&b, "\nView more in our [Gallery](/gallery?category=%s)!", url.QueryEscape(c.Name))
	return b.String()
}

// ImageURL 返回图片标识对应的站内路径。
func ImageURL(id string) string {
	u := url.URL{Path: "/" + strings.TrimPrefix(id, "/")}
	return u.EscapedPath()
}
