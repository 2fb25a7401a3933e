package dialogue

import (
	"regexp"
	"strings"
)

const (
	tagServices     = "services"
	tagContact      = "contact"
	tagLocation     = "location"
	tagWorkingHours = "working_hours"
	tagWhyChoose    = "why_choose"
)

const (
	contactTip = "\n\n💡 Tip: You can also click the chat bubble to ask more questions!"
	mediaTip   = "\n\n📸 Want to see examples? Just ask 'show me images' or 'show photos'!"
)

var (
	numberedItem  = regexp.MustCompile(`(\S)[ \t]+(\d{1,2}\))`)
	checklistItem = regexp.MustCompile(`(?:^|[ \t]+)\d{1,2}\)[ \t]*`)

	contactMarkers = []struct{ plain, marked string }{
		{"Phone:", "\n\n📞 **Phone:**"},
		{"Email:", "\n📧 **Email:**"},
		{"Address:", "\n📍 **Address:**"},
		{"Hours:", "\n⏰ **Hours:**"},
	}
)

// Formatter 把预置的回复文本整理成便于阅读的格式。
// 对已经格式化过的文本再次调用不会重复处理。
type Formatter struct {
	directionsURL string
	mediaTags     map[string]struct{}
}

// NewFormatter 创建 Formatter。mediaTags 是有图库可看的意图，会追加看图提示。
func NewFormatter(directionsURL string, mediaTags []string) *Formatter {
	m := make(map[string]struct{}, len(mediaTags))
	for _, t := range mediaTags {
		m[t] = struct{}{}
	}
	return &Formatter{directionsURL: directionsURL, mediaTags: m}
}

// Format 根据标签整理文本并追加上下文提示。
func (f *Formatter) Format(text, tag string) string {
	switch tag {
	case tagServices:
		text = splitNumbered(text)
	case tagContact, tagLocation, tagWorkingHours:
		text = markContact(text)
		if tag == tagLocation && f.directionsURL != "" && !strings.Contains(text, "**Get Directions:**") {
			text += "\n\n🧭 **Get Directions:** [Click here for Google Maps directions](" + f.directionsURL + ")"
		}
	case tagWhyChoose:
		text = checklist(text)
	}
	return f.appendTips(text, tag)
}

func (f *Formatter) appendTips(text, tag string) string {
	switch tag {
	case tagContact, tagLocation, tagWorkingHours:
		if !strings.Contains(text, contactTip) {
			text += contactTip
		}
	}
	if _, ok := f.mediaTags[tag]; ok && !strings.Contains(text, mediaTip) {
		text += mediaTip
	}
	return text
}

func splitNumbered(text string) string {
	if strings.Contains(text, "\n1)") {
		return text
	}
	return numberedItem.ReplaceAllString(text, "${1}\n${2}")
}

func markContact(text string) string {
	for _, m := range contactMarkers {
		if strings.Contains(text, "**"+m.plain+"**") {
			return text
		}
	}
	for _, m := range contactMarkers {
		text = strings.ReplaceAll(text, m.plain, m.marked)
	}
	return text
}

func checklist(text string) string {
	if strings.Contains(text, "✓") {
		return text
	}
	first := true
	return checklistItem.ReplaceAllStringFunc(text, func(string) string {
		if first {
			first = false
			return "\n\n✓ "
		}
		return "\n✓ "
	})
}
