package dialogue

import (
	"fmt"
	"strings"
)

const (
	// EmptyMessageText 是空语句时的提示。
	EmptyMessageText = "Please enter a message."

	rephraseText = "I'm not quite sure about that. Could you rephrase or try one of these questions?"

	// DefaultEscalationText 在连续多次无法理解后给出人工联系方式。
	DefaultEscalationText = `I'm having trouble understanding. Let me connect you with our team:

📞 Phone: +91 81481 45706, +91 9847297290
📧 Email: kalapuraparambil.auto@gmail.com
⏰ Hours: Mon-Sat, 9 AM - 6 PM

Or try asking about:`

	// GalleryTag 是图库快捷路径返回的意图标签。
	GalleryTag = "image_request"
)

// HumanizeTag 把 force_urbania 这样的标签转成 "force urbania"。
func HumanizeTag(tag string) string {
	return strings.ReplaceAll(tag, "_", " ")
}

func clarificationText(tag string) string {
	return fmt.Sprintf("I think you're asking about %s. Could you please provide more details or rephrase your question?", HumanizeTag(tag))
}
