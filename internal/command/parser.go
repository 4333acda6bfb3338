package command

import (
	"regexp"
	"strings"
)

// Keyword patterns, checked in order, first match wins. Add/complete
// keywords are prefixes followed by the argument; list and deadline check
// match the whole message.
var (
	addPattern      = regexp.MustCompile(`^(追加|登録)(\s+|$)`)
	completePattern = regexp.MustCompile(`^完了(\s+|$)`)
	contactPattern  = regexp.MustCompile(`^通知登録(\s+|$)`)

	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// Parse classifies trimmed message text into an intent. Arguments are
// trimmed once here; beyond that, descriptions are matched verbatim
// downstream.
func Parse(text string) Intent {
	text = strings.TrimSpace(text)

	switch {
	case addPattern.MatchString(text):
		rest := strings.TrimSpace(addPattern.ReplaceAllString(text, ""))
		return parseAdd(rest)
	case completePattern.MatchString(text):
		rest := strings.TrimSpace(completePattern.ReplaceAllString(text, ""))
		return CompleteTask{Description: rest}
	case text == "進捗確認":
		return ListTasks{}
	case text == "締切確認":
		return DeadlineCheck{}
	case contactPattern.MatchString(text):
		rest := strings.TrimSpace(contactPattern.ReplaceAllString(text, ""))
		return RegisterContact{Address: rest}
	default:
		return Unrecognized{}
	}
}

// parseAdd peels an optional trailing "YYYY-MM-DD HH:MM" (or date alone)
// off the description.
func parseAdd(rest string) AddTask {
	intent := AddTask{Description: rest}
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return intent
	}

	last := fields[len(fields)-1]
	if timePattern.MatchString(last) && len(fields) >= 3 && datePattern.MatchString(fields[len(fields)-2]) {
		intent.DueTime = normalizeTime(last)
		intent.DueDate = fields[len(fields)-2]
		intent.Description = strings.Join(fields[:len(fields)-2], " ")
		return intent
	}
	if datePattern.MatchString(last) {
		intent.DueDate = last
		intent.Description = strings.Join(fields[:len(fields)-1], " ")
	}
	return intent
}

// normalizeTime pads single-digit hours so stored values always parse as
// 15:04.
func normalizeTime(t string) string {
	if len(t) == 4 {
		return "0" + t
	}
	return t
}
