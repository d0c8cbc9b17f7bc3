// Package messaging provides the notification ports and their SSE-backed
// implementation for toasts, achievement unlocks, and the qualified-lead
// widget.
package messaging

// Toast is a level-up or informational notification for a visitor.
type Toast struct {
	Message string `json:"message"`
	Level   string `json:"level"`
	Link    string `json:"link,omitempty"`
}

// AchievementUnlock is the payload surfaced when an achievement unlocks.
type AchievementUnlock struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// Notifier is the side-effect hook consumed by the engagement engine and
// the achievement evaluator. Implementations are best-effort; delivery is
// never guaranteed and failures never propagate to tracking callers.
type Notifier interface {
	ShowToast(visitorID string, toast Toast)
	ShowAchievement(visitorID string, unlock AchievementUnlock)
	ShowQualifiedLeadWidget(visitorID string)
}

// NopNotifier discards all notifications. Used in tests and as a fallback
// when no delivery channel is configured.
type NopNotifier struct{}

func (NopNotifier) ShowToast(string, Toast) {}

func (NopNotifier) ShowAchievement(string, AchievementUnlock) {}

func (NopNotifier) ShowQualifiedLeadWidget(string) {}
