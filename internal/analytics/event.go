package analytics

import "time"

// Topics for usage events.
const (
	TopicLinkCreated  = "link.created"
	TopicLinkAccessed = "link.accessed"
)

// LinkCreatedEvent is emitted when a short link is created.
type LinkCreatedEvent struct {
	Code        string     `json:"code"`
	OriginalURL string     `json:"originalUrl"`
	Custom      bool       `json:"custom"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ClientIP    string     `json:"clientIp"`
	UserAgent   string     `json:"userAgent"`
}

// LinkAccessedEvent is emitted on every successful redirect traversal.
type LinkAccessedEvent struct {
	Code       string    `json:"code"`
	AccessedAt time.Time `json:"accessedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer"`
}
