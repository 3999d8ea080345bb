package domain

// DeliveryJob is the unit of outbound work. It is owned by the delivery
// queue from enqueue until it reaches a terminal state, and is immutable
// apart from queue-internal retry bookkeeping.
type DeliveryJob struct {
	ID        string  `json:"id"`
	Recipient string  `json:"jid"`
	Payload   Payload `json:"payload"`
	CreatedAt int64   `json:"createdAt"`
	MessageID string  `json:"msgId"`
	ChatJID   string  `json:"chatJid"`
}

// Contact is an admin-managed address book entry. JID takes precedence
// over MSISDN when resolving.
type Contact struct {
	Name   string   `json:"name"`
	MSISDN string   `json:"msisdn,omitempty"`
	JID    string   `json:"jid,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// GroupAlias maps a human-friendly name to a group JID.
type GroupAlias struct {
	Name string `json:"name"`
	JID  string `json:"jid"`
}

// ContactBook is the persisted contacts document.
type ContactBook struct {
	Contacts  []Contact    `json:"contacts"`
	Groups    []GroupAlias `json:"groups"`
	UpdatedAt int64        `json:"updatedAt"`
}
