package domain

import (
	"encoding/json"
)

// ForwardSwitches are the global per-type forwarding toggles.
type ForwardSwitches struct {
	Text     bool `json:"text"`
	Image    bool `json:"image"`
	Document bool `json:"document"`
	Other    bool `json:"other"`
}

// QuietHours is a local-time window during which forwarding is suppressed.
// Start == End means the window is always open (never quiet).
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"` // "HH:MM"
	End     string `json:"end"`   // "HH:MM"
	TZ      string `json:"tz"`
}

// ForwardRateLimit caps forwards per chat per minute.
type ForwardRateLimit struct {
	Enabled      bool `json:"enabled"`
	MaxPerMinute int  `json:"maxPerMinute"`
}

// SafetyGates are coarse forwarding kill-switches.
type SafetyGates struct {
	AllowGroups bool `json:"allowGroups"`
	AllowDM     bool `json:"allowDM"`
	BlockMedia  bool `json:"blockMedia"`
}

// Rule is a fully-resolved set of forwarding decisions for one chat.
type Rule struct {
	Enabled             bool             `json:"enabled"`
	DMEnabled           bool             `json:"dmEnabled"`
	RequirePrefixForAll bool             `json:"requirePrefixForAll"`
	GroupMode           string           `json:"groupMode"` // all | prefix
	GroupPrefix         string           `json:"groupPrefix"`
	QuietHours          QuietHours       `json:"quietHours"`
	RateLimit           ForwardRateLimit `json:"rateLimit"`
	Safety              SafetyGates      `json:"safety"`
	Templates           []string         `json:"templates"`
}

// AutomationConfig is the persisted automation document: global switches,
// layered defaults, and partial per-chat overrides keyed by chat JID.
// Overrides stay as loose maps so that only the keys actually present
// override the defaults.
type AutomationConfig struct {
	Enabled      bool                      `json:"enabled"`
	WebhookURL   string                    `json:"webhookUrl"`
	SharedSecret string                    `json:"sharedSecret"`
	Forward      ForwardSwitches           `json:"forward"`
	Defaults     Rule                      `json:"defaults"`
	PerChat      map[string]map[string]any `json:"perChat"`
}

// DefaultAutomationConfig builds the initial document. Forwarding starts
// enabled only when a webhook URL is configured.
func DefaultAutomationConfig(webhookURL, sharedSecret, groupPrefix, tz string) AutomationConfig {
	if groupPrefix == "" {
		groupPrefix = "!bot"
	}
	return AutomationConfig{
		Enabled:      webhookURL != "",
		WebhookURL:   webhookURL,
		SharedSecret: sharedSecret,
		Forward:      ForwardSwitches{Text: true, Image: true, Document: true, Other: false},
		Defaults: Rule{
			Enabled:             true,
			DMEnabled:           true,
			RequirePrefixForAll: true,
			GroupMode:           "prefix",
			GroupPrefix:         groupPrefix,
			QuietHours:          QuietHours{Enabled: false, Start: "22:00", End: "06:00", TZ: tz},
			RateLimit:           ForwardRateLimit{Enabled: true, MaxPerMinute: 30},
			Safety:              SafetyGates{AllowGroups: true, AllowDM: true, BlockMedia: false},
			Templates:           []string{},
		},
		PerChat: map[string]map[string]any{},
	}
}

// EffectiveRule deep-merges the defaults with the chat's partial override.
// An absent override yields the defaults unchanged. A malformed override
// is neutralized: the defaults win.
func (c *AutomationConfig) EffectiveRule(chatJID string) Rule {
	override := c.PerChat[chatJID]
	if len(override) == 0 {
		return c.Defaults
	}

	base, err := ToMap(c.Defaults)
	if err != nil {
		return c.Defaults
	}
	merged := MergeMaps(base, override)

	var rule Rule
	if err := FromMap(merged, &rule); err != nil {
		return c.Defaults
	}
	return rule
}

// Masked returns a copy safe to return to clients: the shared secret is
// replaced with "***" when set.
func (c AutomationConfig) Masked() AutomationConfig {
	if c.SharedSecret != "" {
		c.SharedSecret = "***"
	}
	return c
}

// MergeMaps recursively merges override into a copy of base. Keys present
// in override always win, including false/empty values; keys absent from
// override keep the base value; nested objects merge key-by-key; arrays
// are replaced atomically. Neither input map is mutated.
func MergeMaps(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = cloneJSONValue(v)
	}
	for k, ov := range override {
		bm, baseIsMap := out[k].(map[string]any)
		om, overrideIsMap := ov.(map[string]any)
		if baseIsMap && overrideIsMap {
			out[k] = MergeMaps(bm, om)
			continue
		}
		out[k] = cloneJSONValue(ov)
	}
	return out
}

func cloneJSONValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return MergeMaps(t, nil)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = cloneJSONValue(e)
		}
		return cp
	default:
		return v
	}
}

// ToMap converts a typed value to its loose JSON map form.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap decodes a loose JSON map into the typed target.
func FromMap(m map[string]any, target any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
