package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/gateway/repository"
)

// Resolver turns a free-form "to" value into a concrete JID. The lookup
// chain is: literal JID, phone number, admin group alias, admin contact,
// then the live group-subject cache. Ambiguity fails closed.
type Resolver struct {
	contacts repository.ContactRepository
	groups   *GroupDirectory
}

func NewResolver(contacts repository.ContactRepository, groups *GroupDirectory) *Resolver {
	return &Resolver{contacts: contacts, groups: groups}
}

// Resolve maps a recipient string to a JID.
func (r *Resolver) Resolve(ctx context.Context, to string) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return "", fmt.Errorf("missing recipient: %w", &domain.UnresolvedRecipientError{Input: to})
	}

	if strings.Contains(to, "@") {
		return to, nil
	}
	if looksLikePhone(to) {
		return ToUserJID(to)
	}

	book, err := r.contacts.Book(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read contacts: %w", err)
	}
	key := normName(to)

	for _, g := range book.Groups {
		if normName(g.Name) == key && g.JID != "" {
			return g.JID, nil
		}
	}
	for _, c := range book.Contacts {
		if normName(c.Name) != key {
			continue
		}
		if c.JID != "" {
			return c.JID, nil
		}
		if c.MSISDN != "" {
			return ToUserJID(c.MSISDN)
		}
	}

	matches := r.groups.FindByName(to)
	switch len(matches) {
	case 0:
		return "", &domain.UnresolvedRecipientError{Input: to}
	case 1:
		return matches[0].JID, nil
	default:
		return "", &domain.AmbiguousGroupError{Input: to, Matches: matches}
	}
}

// ToUserJID normalizes a phone number to a user JID. Numbers are treated
// as South African: a leading 00 is stripped, a leading 0 becomes 27.
func ToUserJID(msisdn string) (string, error) {
	raw := strings.TrimSpace(msisdn)
	if raw == "" {
		return "", fmt.Errorf("invalid phone number: empty")
	}
	digits := digitsOnly(raw)
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}
	if strings.HasPrefix(digits, "0") {
		digits = "27" + digits[1:]
	}
	if len(digits) < 9 {
		return "", fmt.Errorf("invalid phone number: too short")
	}
	return digits + "@s.whatsapp.net", nil
}

func looksLikePhone(s string) bool {
	n := len(digitsOnly(s))
	return n >= 9 && n <= 15
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
