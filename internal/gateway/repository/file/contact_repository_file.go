package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/platform/docstore"
)

// ContactRepositoryFile stores contacts and group aliases in one JSON
// document. Names are matched case-insensitively.
type ContactRepositoryFile struct {
	store  *docstore.Store
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

func NewContactRepositoryFile(store *docstore.Store, logger *slog.Logger) *ContactRepositoryFile {
	return &ContactRepositoryFile{
		store:  store,
		logger: logger.With("repository", "contacts_file"),
		now:    time.Now,
	}
}

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r *ContactRepositoryFile) load() (*domain.ContactBook, error) {
	var book domain.ContactBook
	if err := r.store.Load(&book); err != nil {
		if errors.Is(err, docstore.ErrNotExist) {
			return &domain.ContactBook{Contacts: []domain.Contact{}, Groups: []domain.GroupAlias{}}, nil
		}
		return nil, err
	}
	if book.Contacts == nil {
		book.Contacts = []domain.Contact{}
	}
	if book.Groups == nil {
		book.Groups = []domain.GroupAlias{}
	}
	return &book, nil
}

func (r *ContactRepositoryFile) save(book *domain.ContactBook) error {
	book.UpdatedAt = r.now().UnixMilli()
	return r.store.Save(book)
}

func (r *ContactRepositoryFile) Book(ctx context.Context) (*domain.ContactBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *ContactRepositoryFile) UpsertContact(ctx context.Context, c domain.Contact) (*domain.ContactBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normName(c.Name)
	if key == "" {
		return nil, fmt.Errorf("contact name required")
	}

	book, err := r.load()
	if err != nil {
		return nil, err
	}
	replaced := false
	for i, existing := range book.Contacts {
		if normName(existing.Name) == key {
			book.Contacts[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		book.Contacts = append(book.Contacts, c)
	}
	if err := r.save(book); err != nil {
		return nil, err
	}
	return book, nil
}

func (r *ContactRepositoryFile) DeleteContact(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, err := r.load()
	if err != nil {
		return false, err
	}
	key := normName(name)
	kept := book.Contacts[:0]
	for _, c := range book.Contacts {
		if normName(c.Name) != key {
			kept = append(kept, c)
		}
	}
	removed := len(kept) != len(book.Contacts)
	book.Contacts = kept
	if err := r.save(book); err != nil {
		return false, err
	}
	return removed, nil
}

func (r *ContactRepositoryFile) UpsertGroupAlias(ctx context.Context, g domain.GroupAlias) (*domain.ContactBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normName(g.Name)
	if key == "" {
		return nil, fmt.Errorf("group alias name required")
	}
	if !domain.IsGroupJID(g.JID) {
		return nil, fmt.Errorf("group jid must end with @g.us")
	}

	book, err := r.load()
	if err != nil {
		return nil, err
	}
	replaced := false
	for i, existing := range book.Groups {
		if normName(existing.Name) == key {
			book.Groups[i] = g
			replaced = true
			break
		}
	}
	if !replaced {
		book.Groups = append(book.Groups, g)
	}
	if err := r.save(book); err != nil {
		return nil, err
	}
	return book, nil
}

func (r *ContactRepositoryFile) DeleteGroupAlias(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, err := r.load()
	if err != nil {
		return false, err
	}
	key := normName(name)
	kept := book.Groups[:0]
	for _, g := range book.Groups {
		if normName(g.Name) != key {
			kept = append(kept, g)
		}
	}
	removed := len(kept) != len(book.Groups)
	book.Groups = kept
	if err := r.save(book); err != nil {
		return false, err
	}
	return removed, nil
}
