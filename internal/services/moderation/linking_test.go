package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/pkg/validate"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	"github.com/coinmews/coinmews/internal/services/audit"
)

type fakeLinker struct {
	users  map[int64]model.User
	linked map[int64]int64
}

func (f *fakeLinker) FindByID(_ context.Context, id int64) (model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeLinker) LinkTelegram(_ context.Context, userID, telegramID int64) error {
	for owner, linked := range f.linked {
		if linked == telegramID && owner != userID {
			return pgrepo.ErrTelegramLinked
		}
	}
	f.linked[userID] = telegramID
	return nil
}

type recordedAudit struct {
	entries []audit.Entry
}

func (r *recordedAudit) Record(_ context.Context, entries ...audit.Entry) {
	r.entries = append(r.entries, entries...)
}

func newLinkingForTest() (*Service, *fakeSender, *fakeLinker, *recordedAudit) {
	sender := &fakeSender{}
	linker := &fakeLinker{
		users: map[int64]model.User{
			3: {ID: 3, DisplayName: "Mod", Role: enums.RoleModerator, IsActive: true},
			4: {ID: 4, Role: enums.RoleUser, IsActive: true},
			5: {ID: 5, Role: enums.RoleAdmin, IsActive: true},
		},
		linked: map[int64]int64{},
	}
	recorder := &recordedAudit{}
	svc := NewService(sender, -100, "", nil)
	svc.AttachLinker(linker, recorder)
	return svc, sender, linker, recorder
}

func TestLinkStaffAccount(t *testing.T) {
	svc, sender, linker, recorder := newLinkingForTest()

	user, err := svc.LinkStaffAccount(context.Background(), 5, 3, 4242)
	if err != nil {
		t.Fatalf("link staff account: %v", err)
	}
	if user.TelegramID == nil || *user.TelegramID != 4242 {
		t.Fatalf("unexpected telegram id on user: %v", user.TelegramID)
	}
	if linker.linked[3] != 4242 {
		t.Fatalf("unexpected stored link: got %d want 4242", linker.linked[3])
	}
	if len(recorder.entries) != 1 || recorder.entries[0].Action != enums.AuditActionTelegramLinked {
		t.Fatalf("unexpected audit entries: %+v", recorder.entries)
	}
	if len(sender.texts) != 1 {
		t.Fatalf("expected a confirmation message, got %d", len(sender.texts))
	}
}

func TestLinkStaffAccountRejections(t *testing.T) {
	svc, _, _, _ := newLinkingForTest()
	ctx := context.Background()

	if _, err := svc.LinkStaffAccount(ctx, 5, 4, 1); !errors.Is(err, ErrNotStaff) {
		t.Fatalf("expected ErrNotStaff, got %v", err)
	}
	if _, err := svc.LinkStaffAccount(ctx, 5, 99, 1); !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected ErrStaffNotFound, got %v", err)
	}

	var fields validate.Errors
	if _, err := svc.LinkStaffAccount(ctx, 5, 3, 0); !errors.As(err, &fields) || fields["telegram_id"] == "" {
		t.Fatalf("expected telegram_id validation error, got %v", err)
	}

	if _, err := svc.LinkStaffAccount(ctx, 5, 3, 77); err != nil {
		t.Fatalf("link moderator: %v", err)
	}
	if _, err := svc.LinkStaffAccount(ctx, 5, 5, 77); !errors.Is(err, ErrAlreadyLinked) {
		t.Fatalf("expected ErrAlreadyLinked, got %v", err)
	}

	offline := NewService(nil, 0, "", nil)
	if _, err := offline.LinkStaffAccount(ctx, 5, 3, 77); !errors.Is(err, ErrLinkingOffline) {
		t.Fatalf("expected ErrLinkingOffline, got %v", err)
	}
}
