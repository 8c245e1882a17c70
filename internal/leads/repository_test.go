package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

func TestInMemorySaveLoadIsolated(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	s := qualification.NewSession("anon_1", qualification.ChannelWeb, time.Now())

	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.FullName = "mutated after save"

	got, err := repo.Load(ctx, "anon_1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.FullName != "" {
		t.Fatalf("stored session must not alias the caller's copy")
	}
}

func TestInMemoryLoadMissing(t *testing.T) {
	_, err := NewInMemoryRepository().Load(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestInMemorySaveRequiresID(t *testing.T) {
	err := NewInMemoryRepository().Save(context.Background(), &qualification.Session{})
	if !errors.Is(err, ErrInvalidSessionID) {
		t.Fatalf("expected ErrInvalidSessionID, got %v", err)
	}
}

func TestInMemoryListRecruitingOnly(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)

	customer := qualification.NewSession("anon_customer", qualification.ChannelWeb, base)
	recruit := qualification.NewSession("anon_recruit", qualification.ChannelWeb, base.Add(time.Minute))
	recruit.Stage = qualification.StageRecruitingInquiry

	for _, s := range []*qualification.Session{customer, recruit} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	all, err := repo.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "anon_recruit" {
		t.Fatalf("expected newest first, got %d sessions", len(all))
	}

	recruits, err := repo.List(ctx, ListFilter{RecruitingOnly: true})
	if err != nil {
		t.Fatalf("list recruiting: %v", err)
	}
	if len(recruits) != 1 || recruits[0].ID != "anon_recruit" {
		t.Fatalf("expected only the recruiting lead, got %+v", recruits)
	}
}

func TestInMemoryAppointmentsAreWriteOnce(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	b := qualification.Booking{SessionID: "anon_1", Name: "Ann", Age: 60, TicketNumber: "T1", Slot: "Monday, January 06 at 9:00 AM", BookedAt: time.Now()}

	if err := repo.RecordBooking(ctx, b); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordBooking(ctx, b); !errors.Is(err, ErrAppointmentExists) {
		t.Fatalf("expected ErrAppointmentExists, got %v", err)
	}

	appts, err := repo.ListAppointments(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(appts) != 1 || appts[0].SessionID != "anon_1" || !appts[0].Confirmed {
		t.Fatalf("unexpected appointments %+v", appts)
	}
}
