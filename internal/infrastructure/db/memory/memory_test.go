package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	a, err := repo.Create(ctx, &domain.Account{User: domain.User{Email: " Brand@X.io "}, PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID != "1" || a.Email != "brand@x.io" {
		t.Fatalf("unexpected account %+v", a)
	}
	if _, err := repo.Create(ctx, &domain.Account{User: domain.User{Email: "BRAND@x.io"}}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	b, _ := repo.Create(ctx, &domain.Account{User: domain.User{Email: "second@x.io"}})
	if b.ID != "2" {
		t.Fatalf("expected sequential ids, got %q", b.ID)
	}

	if err := repo.UpdatePasswordHash(ctx, "1", "h2"); err != nil {
		t.Fatalf("update: %v", err)
	}
	found, err := repo.FindByEmail(ctx, "brand@X.IO")
	if err != nil || found.PasswordHash != "h2" {
		t.Fatalf("find by email: %+v, %v", found, err)
	}

	found.PasswordHash = "mutated"
	again, _ := repo.FindByID(ctx, "1")
	if again.PasswordHash != "h2" {
		t.Fatalf("repository leaked its internal copy")
	}

	if err := repo.Delete(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "brand@x.io"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
	if _, err := repo.Create(ctx, &domain.Account{User: domain.User{Email: "brand@x.io"}}); err != nil {
		t.Fatalf("email should be free after delete: %v", err)
	}
}

func TestAccountRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, &domain.Account{User: domain.User{Email: "same@x.io"}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one account, got %d", created)
	}
}

func TestCampaignRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignRepository()
	seed := []domain.Campaign{
		{ID: "c1", BrandID: "b1", BrandName: "Acme", Title: "Summer Glow", Category: "beauty", Status: domain.CampaignActive},
		{ID: "c2", BrandID: "b1", BrandName: "Acme", Title: "Winter Gear", Category: "sports", Status: domain.CampaignPaused},
		{ID: "c3", BrandID: "b2", BrandName: "Glow Co", Title: "Launch", Category: "beauty", Status: domain.CampaignActive},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter ports.ListCampaignsFilter
		total  int64
		ids    []string
	}{
		{"all newest first", ports.ListCampaignsFilter{Page: 1, Limit: 10}, 3, []string{"c3", "c2", "c1"}},
		{"by brand", ports.ListCampaignsFilter{BrandID: "b1", Page: 1, Limit: 10}, 2, []string{"c2", "c1"}},
		{"by status", ports.ListCampaignsFilter{Status: "active", Page: 1, Limit: 10}, 2, []string{"c3", "c1"}},
		{"by category", ports.ListCampaignsFilter{Category: "sports", Page: 1, Limit: 10}, 1, []string{"c2"}},
		{"search title or brand", ports.ListCampaignsFilter{Search: "GLOW", Page: 1, Limit: 10}, 2, []string{"c3", "c1"}},
		{"second page", ports.ListCampaignsFilter{Page: 2, Limit: 2}, 3, []string{"c1"}},
		{"past the end", ports.ListCampaignsFilter{Page: 5, Limit: 2}, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != tt.total {
				t.Fatalf("total = %d, want %d", total, tt.total)
			}
			got := make([]string, 0, len(items))
			for _, c := range items {
				got = append(got, c.ID)
			}
			if fmt.Sprint(got) != fmt.Sprint(append([]string{}, tt.ids...)) {
				t.Fatalf("ids = %v, want %v", got, tt.ids)
			}
		})
	}

	if _, err := repo.FindByID(ctx, "nope"); !errors.Is(err, domain.ErrCampaignNotFound) {
		t.Fatalf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestCampaignRepository_Collaborations(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignRepository()

	c := &domain.Collaboration{ID: "k1", CampaignID: "c1", BrandID: "b1", InfluencerID: "i1"}
	if err := repo.AddCollaboration(ctx, c); err != nil {
		t.Fatalf("add: %v", err)
	}
	dup := *c
	dup.ID = "k2"
	if err := repo.AddCollaboration(ctx, &dup); !errors.Is(err, domain.ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
	_ = repo.AddCollaboration(ctx, &domain.Collaboration{ID: "k3", CampaignID: "c2", BrandID: "b2", InfluencerID: "i1"})

	if got, _ := repo.Collaborations(ctx, "i1"); len(got) != 2 || got[0].ID != "k3" {
		t.Fatalf("influencer collaborations: %+v", got)
	}
	if got, _ := repo.Collaborations(ctx, "b1"); len(got) != 1 || got[0].ID != "k1" {
		t.Fatalf("brand collaborations: %+v", got)
	}
	if got, _ := repo.Collaborations(ctx, "nobody"); got == nil || len(got) != 0 {
		t.Fatalf("expected an empty, non-nil slice, got %#v", got)
	}
}

func TestRevoker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRevoker()
	r.now = func() time.Time { return now }

	_ = r.Revoke(ctx, "a", now.Add(time.Minute))
	_ = r.Revoke(ctx, "expired", now.Add(-time.Minute))

	if ok, _ := r.IsRevoked(ctx, "a"); !ok {
		t.Fatalf("expected a to be revoked")
	}
	if ok, _ := r.IsRevoked(ctx, "expired"); ok {
		t.Fatalf("expired token should not be tracked")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := r.IsRevoked(ctx, "a"); ok {
		t.Fatalf("revocation should lapse with the token")
	}
	_ = r.Revoke(ctx, "b", now.Add(time.Minute))
	if len(r.revoked) != 1 {
		t.Fatalf("expected lapsed entries to be pruned, have %d", len(r.revoked))
	}
}
