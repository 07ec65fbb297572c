package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/campus-trade/internal/model"
)

func TestSetUserEnabled_AdminProtected(t *testing.T) {
	repo := &stubRepo{
		userByID: &model.User{ID: 1, Role: model.RoleAdmin, Enabled: true},
	}
	svc, _ := newTestService(repo)

	_, err := svc.SetUserEnabled(context.Background(), 1, false)
	if !errors.Is(err, ErrAdminAccount) {
		t.Fatalf("expected ErrAdminAccount, got %v", err)
	}
}

func TestSetUserEnabled_DisablesRegularUser(t *testing.T) {
	repo := &stubRepo{
		userByID: &model.User{ID: 2, Role: model.RoleUser, Enabled: true},
	}
	svc, _ := newTestService(repo)

	u, err := svc.SetUserEnabled(context.Background(), 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Enabled {
		t.Fatalf("user must be returned as disabled")
	}
	if repo.setEnabledID != 2 || repo.setEnabledValue {
		t.Fatalf("persisted (%d, %v), want (2, false)", repo.setEnabledID, repo.setEnabledValue)
	}
}

func TestResetUserPassword_AdminProtected(t *testing.T) {
	repo := &stubRepo{
		userByID: &model.User{ID: 1, Role: model.RoleAdmin},
	}
	svc, _ := newTestService(repo)

	_, err := svc.ResetUserPassword(context.Background(), 1)
	if !errors.Is(err, ErrAdminAccount) {
		t.Fatalf("expected ErrAdminAccount, got %v", err)
	}
}

func TestResetUserPassword_ReturnsMatchingPassword(t *testing.T) {
	repo := &stubRepo{
		userByID: &model.User{ID: 2, Role: model.RoleUser},
	}
	svc, _ := newTestService(repo)

	password, err := svc.ResetUserPassword(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(password) != 8 {
		t.Fatalf("password length = %d, want 8", len(password))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.updatedPasswordHash), []byte(password)); err != nil {
		t.Fatalf("stored hash does not match returned password: %v", err)
	}
}

func TestAdminRemoveListing_NotifiesSeller(t *testing.T) {
	repo := &stubRepo{
		listing: &model.Listing{ID: 5, Title: "Bicycle", SellerID: 3},
	}
	svc, dispatcher := newTestService(repo)

	if err := svc.AdminRemoveListing(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.markedRemovedID != 5 {
		t.Fatalf("removed listing = %d, want 5", repo.markedRemovedID)
	}

	if len(dispatcher.sent) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(dispatcher.sent))
	}
	n := dispatcher.sent[0]
	if n.Type != model.NotificationSystem {
		t.Fatalf("notification type = %s, want SYSTEM", n.Type)
	}
	if n.ReceiverID != 3 {
		t.Fatalf("notification receiver = %d, want 3", n.ReceiverID)
	}
}

func TestStatistics_Aggregates(t *testing.T) {
	repo := &stubRepo{countUsers: 10, countListings: 20, countOrders: 30}
	svc, _ := newTestService(repo)

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Users != 10 || stats.Listings != 20 || stats.Orders != 30 {
		t.Fatalf("statistics = %+v", stats)
	}
}
