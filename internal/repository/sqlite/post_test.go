package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/askhub/internal/domain"
)

func TestPostRepository_FeedWithAuthorsAndComments(t *testing.T) {
	db := newTestDB(t)
	repo := db.Posts()
	ctx := context.Background()
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")

	first := &domain.Post{UserID: alice.ID, Content: "hello"}
	if err := repo.CreateWithinLimit(ctx, first, time.Now(), -1); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := &domain.Post{UserID: bob.ID, Content: "pic", MediaURL: "https://img.example.com/a.png", MediaType: domain.MediaTypeImage}
	if err := repo.CreateWithinLimit(ctx, second, time.Now(), -1); err != nil {
		t.Fatalf("create second: %v", err)
	}

	if err := repo.AddComment(ctx, &domain.Comment{PostID: first.ID, UserID: bob.ID, Content: "hi alice"}); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	feed, err := repo.ListFeed(ctx, 50)
	if err != nil {
		t.Fatalf("ListFeed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(feed))
	}
	if feed[0].ID != second.ID || feed[0].Author.Email != "bob@example.com" || feed[0].MediaType != domain.MediaTypeImage {
		t.Fatalf("unexpected newest post %+v", feed[0])
	}
	if len(feed[1].Comments) != 1 || feed[1].Comments[0].Author.Email != "bob@example.com" {
		t.Fatalf("expected bob's comment on alice's post, got %+v", feed[1].Comments)
	}
}

func TestPostRepository_CreateWithinLimit(t *testing.T) {
	db := newTestDB(t)
	repo := db.Posts()
	ctx := context.Background()
	u := seedUser(t, db, "poster@example.com")
	since := time.Now().Add(-time.Hour)

	if err := repo.CreateWithinLimit(ctx, &domain.Post{UserID: u.ID, Content: "one"}, since, 1); err != nil {
		t.Fatalf("first post: %v", err)
	}
	err := repo.CreateWithinLimit(ctx, &domain.Post{UserID: u.ID, Content: "two"}, since, 1)
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestPostRepository_IncrementLikesIsAtomic(t *testing.T) {
	db := newTestDB(t)
	repo := db.Posts()
	ctx := context.Background()
	u := seedUser(t, db, "liked@example.com")

	p := &domain.Post{UserID: u.ID, Content: "like me"}
	if err := repo.CreateWithinLimit(ctx, p, time.Now(), -1); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.IncrementLikes(ctx, p.ID); err != nil {
				t.Errorf("IncrementLikes: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Likes != 25 {
		t.Fatalf("expected 25 likes, got %d", got.Likes)
	}

	if _, err := repo.IncrementLikes(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostRepository_AddComment_UnknownPost(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "commenter@example.com")

	err := db.Posts().AddComment(context.Background(), &domain.Comment{PostID: 424242, UserID: u.ID, Content: "?"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
