package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/policy"
)

const feedSize = 50

// PostInput is a new post. MediaURL points at an already hosted image or
// video.
type PostInput struct {
	Content   string
	MediaURL  string
	MediaType domain.MediaType
}

// PostService runs the public space: posting under the friend-based
// quota, the feed, likes and comments.
type PostService struct {
	posts  domain.PostRepository
	policy *policy.Policy
}

// NewPostService creates a new PostService.
func NewPostService(posts domain.PostRepository, pol *policy.Policy) *PostService {
	return &PostService{posts: posts, policy: pol}
}

// Create stores a post if the user's friend count still allows one today.
func (s *PostService) Create(ctx context.Context, user *domain.User, in PostInput) (*domain.Post, policy.Usage, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, policy.Usage{}, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}

	mediaURL := strings.TrimSpace(in.MediaURL)
	mediaType := in.MediaType
	if mediaURL != "" {
		if mediaType != domain.MediaTypeImage && mediaType != domain.MediaTypeVideo {
			return nil, policy.Usage{}, fmt.Errorf("%w: media type must be image or video", domain.ErrInvalidInput)
		}
		u, err := url.Parse(mediaURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, policy.Usage{}, fmt.Errorf("%w: media URL must be an absolute http(s) URL", domain.ErrInvalidInput)
		}
	} else {
		mediaType = ""
	}

	since := s.policy.PeriodStart(s.policy.Now())
	count, err := s.posts.CountByUserSince(ctx, user.ID, since)
	if err != nil {
		return nil, policy.Usage{}, fmt.Errorf("count posts: %w", err)
	}
	if err := s.policy.CheckQuota(policy.ActionPost, user, count); err != nil {
		return nil, s.policy.Usage(policy.ActionPost, user, count), err
	}

	p := &domain.Post{UserID: user.ID, Content: content, MediaURL: mediaURL, MediaType: mediaType, CreatedAt: s.policy.Now()}
	limit := s.policy.Limit(policy.ActionPost, user)
	if err := s.posts.CreateWithinLimit(ctx, p, since, limit); err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			return nil, s.policy.Usage(policy.ActionPost, user, limit),
				s.policy.CheckQuota(policy.ActionPost, user, limit)
		}
		return nil, policy.Usage{}, fmt.Errorf("create post: %w", err)
	}
	p.Author = domain.Author{Email: user.Email, AvatarURL: user.AvatarURL}

	return p, s.policy.Usage(policy.ActionPost, user, count+1), nil
}

// Feed returns the newest posts with their authors and comments.
func (s *PostService) Feed(ctx context.Context) ([]domain.Post, error) {
	return s.posts.ListFeed(ctx, feedSize)
}

// Like adds one like and returns the new total.
func (s *PostService) Like(ctx context.Context, postID int64) (int, error) {
	return s.posts.IncrementLikes(ctx, postID)
}

// Comment adds a comment to a post.
func (s *PostService) Comment(ctx context.Context, user *domain.User, postID int64, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment cannot be empty", domain.ErrInvalidInput)
	}
	c := &domain.Comment{PostID: postID, UserID: user.ID, Content: content}
	if err := s.posts.AddComment(ctx, c); err != nil {
		return nil, err
	}
	c.Author = domain.Author{Email: user.Email, AvatarURL: user.AvatarURL}
	return c, nil
}

// Usage returns today's post count against the user's friend-based limit.
func (s *PostService) Usage(ctx context.Context, user *domain.User) (policy.Usage, error) {
	count, err := s.posts.CountByUserSince(ctx, user.ID, s.policy.PeriodStart(s.policy.Now()))
	if err != nil {
		return policy.Usage{}, fmt.Errorf("count posts: %w", err)
	}
	return s.policy.Usage(policy.ActionPost, user, count), nil
}
