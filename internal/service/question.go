package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/media"
	"github.com/msomdec/askhub/internal/policy"
)

// VideoInput is an uploaded video attached to a question.
type VideoInput struct {
	Filename    string
	ContentType string
	Data        []byte
	// ReportedDuration is the client's reading of the video length, used
	// when the container cannot be probed.
	ReportedDuration time.Duration
}

// AskInput is a new question.
type AskInput struct {
	Title   string
	Content string
	Video   *VideoInput
}

// QuestionService submits questions under the per-plan daily quota and
// the video upload rules.
type QuestionService struct {
	questions domain.QuestionRepository
	files     domain.FileStore
	policy    *policy.Policy
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions domain.QuestionRepository, files domain.FileStore, pol *policy.Policy) *QuestionService {
	return &QuestionService{questions: questions, files: files, policy: pol}
}

// Ask validates and stores a question and returns it with the user's
// refreshed usage. Video checks run before anything is uploaded.
func (s *QuestionService) Ask(ctx context.Context, user *domain.User, in AskInput) (*domain.Question, policy.Usage, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, policy.Usage{}, fmt.Errorf("%w: title and content are required", domain.ErrInvalidInput)
	}

	if in.Video != nil {
		if err := s.checkVideo(user, in.Video); err != nil {
			return nil, policy.Usage{}, err
		}
	}

	since := s.policy.PeriodStart(s.policy.Now())
	count, err := s.questions.CountByUserSince(ctx, user.ID, since)
	if err != nil {
		return nil, policy.Usage{}, fmt.Errorf("count questions: %w", err)
	}
	if err := s.policy.CheckQuota(policy.ActionQuestion, user, count); err != nil {
		return nil, s.policy.Usage(policy.ActionQuestion, user, count), err
	}

	q := &domain.Question{UserID: user.ID, Title: title, Content: content, CreatedAt: s.policy.Now()}
	if in.Video != nil {
		key := fmt.Sprintf("question-videos/%d/%s-%s", user.ID, uuid.NewString(), sanitizeFilename(in.Video.Filename))
		err := s.files.Save(ctx, domain.StoredFile{Key: key, ContentType: in.Video.ContentType, Data: in.Video.Data})
		if err != nil {
			return nil, policy.Usage{}, fmt.Errorf("save video: %w", err)
		}
		q.VideoKey = key
	}

	limit := s.policy.Limit(policy.ActionQuestion, user)
	if err := s.questions.CreateWithinLimit(ctx, q, since, limit); err != nil {
		if q.VideoKey != "" {
			if delErr := s.files.Delete(ctx, q.VideoKey); delErr != nil {
				slog.Warn("delete orphaned video", "key", q.VideoKey, "error", delErr)
			}
		}
		if errors.Is(err, domain.ErrQuotaExceeded) {
			// Another request took the last slot between the count and the insert.
			return nil, s.policy.Usage(policy.ActionQuestion, user, limit),
				s.policy.CheckQuota(policy.ActionQuestion, user, limit)
		}
		return nil, policy.Usage{}, fmt.Errorf("create question: %w", err)
	}

	usage, err := s.Usage(ctx, user)
	if err != nil {
		return q, s.policy.Usage(policy.ActionQuestion, user, count+1), nil
	}
	return q, usage, nil
}

// checkVideo applies the plan, window, size, type and duration rules in
// that order, so an oversized file is rejected before it is probed.
func (s *QuestionService) checkVideo(user *domain.User, v *VideoInput) error {
	if err := s.policy.CheckVideoPlan(user); err != nil {
		return err
	}
	if err := s.policy.CheckWindow(policy.ActionVideoUpload); err != nil {
		return err
	}
	if err := s.policy.CheckVideoSize(int64(len(v.Data))); err != nil {
		return err
	}
	if !strings.HasPrefix(v.ContentType, "video/") {
		return fmt.Errorf("%w: Please upload a video file", domain.ErrUnsupportedMedia)
	}

	d, err := media.MP4Duration(v.Data)
	if err != nil {
		d = v.ReportedDuration
	}
	if d <= 0 {
		return fmt.Errorf("%w: could not determine the video length", domain.ErrUnsupportedMedia)
	}
	return s.policy.CheckVideoDuration(d)
}

// Usage returns today's question count against the user's plan limit.
func (s *QuestionService) Usage(ctx context.Context, user *domain.User) (policy.Usage, error) {
	count, err := s.questions.CountByUserSince(ctx, user.ID, s.policy.PeriodStart(s.policy.Now()))
	if err != nil {
		return policy.Usage{}, fmt.Errorf("count questions: %w", err)
	}
	return s.policy.Usage(policy.ActionQuestion, user, count), nil
}

// ListMine returns the user's questions, newest first.
func (s *QuestionService) ListMine(ctx context.Context, user *domain.User) ([]domain.Question, error) {
	return s.questions.ListByUser(ctx, user.ID)
}

// Video returns the video attached to a question.
func (s *QuestionService) Video(ctx context.Context, questionID int64) (*domain.StoredFile, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.VideoKey == "" {
		return nil, fmt.Errorf("%w: question has no video", domain.ErrNotFound)
	}
	f, err := s.files.Get(ctx, q.VideoKey)
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return f, nil
}

// sanitizeFilename keeps the base name and replaces characters that do
// not belong in a storage key.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if clean == "" || clean == "." || clean == ".." || clean == "/" {
		return "video"
	}
	return clean
}
