package handler

import (
	"strconv"
	"time"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/policy"
	"github.com/msomdec/askhub/internal/service"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID                  int64        `json:"id"`
	Email               string       `json:"email"`
	DisplayName         string       `json:"displayName"`
	AvatarURL           string       `json:"avatarUrl"`
	Phone               string       `json:"phone"`
	Language            string       `json:"language"`
	Plan                string       `json:"plan"`
	SubscriptionEndDate *string      `json:"subscriptionEndDate"`
	FriendCount         int          `json:"friendCount"`
	Location            *LocationDTO `json:"location"`
	LastLoginAt         *string      `json:"lastLoginAt"`
	CreatedAt           string       `json:"createdAt"`
	UpdatedAt           string       `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	dto := UserDTO{
		ID:                  u.ID,
		Email:               u.Email,
		DisplayName:         u.DisplayName,
		AvatarURL:           u.AvatarURL,
		Phone:               u.Phone,
		Language:            u.Language,
		Plan:                string(domain.ParsePlan(string(u.Plan))),
		SubscriptionEndDate: formatOptional(u.SubscriptionEndDate),
		FriendCount:         u.FriendCount,
		LastLoginAt:         formatOptional(u.LastLoginAt),
		CreatedAt:           u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           u.UpdatedAt.Format(time.RFC3339),
	}
	if u.Location != nil {
		loc := toLocationDTO(*u.Location)
		dto.Location = &loc
	}
	return dto
}

// LocationDTO is the JSON representation of a place.
type LocationDTO struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

func toLocationDTO(l domain.Location) LocationDTO {
	return LocationDTO{City: l.City, State: l.State, Country: l.Country}
}

// UsageDTO is the JSON representation of a daily quota. Limit and
// Remaining are null when the quota is unlimited.
type UsageDTO struct {
	Action    string `json:"action"`
	Used      int    `json:"used"`
	Limit     *int   `json:"limit"`
	Remaining *int   `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

func toUsageDTO(u policy.Usage) UsageDTO {
	dto := UsageDTO{Action: string(u.Action), Used: u.Used, Unlimited: u.Unlimited()}
	if !dto.Unlimited {
		limit, remaining := u.Limit, u.Remaining()
		dto.Limit = &limit
		dto.Remaining = &remaining
	}
	return dto
}

// QuestionDTO is the JSON representation of a question.
type QuestionDTO struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	VideoURL  *string `json:"videoUrl"`
	CreatedAt string  `json:"createdAt"`
}

func toQuestionDTO(q *domain.Question) QuestionDTO {
	dto := QuestionDTO{
		ID:        q.ID,
		Title:     q.Title,
		Content:   q.Content,
		CreatedAt: q.CreatedAt.Format(time.RFC3339),
	}
	if q.VideoKey != "" {
		u := "/api/questions/" + strconv.FormatInt(q.ID, 10) + "/video"
		dto.VideoURL = &u
	}
	return dto
}

func toQuestionDTOs(questions []domain.Question) []QuestionDTO {
	dtos := make([]QuestionDTO, len(questions))
	for i := range questions {
		dtos[i] = toQuestionDTO(&questions[i])
	}
	return dtos
}

// AuthorDTO is the public face of a post or comment author.
type AuthorDTO struct {
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

// CommentDTO is the JSON representation of a comment.
type CommentDTO struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	Content   string    `json:"content"`
	Author    AuthorDTO `json:"author"`
	CreatedAt string    `json:"createdAt"`
}

func toCommentDTO(c *domain.Comment) CommentDTO {
	return CommentDTO{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		Author:    AuthorDTO{Email: c.Author.Email, AvatarURL: c.Author.AvatarURL},
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// PostDTO is the JSON representation of a post.
type PostDTO struct {
	ID        int64        `json:"id"`
	Content   string       `json:"content"`
	MediaURL  string       `json:"mediaUrl,omitempty"`
	MediaType string       `json:"mediaType,omitempty"`
	Likes     int          `json:"likes"`
	Author    AuthorDTO    `json:"author"`
	Comments  []CommentDTO `json:"comments"`
	CreatedAt string       `json:"createdAt"`
}

func toPostDTO(p *domain.Post) PostDTO {
	comments := make([]CommentDTO, len(p.Comments))
	for i := range p.Comments {
		comments[i] = toCommentDTO(&p.Comments[i])
	}
	return PostDTO{
		ID:        p.ID,
		Content:   p.Content,
		MediaURL:  p.MediaURL,
		MediaType: string(p.MediaType),
		Likes:     p.Likes,
		Author:    AuthorDTO{Email: p.Author.Email, AvatarURL: p.Author.AvatarURL},
		Comments:  comments,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toPostDTOs(posts []domain.Post) []PostDTO {
	dtos := make([]PostDTO, len(posts))
	for i := range posts {
		dtos[i] = toPostDTO(&posts[i])
	}
	return dtos
}

// PlanDTO is one entry of the plan catalog.
type PlanDTO struct {
	Plan            string   `json:"plan"`
	Name            string   `json:"name"`
	PriceINR        int64    `json:"priceInr"`
	QuestionsPerDay *int     `json:"questionsPerDay"`
	VideoQuestions  bool     `json:"videoQuestions"`
	Features        []string `json:"features"`
}

func toPlanDTOs(offers []service.PlanOffer) []PlanDTO {
	dtos := make([]PlanDTO, len(offers))
	for i, o := range offers {
		dto := PlanDTO{
			Plan:           string(o.Plan),
			Name:           o.Name,
			PriceINR:       o.PriceINR,
			VideoQuestions: o.VideoQuestions,
			Features:       o.Features,
		}
		if o.QuestionsPerDay != policy.Unlimited {
			n := o.QuestionsPerDay
			dto.QuestionsPerDay = &n
		}
		dtos[i] = dto
	}
	return dtos
}

// LoginEventDTO is the JSON representation of a sign-in.
type LoginEventDTO struct {
	LoginTime string `json:"loginTime"`
	Browser   string `json:"browser"`
	OS        string `json:"os"`
	Device    string `json:"device"`
	IPAddress string `json:"ipAddress"`
}

func toLoginEventDTOs(events []domain.LoginEvent) []LoginEventDTO {
	dtos := make([]LoginEventDTO, len(events))
	for i, e := range events {
		dtos[i] = LoginEventDTO{
			LoginTime: e.LoginTime.Format(time.RFC3339),
			Browser:   e.Browser,
			OS:        e.OS,
			Device:    e.Device,
			IPAddress: e.IPAddress,
		}
	}
	return dtos
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
