package policy

import "github.com/msomdec/askhub/internal/domain"

// Unlimited is the limit value for actions with no daily cap.
const Unlimited = -1

// Exceeded reports whether count actions already taken exhaust limit.
func Exceeded(limit, count int) bool {
	return limit != Unlimited && count >= limit
}

// Quota resolves a user's per-day cap for one kind of action.
type Quota interface {
	Limit(u *domain.User) int
}

// PlanQuota caps an action by subscription plan. Users on an unknown plan
// get the free-tier cap.
type PlanQuota map[domain.Plan]int

// DefaultQuestionLimits is the question cap per plan.
func DefaultQuestionLimits() PlanQuota {
	return PlanQuota{
		domain.PlanFree:   1,
		domain.PlanBronze: 5,
		domain.PlanSilver: 10,
		domain.PlanGold:   Unlimited,
	}
}

func (q PlanQuota) Limit(u *domain.User) int {
	plan := domain.PlanFree
	if u != nil {
		plan = domain.ParsePlan(string(u.Plan))
	}
	if limit, ok := q[plan]; ok {
		return limit
	}
	return q[domain.PlanFree]
}

// FriendQuota caps posts by friend count: one post a day with no friends,
// one per friend below Threshold, and no cap from Threshold up.
type FriendQuota struct {
	Threshold int
}

func (q FriendQuota) Limit(u *domain.User) int {
	friends := 0
	if u != nil {
		friends = u.FriendCount
	}
	switch {
	case friends <= 0:
		return 1
	case friends < q.Threshold:
		return friends
	default:
		return Unlimited
	}
}

// Usage is how much of a daily quota a user has consumed.
type Usage struct {
	Action Action
	Used   int
	Limit  int
}

// Unlimited reports whether the quota has no cap.
func (u Usage) Unlimited() bool { return u.Limit == Unlimited }

// Remaining returns the actions left today, or Unlimited.
func (u Usage) Remaining() int {
	if u.Unlimited() {
		return Unlimited
	}
	return max(u.Limit-u.Used, 0)
}

// Exhausted reports whether no further action is allowed today.
func (u Usage) Exhausted() bool { return Exceeded(u.Limit, u.Used) }
