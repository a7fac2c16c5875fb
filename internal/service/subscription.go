package service

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/policy"
)

// PlanOffer is one entry in the plan catalog.
type PlanOffer struct {
	Plan            domain.Plan
	Name            string
	PriceINR        int64
	QuestionsPerDay int // policy.Unlimited for no cap
	VideoQuestions  bool
	Features        []string
}

// SubscriptionStatus is the user's plan and whether payments are open now.
type SubscriptionStatus struct {
	Plan              domain.Plan
	EndDate           *time.Time
	PaymentWindowOpen bool
	PaymentWindow     string
}

var planPrices = map[domain.Plan]int64{
	domain.PlanFree:   0,
	domain.PlanBronze: 100,
	domain.PlanSilver: 300,
	domain.PlanGold:   1000,
}

// SubscriptionService lists plans and starts checkouts inside the payment
// window.
type SubscriptionService struct {
	gateway domain.PaymentGateway
	policy  *policy.Policy
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(gateway domain.PaymentGateway, pol *policy.Policy) *SubscriptionService {
	return &SubscriptionService{gateway: gateway, policy: pol}
}

// Plans returns the catalog from cheapest to most expensive. Question caps
// come from the live policy.
func (s *SubscriptionService) Plans() []PlanOffer {
	offers := make([]PlanOffer, 0, len(domain.Plans))
	for _, p := range domain.Plans {
		limit := s.policy.Limit(policy.ActionQuestion, &domain.User{Plan: p})
		video := s.policy.CheckVideoPlan(&domain.User{Plan: p}) == nil
		offers = append(offers, PlanOffer{
			Plan:            p,
			Name:            planTitle(p),
			PriceINR:        planPrices[p],
			QuestionsPerDay: limit,
			VideoQuestions:  video,
			Features:        planFeatures(limit, video),
		})
	}
	return offers
}

// Current reports the user's subscription.
func (s *SubscriptionService) Current(_ context.Context, user *domain.User) SubscriptionStatus {
	return SubscriptionStatus{
		Plan:              domain.ParsePlan(string(user.Plan)),
		EndDate:           user.SubscriptionEndDate,
		PaymentWindowOpen: s.policy.WindowOpen(policy.ActionPayment),
		PaymentWindow:     s.policy.Config().PaymentWindow.String(),
	}
}

// Checkout opens a hosted checkout for a paid plan. It fails outside the
// payment window, for the free plan and for the user's current plan.
func (s *SubscriptionService) Checkout(ctx context.Context, user *domain.User, planName string) (*domain.CheckoutSession, error) {
	if err := s.policy.CheckWindow(policy.ActionPayment); err != nil {
		return nil, err
	}
	if !domain.IsKnownPlan(planName) {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrInvalidInput, planName)
	}
	plan := domain.ParsePlan(planName)
	if plan == domain.PlanFree {
		return nil, fmt.Errorf("%w: the free plan does not need a payment", domain.ErrInvalidInput)
	}
	if plan == domain.ParsePlan(string(user.Plan)) {
		return nil, fmt.Errorf("%w: you are already on the %s plan", domain.ErrInvalidInput, planTitle(plan))
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		Plan:      plan,
		UserID:    user.ID,
		Email:     user.Email,
		AmountINR: planPrices[plan],
	})
	if err != nil {
		return nil, fmt.Errorf("%w: could not start checkout: %v", domain.ErrUpstream, err)
	}
	return sess, nil
}

func planTitle(p domain.Plan) string {
	switch p {
	case domain.PlanBronze:
		return "Bronze"
	case domain.PlanSilver:
		return "Silver"
	case domain.PlanGold:
		return "Gold"
	default:
		return "Free"
	}
}

func planFeatures(limit int, video bool) []string {
	var features []string
	switch {
	case limit == policy.Unlimited:
		features = append(features, "Unlimited questions per day")
	case limit == 1:
		features = append(features, "1 question per day")
	default:
		features = append(features, fmt.Sprintf("%d questions per day", limit))
	}
	if video {
		features = append(features, "Video questions")
	}
	features = append(features, "Public space posting")
	return features
}
