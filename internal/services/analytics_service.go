// Package services – AnalyticsService
//
// AnalyticsService assembles the dashboard payload. Engagement figures are
// demo values jittered around fixed baselines; twin and turn counts come from
// the store. Popular topics are measured from recent user messages when a
// classifier is configured and anything matches, and fall back to the demo
// split otherwise.
package services

import (
	"context"
	"math"
	"math/rand/v2"

	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/repo"
	"github.com/tbourn/echome-x/internal/topics"

	"go.opentelemetry.io/otel"
)

// Topic is one slice of the popular-topics chart.
type Topic struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
}

// Activity is one entry of the recent-activity feed.
type Activity struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Time  string `json:"time"`
}

// Analytics is the dashboard payload.
type Analytics struct {
	Followers           int        `json:"followers"`
	EngagementRate      float64    `json:"engagementRate"`
	TotalInteractions   int        `json:"totalInteractions"`
	AverageResponseTime float64    `json:"averageResponseTime"`
	PopularTopics       []Topic    `json:"popularTopics"`
	WeeklyData          []int      `json:"weeklyData"`
	RecentActivity      []Activity `json:"recentActivity"`
	TwinCount           int64      `json:"twinCount"`
	ConversationTurns   int64      `json:"conversationTurns"`
}

// AnalyticsService builds Analytics snapshots.
type AnalyticsService struct {
	DB *gorm.DB

	// Float returns a value in [0,1). Defaults to math/rand/v2.
	Float func() float64

	// Topics classifies recent messages; nil keeps the demo topic split.
	Topics *topics.Classifier
	// TopicSample is how many recent messages are classified (default 200).
	TopicSample int
}

// Snapshot returns the current dashboard figures. Store counts that cannot
// be read are reported as zero.
func (s *AnalyticsService) Snapshot(ctx context.Context) (*Analytics, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "Snapshot")
	defer span.End()

	rnd := s.Float
	if rnd == nil {
		rnd = rand.Float64
	}

	a := &Analytics{
		Followers:           2300 + int(rnd()*100),
		EngagementRate:      round1(87.3 + rnd()*4 - 2),
		TotalInteractions:   1250 + int(rnd()*50),
		AverageResponseTime: round1(1.2 + rnd()*0.4 - 0.2),
		PopularTopics: []Topic{
			{Name: "Technology", Percentage: 34},
			{Name: "Lifestyle", Percentage: 28},
			{Name: "Career", Percentage: 22},
			{Name: "Entertainment", Percentage: 16},
		},
		WeeklyData: []int{40, 65, 30, 80, 45, 90, 70},
		RecentActivity: []Activity{
			{Type: "conversation", Title: "New conversation started", Time: "2 minutes ago"},
			{Type: "engagement", Title: "50 new likes received", Time: "1 hour ago"},
			{Type: "growth", Title: "Engagement rate increased", Time: "3 hours ago"},
			{Type: "followers", Title: "100 new followers", Time: "6 hours ago"},
		},
	}

	if s.DB != nil {
		if n, err := repo.CountTwins(ctx, s.DB); err == nil {
			a.TwinCount = n
		} else {
			logFrom(ctx).Warn().Err(err).Msg("analytics: count twins failed")
		}
		if n, err := repo.CountAllTurns(ctx, s.DB); err == nil {
			a.ConversationTurns = n
		} else {
			logFrom(ctx).Warn().Err(err).Msg("analytics: count turns failed")
		}
		if measured := s.measuredTopics(ctx); measured != nil {
			a.PopularTopics = measured
		}
	}
	return a, nil
}

func (s *AnalyticsService) measuredTopics(ctx context.Context) []Topic {
	if s.Topics == nil {
		return nil
	}
	n := s.TopicSample
	if n <= 0 {
		n = 200
	}
	msgs, err := repo.ListRecentUserMessages(ctx, s.DB, n)
	if err != nil {
		logFrom(ctx).Warn().Err(err).Msg("analytics: load recent messages failed")
		return nil
	}
	shares := s.Topics.Shares(msgs)
	if len(shares) == 0 {
		return nil
	}
	out := make([]Topic, len(shares))
	for i, sh := range shares {
		out[i] = Topic{Name: sh.Name, Percentage: sh.Percentage}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
