// Package seed はローカル開発用のデモデータ投入を提供する。
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/skillsync/internal/model"
	"github.com/hitoshi/skillsync/internal/repository"
)

// demoUser はデモユーザーの定義。
type demoUser struct {
	email         string
	name          string
	location      string
	skillsOffered []string
	skillsWanted  []string
	availability  []string
	isPublic      bool
	isAdmin       bool
}

var demoUsers = []demoUser{
	{
		email:         "admin@skillsync.local",
		name:          "SkillSync Admin",
		location:      "Tokyo",
		skillsOffered: []string{"Management"},
		skillsWanted:  nil,
		availability:  []string{"weekdays"},
		isPublic:      false,
		isAdmin:       true,
	},
	{
		email:         "marc@example.com",
		name:          "Marc Demo",
		location:      "New York",
		skillsOffered: []string{"Photoshop", "Graphic Design"},
		skillsWanted:  []string{"Guitar", "Spanish"},
		availability:  []string{"weekends", "evenings"},
		isPublic:      true,
	},
	{
		email:         "michell@example.com",
		name:          "Michell",
		location:      "London",
		skillsOffered: []string{"Excel", "Data Analysis"},
		skillsWanted:  []string{"Photoshop"},
		availability:  []string{"weekends"},
		isPublic:      true,
	},
	{
		email:         "joe@example.com",
		name:          "Joe Wills",
		location:      "Berlin",
		skillsOffered: []string{"Guitar", "Music Theory"},
		skillsWanted:  []string{"Excel"},
		availability:  []string{"evenings"},
		isPublic:      true,
	},
}

// Run はデモユーザー・スワップ・フィードバックを投入する。
// 既にユーザーが存在する場合は何もしない（冪等）。
func Run(
	ctx context.Context,
	userRepo repository.UserRepository,
	swapRepo repository.SwapRequestRepository,
	feedbackRepo repository.FeedbackRepository,
) error {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		slog.Info("seed skipped: users already exist", slog.Int("count", count))
		return nil
	}

	now := time.Now()
	users := make([]*model.User, len(demoUsers))
	for i, d := range demoUsers {
		users[i] = &model.User{
			ID:            uuid.New().String(),
			Email:         d.email,
			Name:          d.name,
			Location:      d.location,
			SkillsOffered: d.skillsOffered,
			SkillsWanted:  d.skillsWanted,
			Availability:  d.availability,
			IsPublic:      d.isPublic,
			IsAdmin:       d.isAdmin,
			JoinDate:      now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := userRepo.Create(ctx, users[i]); err != nil {
			return fmt.Errorf("failed to create demo user %s: %w", d.email, err)
		}
	}

	marc, michell, joe := users[1], users[2], users[3]

	// 完了済みスワップ: Marc が Michell に Photoshop を教え、Excel を教わった
	completed := &model.SwapRequest{
		ID:             uuid.New().String(),
		SenderID:       marc.ID,
		ReceiverID:     michell.ID,
		SenderName:     marc.Name,
		ReceiverName:   michell.Name,
		SkillOffered:   "Photoshop",
		SkillRequested: "Excel",
		Message:        "Happy to trade design lessons for spreadsheet tips!",
		Status:         model.SwapStatusCompleted,
		CreatedAt:      now.Add(-72 * time.Hour),
		UpdatedAt:      now.Add(-24 * time.Hour),
	}
	if err := swapRepo.Create(ctx, completed); err != nil {
		return fmt.Errorf("failed to create demo swap: %w", err)
	}

	// 応答待ちスワップ: Joe から Marc へ
	pending := &model.SwapRequest{
		ID:             uuid.New().String(),
		SenderID:       joe.ID,
		ReceiverID:     marc.ID,
		SenderName:     joe.Name,
		ReceiverName:   marc.Name,
		SkillOffered:   "Guitar",
		SkillRequested: "Photoshop",
		Message:        "I can teach you some chords in exchange for design basics.",
		Status:         model.SwapStatusPending,
		CreatedAt:      now.Add(-6 * time.Hour),
		UpdatedAt:      now.Add(-6 * time.Hour),
	}
	if err := swapRepo.Create(ctx, pending); err != nil {
		return fmt.Errorf("failed to create demo swap: %w", err)
	}

	// 完了済みスワップへの相互フィードバック
	feedbacks := []*model.Feedback{
		{
			ID:            uuid.New().String(),
			SwapRequestID: completed.ID,
			FromUserID:    michell.ID,
			ToUserID:      marc.ID,
			FromUserName:  michell.Name,
			ToUserName:    marc.Name,
			Rating:        5,
			Comment:       "Great teacher, very patient with layers and masks.",
			CreatedAt:     now.Add(-23 * time.Hour),
		},
		{
			ID:            uuid.New().String(),
			SwapRequestID: completed.ID,
			FromUserID:    marc.ID,
			ToUserID:      michell.ID,
			FromUserName:  marc.Name,
			ToUserName:    michell.Name,
			Rating:        4,
			Comment:       "Learned a lot about pivot tables. Thanks!",
			CreatedAt:     now.Add(-22 * time.Hour),
		},
	}
	for _, fb := range feedbacks {
		if err := feedbackRepo.Create(ctx, fb); err != nil {
			return fmt.Errorf("failed to create demo feedback: %w", err)
		}
	}

	// フィードバックに合わせて評価値を再計算
	for _, u := range []*model.User{marc, michell} {
		avg, n, err := feedbackRepo.AverageRatingByToUser(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("failed to compute rating: %w", err)
		}
		if err := userRepo.UpdateReputation(ctx, u.ID, model.RoundRating(avg), n); err != nil {
			return fmt.Errorf("failed to update reputation: %w", err)
		}
	}

	slog.Info("demo data created",
		slog.Int("users", len(users)),
		slog.Int("swaps", 2),
		slog.Int("feedback", len(feedbacks)),
	)
	return nil
}
