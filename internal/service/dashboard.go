package service

import (
	"math"
	"sort"
	"time"

	"github.com/kawafuchieirin/milestone-manager/internal"
)

// The dashboard projections are pure functions of the current goal and
// milestone collections: no mutation, no I/O, recomputed on every read.

const activityWindowDays = 365

type DashboardStats struct {
	TotalGoals          int `json:"totalGoals"`
	CompletedGoals      int `json:"completedGoals"`
	InProgressGoals     int `json:"inProgressGoals"`
	TotalMilestones     int `json:"totalMilestones"`
	CompletedMilestones int `json:"completedMilestones"`
	OverdueMilestones   int `json:"overdueMilestones"`
	StreakDays          int `json:"streakDays"`
}

type ActivityPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type SkillStat struct {
	Category string `json:"category"`
	Value    int    `json:"value"`
	FullMark int    `json:"fullMark"`
	Color    string `json:"color"`
}

type TimelineItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // goal | milestone
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

func ComputeStats(goals []internal.Goal, milestones []internal.Milestone, now time.Time) DashboardStats {
	stats := DashboardStats{
		TotalGoals:      len(goals),
		TotalMilestones: len(milestones),
	}
	for _, g := range goals {
		switch g.Status {
		case internal.GoalCompleted:
			stats.CompletedGoals++
		case internal.GoalInProgress:
			stats.InProgressGoals++
		}
	}
	today := now.UTC().Format(dateLayout)
	for _, m := range milestones {
		if m.Status == internal.MilestoneCompleted {
			stats.CompletedMilestones++
		} else if m.DueDate.UTC().Format(dateLayout) < today {
			stats.OverdueMilestones++
		}
	}
	stats.StreakDays = streakDays(goals, now)
	return stats
}

// streakDays counts consecutive days with goal activity, walking backward
// from today. A gap on day 0 does not end the walk, so activity yesterday
// still counts toward the streak when today has none yet; a gap on any later
// day does. The walk is bounded at the activity window.
func streakDays(goals []internal.Goal, now time.Time) int {
	activityDates := make(map[string]bool, len(goals))
	for _, g := range goals {
		activityDates[g.UpdatedAt.UTC().Format(dateLayout)] = true
	}

	streak := 0
	for i := 0; i < activityWindowDays; i++ {
		date := now.UTC().AddDate(0, 0, -i).Format(dateLayout)
		if activityDates[date] {
			streak++
		} else if i > 0 {
			break
		}
	}
	return streak
}

// ComputeActivity buckets goal activity into one entry per calendar day over
// the trailing window ending today: exactly activityWindowDays entries,
// ascending, gap-free. A goal contributes on its creation day and, if
// different, on its last-updated day.
func ComputeActivity(goals []internal.Goal, now time.Time) []ActivityPoint {
	counts := make(map[string]int)
	for _, g := range goals {
		created := g.CreatedAt.UTC().Format(dateLayout)
		updated := g.UpdatedAt.UTC().Format(dateLayout)
		counts[created]++
		if updated != created {
			counts[updated]++
		}
	}

	points := make([]ActivityPoint, 0, activityWindowDays)
	for i := activityWindowDays - 1; i >= 0; i-- {
		date := now.UTC().AddDate(0, 0, -i).Format(dateLayout)
		points = append(points, ActivityPoint{Date: date, Count: counts[date]})
	}
	return points
}

// ComputeSkillStats rolls up completion percentages per category over the
// goals that explicitly reference one. Uncategorized goals are excluded.
func ComputeSkillStats(goals []internal.Goal, categories []internal.Category) []SkillStat {
	type tally struct {
		total     int
		completed int
	}
	byCategory := make(map[string]*tally, len(categories))
	for _, c := range categories {
		byCategory[c.ID] = &tally{}
	}
	for _, g := range goals {
		if g.CategoryID == nil {
			continue
		}
		t, ok := byCategory[*g.CategoryID]
		if !ok {
			continue
		}
		t.total++
		if g.Status == internal.GoalCompleted {
			t.completed++
		}
	}

	stats := make([]SkillStat, 0, len(categories))
	for _, c := range categories {
		t := byCategory[c.ID]
		total := t.total
		if total < 1 {
			total = 1
		}
		stats = append(stats, SkillStat{
			Category: c.Name,
			Value:    int(math.Round(float64(t.completed) / float64(total) * 100)),
			FullMark: 100,
			Color:    c.Color,
		})
	}
	return stats
}

// ComputeTimeline projects completed goals and milestones into achievement
// entries sorted most recent first. The sort is stable so ties keep input
// order.
func ComputeTimeline(goals []internal.Goal, milestones []internal.Milestone) []TimelineItem {
	items := []TimelineItem{}
	for _, g := range goals {
		if g.Status != internal.GoalCompleted {
			continue
		}
		items = append(items, TimelineItem{
			ID:          g.ID,
			Type:        "goal",
			Title:       g.Title,
			Description: g.Description,
			CompletedAt: g.UpdatedAt,
		})
	}
	for _, m := range milestones {
		if m.Status != internal.MilestoneCompleted {
			continue
		}
		items = append(items, TimelineItem{
			ID:          m.ID,
			Type:        "milestone",
			Title:       m.Title,
			Description: m.Description,
			CompletedAt: m.UpdatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CompletedAt.After(items[j].CompletedAt)
	})
	return items
}
