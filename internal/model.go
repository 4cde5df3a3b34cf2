package internal

import "time"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type GoalStatus string

const (
	GoalNotStarted GoalStatus = "not_started"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalOnHold     GoalStatus = "on_hold"
)

type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

type Goal struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"userId" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	StartDate   time.Time  `json:"startDate" db:"start_date"`
	EndDate     time.Time  `json:"endDate" db:"end_date"`
	Status      GoalStatus `json:"status" db:"status"`
	CategoryID  *string    `json:"categoryId,omitempty" db:"category_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Order is stored in the "position" column; "order" is a reserved word in SQL.
type Milestone struct {
	ID          string          `json:"id" db:"id"`
	GoalID      string          `json:"goalId" db:"goal_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description,omitempty" db:"description"`
	DueDate     time.Time       `json:"dueDate" db:"due_date"`
	Status      MilestoneStatus `json:"status" db:"status"`
	Order       int             `json:"order" db:"position"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

type Category struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
