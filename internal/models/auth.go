package models

// LoginRequest defines the structure for member login/registration requests.
// An unknown identity is registered on the fly.
type LoginRequest struct {
	Identity     string `json:"identity" binding:"required"` // Email, phone or user id
	Name         string `json:"name"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode"`
}

// AdminLoginRequest defines the structure for master admin login requests
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned by both login endpoints
type LoginResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Created bool   `json:"created"`
}

// AppStats summarises the system for the admin dashboard
type AppStats struct {
	TotalUsers         int              `json:"totalUsers"`
	ActiveUsers        int              `json:"activeUsers"`
	BannedUsers        int              `json:"bannedUsers"`
	TotalPaid          int              `json:"totalPaid"`
	ActiveTasks        int              `json:"activeTasks"`
	PendingWithdrawals int              `json:"pendingWithdrawals"`
	TasksByType        map[TaskType]int `json:"tasksByType"`
}

// StreakStatus is returned by GET /me/streak
type StreakStatus struct {
	StreakCount     int `json:"streakCount"`
	NextMilestone   int `json:"nextMilestone"`
	MilestoneBonus  int `json:"milestoneBonus"`
	ProgressPercent int `json:"progressPercent"`
}
