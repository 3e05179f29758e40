package dto

// SocietyListQuery binds GET /societies query parameters.
type SocietyListQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
}

// EventCleanupResult reports how many stale events were removed.
type EventCleanupResult struct {
	Deleted int64 `json:"deleted"`
}
