package models

// NoPhoto is stored when a report carries no photo URL.
const NoPhoto = "No photo"

// StatusReported is the only issue status in the current scope; there are no
// transition endpoints.
const StatusReported = "Reported"

// Issue is a reported civic problem. The reporter's username is snapshotted at
// creation time rather than joined on read.
type Issue struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Status      string `json:"status"`
	PhotoURL    string `json:"photoUrl"`
	CreatedAt   int64  `json:"createdAt"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
}
