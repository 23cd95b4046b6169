package todo

import "time"

// Todo is a single task owned by exactly one principal. Ownership is
// enforced by the store on every read and write.
type Todo struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput carries a new todo request.
type CreateInput struct {
	Title       string
	Description *string
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	ClearDesc   bool
	Completed   *bool
}

// Empty reports whether the update specifies nothing.
func (in UpdateInput) Empty() bool {
	return in.Title == nil && in.Description == nil && !in.ClearDesc && in.Completed == nil
}
