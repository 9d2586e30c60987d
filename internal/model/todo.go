package model

import "time"

// Status represents the completion state of a todo.
type Status string

const (
	StatusTodo Status = "TODO"
	StatusDone Status = "DONE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusDone
}

// Priority represents the urgency of a todo.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Todo represents a single task owned by a user. Attachment fields are
// all-or-nothing: either URL, FileName, and StorageKey are all set or all
// empty.
type Todo struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:100;not null;index"`
	Description string    `json:"description" gorm:"size:500;not null"`
	DueDate     time.Time `json:"dueDate" gorm:"not null;index"`
	Priority    Priority  `json:"priority" gorm:"type:varchar(10);not null;default:'MEDIUM';index"`
	Status      Status    `json:"status" gorm:"type:varchar(10);not null;default:'TODO';index"`
	URL         string    `json:"imageUrl,omitempty" gorm:"size:512"`
	FileName    string    `json:"fileName,omitempty" gorm:"size:255"`
	StorageKey  string    `json:"-" gorm:"size:255"`
	UserID      uint      `json:"userId" gorm:"not null;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Relations
	User *User `json:"-" gorm:"foreignKey:UserID"`

	// Owner summary for client display, populated by the service layer.
	Owner *OwnerSummary `json:"user,omitempty" gorm:"-"`
}

// HasAttachment reports whether the todo carries an uploaded file.
func (t *Todo) HasAttachment() bool {
	return t.StorageKey != ""
}
