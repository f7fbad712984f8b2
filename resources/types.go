package resources

import "time"

// Service call states.
const (
	CallOpen       = "open"
	CallAssigned   = "assigned"
	CallInProgress = "in_progress"
	CallClosed     = "closed"
)

// Room housekeeping states.
const (
	RoomDirty     = "dirty"
	RoomCleaning  = "cleaning"
	RoomClean     = "clean"
	RoomInspected = "inspected"
	RoomOutOfUse  = "out_of_order"
)

type Organization struct {
	ID        int64     `json:"id,omitempty"`
	Name      string    `json:"name,omitempty" validate:"omitempty,max=120"`
	Timezone  string    `json:"timezone,omitempty"`
	Locale    string    `json:"locale,omitempty" validate:"omitempty,bcp47_language_tag"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

type Category struct {
	ID             int64  `json:"id,omitempty"`
	OrganizationID int64  `json:"organizationId,omitempty"`
	Name           string `json:"name,omitempty" validate:"omitempty,max=80"`
	DepartmentID   int64  `json:"departmentId,omitempty"`
	Icon           string `json:"icon,omitempty"`
}

type Department struct {
	ID             int64  `json:"id,omitempty"`
	OrganizationID int64  `json:"organizationId,omitempty"`
	Name           string `json:"name,omitempty" validate:"omitempty,max=80"`
	Description    string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type Role struct {
	ID             int64    `json:"id,omitempty"`
	OrganizationID int64    `json:"organizationId,omitempty"`
	Name           string   `json:"name,omitempty" validate:"omitempty,max=80"`
	Permissions    []string `json:"permissions,omitempty"`
}

type User struct {
	ID             int64  `json:"id,omitempty"`
	OrganizationID int64  `json:"organizationId,omitempty"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName      string `json:"firstName,omitempty" validate:"omitempty,max=80"`
	LastName       string `json:"lastName,omitempty" validate:"omitempty,max=80"`
	DepartmentID   int64  `json:"departmentId,omitempty"`
	RoleID         int64  `json:"roleId,omitempty"`
	Active         *bool  `json:"active,omitempty"`
}

// ServiceCall is a guest or staff ticket routed to a department.
type ServiceCall struct {
	ID             int64      `json:"id,omitempty"`
	OrganizationID int64      `json:"organizationId,omitempty"`
	CategoryID     int64      `json:"categoryId,omitempty"`
	DepartmentID   int64      `json:"departmentId,omitempty"`
	RoomNumber     string     `json:"roomNumber,omitempty" validate:"omitempty,max=16"`
	Description    string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status         string     `json:"status,omitempty" validate:"omitempty,oneof=open assigned in_progress closed"`
	AssigneeID     int64      `json:"assigneeId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt,omitzero"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
}

// Room is an entry of the housekeeping board.
type Room struct {
	ID             int64  `json:"id,omitempty"`
	OrganizationID int64  `json:"organizationId,omitempty"`
	Number         string `json:"number,omitempty" validate:"omitempty,max=16"`
	Floor          int    `json:"floor,omitempty" validate:"gte=0"`
	Building       string `json:"building,omitempty"`
	Status         string `json:"status,omitempty" validate:"omitempty,oneof=dirty cleaning clean inspected out_of_order"`
	AssigneeID     int64  `json:"assigneeId,omitempty"`
}

// Range is an inclusive numeric bound sent as a JSON query value.
type Range struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// UserFilter narrows the user list. Zero fields are not sent.
type UserFilter struct {
	Search       string `schema:"search,omitempty"`
	DepartmentID int64  `schema:"departmentId,omitempty"`
	RoleID       int64  `schema:"roleId,omitempty"`
	Page         int    `schema:"page,omitempty"`
	PageSize     int    `schema:"pageSize,omitempty"`
}

// ServiceCallFilter narrows the service call list.
type ServiceCallFilter struct {
	Status       []string `schema:"status,omitempty"`
	DepartmentID int64    `schema:"departmentId,omitempty"`
	RoomNumber   string   `schema:"roomNumber,omitempty"`
	Page         int      `schema:"page,omitempty"`
	PageSize     int      `schema:"pageSize,omitempty"`
}

// RoomFilter narrows the housekeeping board.
type RoomFilter struct {
	Floors   *Range
	Statuses []string
	Building string
}
