package domain

// AdminRole is the role granted to the bootstrap superuser.
const AdminRole = "admin"

// Role groups the modules a user may open.
type Role struct {
	ID          int64
	Name        string
	Description *string
	Icon        *string
	IsActive    bool
}

// ModuleGroup is a top-level menu section.
type ModuleGroup struct {
	ID          int64
	Name        string
	Description *string
	Icon        *string
	SortOrder   int
}

// Module is a single menu entry pointing at a frontend route.
type Module struct {
	ID          int64
	GroupID     int64
	Name        string
	Route       string
	Icon        *string
	Description *string
	SortOrder   int
	IsActive    bool
}

// MenuGroup is a module group with the modules a role grants inside it.
type MenuGroup struct {
	ModuleGroup
	Modules []Module
}
