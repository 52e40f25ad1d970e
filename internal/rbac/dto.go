package rbac

type CreateRoleDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type CreatePermissionDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type AssignRoleDTO struct {
	RoleID int64 `json:"role_id" validate:"required,gt=0"`
}

type GrantPermissionDTO struct {
	PermissionID int64 `json:"permission_id" validate:"required,gt=0"`
}

type RolesResponse struct {
	Items      []*Role `json:"items"`
	TotalCount int64   `json:"total_count"`
	PageNumber int     `json:"page_number"`
	PageSize   int     `json:"page_size"`
}

type PermissionsResponse struct {
	Permissions []*Permission `json:"permissions"`
}
