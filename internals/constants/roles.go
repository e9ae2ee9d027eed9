package constants

// Role user di platform (lihat users/model).
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleTeacher    = "teacher"
	RoleStudent    = "student"
)

// AdminRoles: role yang boleh mengelola subscription & billing academy.
var AdminRoles = []string{RoleAdmin, RoleSupervisor}

// StaffRoles: admin + teacher (operasional session).
var StaffRoles = []string{RoleAdmin, RoleSupervisor, RoleTeacher}
