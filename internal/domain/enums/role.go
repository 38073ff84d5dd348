package enums

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) IsStaff() bool {
	return r == RoleModerator || r == RoleAdmin
}

func (r Role) Valid() bool {
	return r == RoleUser || r.IsStaff()
}
