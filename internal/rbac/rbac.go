package rbac

type Role string
type Action string

const (
	RoleSubscriber Role = "subscriber"
	RoleAuthor     Role = "author"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
)

const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionPublish Action = "publish"
	ActionUpload  Action = "upload"
	ActionManage  Action = "manage"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleEditor:
		return action == ActionRead || action == ActionWrite || action == ActionPublish || action == ActionUpload
	case RoleAuthor:
		return action == ActionRead || action == ActionWrite || action == ActionUpload
	case RoleSubscriber:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleSubscriber, RoleAuthor, RoleEditor, RoleAdmin:
		return Role(role)
	default:
		return RoleSubscriber
	}
}
