package rbac

// Wildcard grants every permission.
const Wildcard = "*"

// Policy is the YAML document mapping users to roles and roles to permissions.
//
//	roles:
//	  registrar: [diary.edit, diary.export_pdf]
//	  admin: ["*"]
//	users:
//	  alice: [registrar]
//	  bob: [admin]
//	default_roles: []
type Policy struct {
	Roles        map[string][]string `yaml:"roles"`
	Users        map[string][]string `yaml:"users"`
	DefaultRoles []string            `yaml:"default_roles"`
}
