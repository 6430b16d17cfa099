package group

import "github.com/portcullis-admin/portcullis/internal/acl"

type formInput struct {
	Name      string `json:"name"      validate:"required"`
	IsDefault bool   `json:"isDefault"`
}

// Detail is the body of GET /api/groups/:id.
type Detail struct {
	Group   acl.GroupView    `json:"group"`
	Members []acl.MemberView `json:"members"`
	Grants  []acl.GrantView  `json:"grants"`
}

// Deletable is the body of GET /api/groups/:id/deletable.
type Deletable struct {
	Deletable bool     `json:"deletable"`
	Reasons   []string `json:"reasons,omitempty"`
}
