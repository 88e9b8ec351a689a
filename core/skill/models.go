package skill

import (
	"context"

	"github.com/trezcool/stadi/core"
)

// Skill is an entry of the 21st-century skills catalog
// (collaboration, communication, critical thinking, creativity...).
type Skill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewSkill contains information needed to create a new Skill.
type NewSkill struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (ns *NewSkill) Validate(ctx context.Context, svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ns.Name)
}

// UpdateSkill defines what information may be provided to modify an existing Skill.
type UpdateSkill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (us *UpdateSkill) Validate(ctx context.Context, orig Skill, svc Service) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if desc := core.CleanString(us.Description); desc != "" {
		us.Description = desc
	} else {
		us.Description = orig.Description
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, us.Name, orig)
}

type QueryFilter struct {
	Search string   `query:"search"`
	IDs    []string `query:"id"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.Search == "" && qf.IDs == nil }

func (qf *QueryFilter) Clean() { qf.Search = core.CleanString(qf.Search) }
