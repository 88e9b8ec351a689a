package school

import (
	"context"
	"time"

	"github.com/trezcool/stadi/core"
)

type School struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewSchool contains information needed to create a new School.
type NewSchool struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

func (ns *NewSchool) Validate(ctx context.Context, svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Address = core.CleanString(ns.Address)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ns.Name)
}

// UpdateSchool defines what information may be provided to modify an existing School.
type UpdateSchool struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (us *UpdateSchool) Validate(ctx context.Context, orig School, svc Service) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if addr := core.CleanString(us.Address); addr != "" {
		us.Address = addr
	} else {
		us.Address = orig.Address
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, us.Name, orig)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.Search == "" }

func (qf *QueryFilter) Clean() { qf.Search = core.CleanString(qf.Search) }
