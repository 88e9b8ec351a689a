package gradersvc

import (
	"context"

	"github.com/trezcool/stadi/core"
)

// GraderMock returns a canned result (or error) without calling any model.
type GraderMock struct {
	Result core.GradeResult
	Err    error
}

var _ core.Grader = (*GraderMock)(nil)

func (g *GraderMock) Grade(context.Context, core.GradeInput) (core.GradeResult, error) {
	if g.Err != nil {
		return core.GradeResult{}, g.Err
	}
	return g.Result, nil
}
