package stages

import (
	"context"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"github.com/kstepanov/bombardier/internal/stage"
)

// ChooseUserAccount selects a random pool member and assigns it onto the
// context exactly once (spec.md §4.8 #1). Non-retryable: a pool miss is a
// configuration problem the test can't fix by trying again.
type ChooseUserAccount struct {
	Deps Deps
}

func (ChooseUserAccount) Name() string { return "ChooseUserAccount" }

func (s ChooseUserAccount) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) stage.Continuation {
	userID, err := s.Deps.Pool.GetRandomUserID()
	if err != nil {
		// Pool exhaustion is a configuration/setup problem, not a
		// business-contract violation, so it is an unexpected error
		// (ExceptionFreeStage maps a plain error panic to Error), not Fail.
		panic(err)
	}
	if err := tc.SetUserID(userID); err != nil {
		panic(err)
	}
	return stage.Continue
}
