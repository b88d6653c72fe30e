package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/stage"
)

func TestOrderAbandoned_SkippedByProbability(t *testing.T) {
	deps := newTestDeps()
	deps.AbandonProbability = 0

	s := OrderAbandoned{Deps: deps}
	result := s.Run(context.Background(), models.NewTestContext("svc"), &fakeAPI{})

	assert.Equal(t, stage.Continue, result)
}
