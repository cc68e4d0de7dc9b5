package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
)

func TestShouldAutolearn(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	t.Run("единственный кандидат", func(t *testing.T) {
		assert.True(t, ShouldAutolearn(api_models.Decision{CandidatesCountFinal: 1}))
	})

	t.Run("уверенный реранк", func(t *testing.T) {
		d := api_models.Decision{CandidatesCountFinal: 3, RerankTopScore: score(0.9)}
		assert.True(t, ShouldAutolearn(d))
	})

	t.Run("порог реранка включительно", func(t *testing.T) {
		d := api_models.Decision{CandidatesCountFinal: 3, RerankTopScore: score(0.85)}
		assert.True(t, ShouldAutolearn(d))
	})

	t.Run("неуверенный реранк", func(t *testing.T) {
		d := api_models.Decision{CandidatesCountFinal: 3, RerankTopScore: score(0.84)}
		assert.False(t, ShouldAutolearn(d))
	})

	t.Run("несколько кандидатов без реранка", func(t *testing.T) {
		assert.False(t, ShouldAutolearn(api_models.Decision{CandidatesCountFinal: 4}))
	})
}
