package answer_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/service/answer"
)

func TestBuildUserPrompt(t *testing.T) {
	prompt := answer.BuildUserPrompt("how do I auth?", "Use bearer tokens.")
	gt.Bool(t, strings.Contains(prompt, "Question: how do I auth?")).True()
	gt.Bool(t, strings.Contains(prompt, "Use bearer tokens.")).True()
}

func TestTruncateTurns(t *testing.T) {
	makeHistory := func(n int) []model.HistoryEntry {
		var out []model.HistoryEntry
		for i := 0; i < n; i++ {
			out = append(out,
				model.HistoryEntry{Role: types.RoleUser, Content: fmt.Sprintf("q%d", i)},
				model.HistoryEntry{Role: types.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
			)
		}
		return out
	}

	t.Run("short history untouched", func(t *testing.T) {
		history := makeHistory(2)
		gt.Array(t, answer.TruncateTurns(history, 5)).Length(4)
	})

	t.Run("drops oldest turns", func(t *testing.T) {
		history := makeHistory(5)
		got := answer.TruncateTurns(history, 2)
		gt.Array(t, got).Length(4)
		gt.Value(t, got[0].Content).Equal("q3")
		gt.Value(t, got[3].Content).Equal("a4")
	})

	t.Run("zero turns drops everything", func(t *testing.T) {
		gt.Array(t, answer.TruncateTurns(makeHistory(3), 0)).Length(0)
	})
}

func TestRenderHistory(t *testing.T) {
	t.Run("empty history renders empty", func(t *testing.T) {
		gt.Value(t, answer.RenderHistory(nil)).Equal("")
	})

	t.Run("roles and order preserved", func(t *testing.T) {
		got := answer.RenderHistory([]model.HistoryEntry{
			{Role: types.RoleUser, Content: "how do I auth?"},
			{Role: types.RoleAssistant, Content: "use tokens"},
		})
		userIdx := strings.Index(got, "user: how do I auth?")
		assistantIdx := strings.Index(got, "assistant: use tokens")
		gt.Bool(t, userIdx >= 0).True()
		gt.Bool(t, assistantIdx > userIdx).True()
	})
}
