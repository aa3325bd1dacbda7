package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want string
	}{
		{id: "los-angeles-lakers", want: "Los Angeles Lakers"},
		{id: "philadelphia-76ers", want: "Philadelphia 76ers"},
		{id: "  utah-jazz ", want: "Utah Jazz"},
		{id: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTeam(tt.id).DisplayName())
		})
	}
}

func TestPlayerIdentityAndOverall(t *testing.T) {
	t.Parallel()

	p := Player{Name: "LeBron James"}
	assert.False(t, p.HasIdentity())
	p.Team = "Los Angeles Lakers"
	assert.True(t, p.HasIdentity())

	_, ok := p.OverallValue()
	assert.False(t, ok)
	p.Overall = Int(96)
	v, ok := p.OverallValue()
	assert.True(t, ok)
	assert.Equal(t, 96, v)
}

func TestDefaultTeamsAreUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, len(DefaultTeams))
	for _, id := range DefaultTeams {
		_, dup := seen[id]
		assert.False(t, dup, "duplicate team %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, DefaultTeams, 30)
}
