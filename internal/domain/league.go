package domain

// League is an ordered competitive tier a user climbs through weekly
// promotion/demotion cycles.
type League string

const (
	LeagueBronze  League = "BRONZE"
	LeagueSilver  League = "SILVER"
	LeagueGold    League = "GOLD"
	LeagueDiamond League = "DIAMOND"
	LeagueElite   League = "ELITE"
)

// leagueOrder defines the promotion ladder, lowest tier first.
var leagueOrder = []League{
	LeagueBronze,
	LeagueSilver,
	LeagueGold,
	LeagueDiamond,
	LeagueElite,
}

// Leagues returns the promotion ladder, lowest tier first.
func Leagues() []League {
	out := make([]League, len(leagueOrder))
	copy(out, leagueOrder)
	return out
}

func (l League) ordinal() int {
	for i, tier := range leagueOrder {
		if tier == l {
			return i
		}
	}
	return 0
}

// Next returns the tier one step up; promotion at the top tier is a no-op.
func (l League) Next() League {
	i := l.ordinal()
	if i >= len(leagueOrder)-1 {
		return leagueOrder[len(leagueOrder)-1]
	}
	return leagueOrder[i+1]
}

// Previous returns the tier one step down; demotion at the bottom tier is a no-op.
func (l League) Previous() League {
	i := l.ordinal()
	if i <= 0 {
		return leagueOrder[0]
	}
	return leagueOrder[i-1]
}

// Valid reports whether l is a known tier.
func (l League) Valid() bool {
	for _, tier := range leagueOrder {
		if tier == l {
			return true
		}
	}
	return false
}
