package gamification

// Level is a tier derived from cumulative XP.
type Level struct {
	Number   int     `json:"number"`
	Name     string  `json:"name"`
	MinXP    int     `json:"min_xp"`
	NextXP   int     `json:"next_xp"`
	Progress float64 `json:"progress"`
}

type levelDef struct {
	minXP int
	name  string
}

var levels = []levelDef{
	{0, "Trainee"},
	{100, "Kitchen Porter"},
	{250, "Commis"},
	{500, "Line Cook"},
	{1000, "Chef de Partie"},
	{2000, "Sous Chef"},
	{3500, "Head Chef"},
	{5500, "Executive Chef"},
	{8000, "Quality Master"},
	{12000, "Compliance Legend"},
}

// MaxLevel is the highest reachable level number.
var MaxLevel = len(levels)

// GetUserLevel maps XP onto the level table. Negative XP counts as zero.
func GetUserLevel(xp int) Level {
	if xp < 0 {
		xp = 0
	}

	idx := 0
	for i, l := range levels {
		if xp >= l.minXP {
			idx = i
		}
	}

	current := levels[idx]
	level := Level{
		Number: idx + 1,
		Name:   current.name,
		MinXP:  current.minXP,
	}

	if idx == len(levels)-1 {
		level.NextXP = current.minXP
		level.Progress = 100
		return level
	}

	next := levels[idx+1]
	level.NextXP = next.minXP
	level.Progress = round1(float64(xp-current.minXP) / float64(next.minXP-current.minXP) * 100)
	return level
}
