package models

// Experience levels, lowest to highest seniority
const (
	LevelAspiring  = "aspiring"
	LevelJunior    = "junior"
	LevelPM        = "PM"
	LevelSenior    = "Senior"
	LevelPrincipal = "Principal"
	LevelDirector  = "Director"
)

// LevelHierarchy is the fixed ordering used for level gating
var LevelHierarchy = []string{
	LevelAspiring,
	LevelJunior,
	LevelPM,
	LevelSenior,
	LevelPrincipal,
	LevelDirector,
}

// LevelOrdinal returns the position of level in the hierarchy, or -1 if unknown.
func LevelOrdinal(level string) int {
	for i, l := range LevelHierarchy {
		if l == level {
			return i
		}
	}
	return -1
}

func IsKnownLevel(level string) bool {
	return LevelOrdinal(level) >= 0
}
