package olympiad

// Award names as they appear in data files.
const (
	AwardGold              = "Gold Medal"
	AwardSilver            = "Silver Medal"
	AwardBronze            = "Bronze Medal"
	AwardHonourableMention = "Honourable Mention"
)

// AwardTypes lists the awards in descending order of merit.
var AwardTypes = []string{AwardGold, AwardSilver, AwardBronze, AwardHonourableMention}

// AwardCounts counts awards of each type.
type AwardCounts struct {
	Gold              int `json:"gold"`
	Silver            int `json:"silver"`
	Bronze            int `json:"bronze"`
	HonourableMention int `json:"honourable_mention"`
}

// Add counts one award; unknown or empty awards are ignored.
func (a *AwardCounts) Add(award string) {
	switch award {
	case AwardGold:
		a.Gold++
	case AwardSilver:
		a.Silver++
	case AwardBronze:
		a.Bronze++
	case AwardHonourableMention:
		a.HonourableMention++
	}
}

// Merge adds all counts from b.
func (a *AwardCounts) Merge(b *AwardCounts) {
	if b == nil {
		return
	}
	a.Gold += b.Gold
	a.Silver += b.Silver
	a.Bronze += b.Bronze
	a.HonourableMention += b.HonourableMention
}

// Get returns the count for the named award.
func (a *AwardCounts) Get(award string) int {
	switch award {
	case AwardGold:
		return a.Gold
	case AwardSilver:
		return a.Silver
	case AwardBronze:
		return a.Bronze
	case AwardHonourableMention:
		return a.HonourableMention
	}
	return 0
}

// IsAward reports whether s names a known award.
func IsAward(s string) bool {
	for _, a := range AwardTypes {
		if a == s {
			return true
		}
	}
	return false
}
