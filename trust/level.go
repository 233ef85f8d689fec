// Package trust maps the caller's mandatory integrity label to a trust level
// and decides whether it is high enough to open and dump another process.
package trust

import "fmt"

// Level is a mandatory integrity level, ordered from least to most trusted
type Level int

const (
	Untrusted Level = iota
	Low
	Medium
	MediumPlus
	High
	System
	ProtectedProcess
)

// Mandatory label RIDs (SECURITY_MANDATORY_*_RID).
const (
	RankUntrusted        uint32 = 0x0000
	RankLow              uint32 = 0x1000
	RankMedium           uint32 = 0x2000
	RankMediumPlus       uint32 = 0x2100
	RankHigh             uint32 = 0x3000
	RankSystem           uint32 = 0x4000
	RankProtectedProcess uint32 = 0x5000
)

var levelRanks = map[Level]uint32{
	Untrusted:        RankUntrusted,
	Low:              RankLow,
	Medium:           RankMedium,
	MediumPlus:       RankMediumPlus,
	High:             RankHigh,
	System:           RankSystem,
	ProtectedProcess: RankProtectedProcess,
}

var levelNames = map[Level]string{
	Untrusted:        "Untrusted",
	Low:              "Low",
	Medium:           "Medium",
	MediumPlus:       "MediumPlus",
	High:             "High",
	System:           "System",
	ProtectedProcess: "ProtectedProcess",
}

// FromRank maps a label RID to its Level. Unknown RIDs fail closed to Untrusted.
func FromRank(rank uint32) Level {
	for level, r := range levelRanks {
		if r == rank {
			return level
		}
	}
	return Untrusted
}

// Rank returns the label RID for l
func (l Level) Rank() uint32 {
	return levelRanks[l]
}

// IsPrivileged is true for High, System and ProtectedProcess
func (l Level) IsPrivileged() bool {
	switch l {
	case High, System, ProtectedProcess:
		return true
	default:
		return false
	}
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}
