// Package catalog holds the static academic reference data the leave
// workflow validates against: branches, their batch lists, and the mentor
// assigned to each batch. The tables are fixed at startup and read-only.
package catalog

// Branches in display order.
var Branches = []string{
	"BTECH CS",
	"BTECH CE",
	"BTECH AI-ML",
	"BTECH IT",
	"MBA TECH CE",
	"B-PHARM",
	"TEXTILE",
}

var branchBatches = map[string][]string{
	"BTECH CS":    {"A1", "A2", "B1", "B2"},
	"BTECH CE":    {"C1", "C2", "D1", "D2"},
	"BTECH AI-ML": {"F1", "F2"},
	"BTECH IT":    {"E1", "E2"},
	"MBA TECH CE": {"AB1", "AB2"},
	"B-PHARM":     {"P1", "P2", "P3"},
	"TEXTILE":     {"T1", "T2", "T3", "T4"},
}

// Mentors is the approver roster.
var Mentors = []string{
	"Dileep Kumar",
	"Bagal",
	"Sugam Shivare",
	"Rajshekhar Pothala",
	"DJ",
	"ASHOK PANIGRAHI",
	"Sachin Bhandari",
	"Rehan",
	"Suraj Patil",
}

var batchMentor = map[string]string{
	"A1": "Sugam Shivare", "A2": "Dileep Kumar", "B1": "Rajshekhar Pothala", "B2": "DJ",
	"C1": "ASHOK PANIGRAHI", "C2": "Sachin Bhandari", "D1": "Suraj Patil", "D2": "Rehan",
	"F1": "Dileep Kumar", "F2": "DJ",
	"E1": "Bagal", "E2": "Dileep Kumar",
	"AB1": "Sachin Bhandari", "AB2": "Rehan",
	"P1": "Dileep Kumar", "P2": "Dileep Kumar", "P3": "Dileep Kumar",
	"T1": "DJ", "T2": "DJ", "T3": "DJ", "T4": "DJ",
}

// KnownBranch reports whether branch is in the fixed branch list.
func KnownBranch(branch string) bool {
	_, ok := branchBatches[branch]
	return ok
}

// BatchesFor returns the batch list for a branch, nil for an unknown branch.
func BatchesFor(branch string) []string {
	batches, ok := branchBatches[branch]
	if !ok {
		return nil
	}
	out := make([]string, len(batches))
	copy(out, batches)
	return out
}

// BatchInBranch reports whether batch belongs to branch's batch list.
func BatchInBranch(branch, batch string) bool {
	for _, b := range branchBatches[branch] {
		if b == batch {
			return true
		}
	}
	return false
}

// MentorFor returns the mentor assigned to a batch. The comparison against a
// submitted teacher name is exact and case-sensitive.
func MentorFor(batch string) (string, bool) {
	mentor, ok := batchMentor[batch]
	return mentor, ok
}
