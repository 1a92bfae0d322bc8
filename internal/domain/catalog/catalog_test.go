package catalog

import "testing"

func TestEveryBatchHasAMentor(t *testing.T) {
	for _, branch := range Branches {
		for _, batch := range BatchesFor(branch) {
			mentor, ok := MentorFor(batch)
			if !ok || mentor == "" {
				t.Fatalf("batch %s of %s has no mentor", batch, branch)
			}
		}
	}
}

func TestEveryMentorIsOnRoster(t *testing.T) {
	roster := map[string]bool{}
	for _, m := range Mentors {
		roster[m] = true
	}
	for _, branch := range Branches {
		for _, batch := range BatchesFor(branch) {
			mentor, _ := MentorFor(batch)
			if !roster[mentor] {
				t.Fatalf("mentor %q for batch %s missing from roster", mentor, batch)
			}
		}
	}
}

func TestBatchInBranch(t *testing.T) {
	if !BatchInBranch("BTECH CS", "A1") {
		t.Fatal("A1 should belong to BTECH CS")
	}
	if BatchInBranch("BTECH CS", "C1") {
		t.Fatal("C1 belongs to BTECH CE, not BTECH CS")
	}
	if BatchInBranch("NOPE", "A1") {
		t.Fatal("unknown branch should have no batches")
	}
}

func TestBatchesForCopies(t *testing.T) {
	got := BatchesFor("BTECH IT")
	if len(got) != 2 {
		t.Fatalf("expected 2 batches, got %v", got)
	}
	got[0] = "mutated"
	if again := BatchesFor("BTECH IT"); again[0] != "E1" {
		t.Fatal("BatchesFor must return a copy")
	}
}
