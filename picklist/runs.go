package picklist

import (
	"fmt"
	"sort"
)

// PlatesPerRun is the number of plates the plate reader reads in one run of
// the standard screen.
const PlatesPerRun = 15

type Role string

const (
	RoleTest         Role = "test"
	RoleControl      Role = "control"
	RoleUnclassified Role = "unclassified"
)

// UnsupportedRunLayoutError reports a plate count that is not 1, 2 or 3 times
// the plates-per-run.
type UnsupportedRunLayoutError struct {
	K int // plates found
	N int // plates per run
}

func (e *UnsupportedRunLayoutError) Error() string {
	return fmt.Sprintf("unsupported run layout: %d plates found with %d plates per run", e.K, e.N)
}

// RunPlate is one plate read, identified by its run number.
type RunPlate struct {
	RunNumber string
	Role      Role
	Slot      int // 1-based position of the plate within its role
}

// RunGroup is the role assignment of every plate in a screen, in run order.
type RunGroup struct {
	Plates []RunPlate
}

// Role returns the run numbers assigned to one role, in slot order.
func (g RunGroup) Role(role Role) []string {
	out := make([]string, 0, len(g.Plates))
	for _, p := range g.Plates {
		if p.Role == role {
			out = append(out, p.RunNumber)
		}
	}
	return out
}

// HasControl reports whether any plate was assigned the control role.
func (g RunGroup) HasControl() bool {
	return len(g.Role(RoleControl)) > 0
}

// GroupRuns assigns roles to the plates of a screen from their run numbers
// alone. Run numbers are sorted and, with n plates per run and k plates:
//
//	k == n:  every plate is test.
//	k == 2n: the first n are control, and the same first n are also test.
//	k == 3n: first n control, next n unclassified, last n test.
//
// The k == 2n rule leaves the second half of the plates without a role and
// reuses the control plates as test plates. That is how screens have been
// analyzed so far and is kept until the plate order of two-run screens is
// confirmed; see DESIGN.md.
//
// Any other k yields an *UnsupportedRunLayoutError.
func GroupRuns(runNumbers []string, n int) (RunGroup, error) {
	k := len(runNumbers)
	if n <= 0 || k == 0 || k%n != 0 || k/n > 3 {
		return RunGroup{}, &UnsupportedRunLayoutError{K: k, N: n}
	}

	sorted := append([]string(nil), runNumbers...)
	sort.Strings(sorted)

	assign := func(role Role, runs []string) []RunPlate {
		out := make([]RunPlate, 0, len(runs))
		for i, run := range runs {
			out = append(out, RunPlate{RunNumber: run, Role: role, Slot: i + 1})
		}
		return out
	}

	var plates []RunPlate
	switch k / n {
	case 1:
		plates = assign(RoleTest, sorted)
	case 2:
		plates = append(assign(RoleControl, sorted[:n]), assign(RoleTest, sorted[:n])...)
	case 3:
		plates = append(plates, assign(RoleControl, sorted[:n])...)
		plates = append(plates, assign(RoleUnclassified, sorted[n:2*n])...)
		plates = append(plates, assign(RoleTest, sorted[2*n:])...)
	}

	return RunGroup{Plates: plates}, nil
}

// Slot is the set of plates that share a position across roles: the i-th
// test plate, its control plate and its unclassified plate, if any.
type Slot struct {
	Index        int
	Test         string
	Control      string
	Unclassified string
}

// Slots lines up the roles of a run group by position.
func (g RunGroup) Slots() []Slot {
	bySlot := make(map[int]*Slot)
	order := make([]int, 0)
	for _, p := range g.Plates {
		s, exists := bySlot[p.Slot]
		if !exists {
			s = &Slot{Index: p.Slot}
			bySlot[p.Slot] = s
			order = append(order, p.Slot)
		}
		switch p.Role {
		case RoleTest:
			s.Test = p.RunNumber
		case RoleControl:
			s.Control = p.RunNumber
		case RoleUnclassified:
			s.Unclassified = p.RunNumber
		}
	}

	sort.Ints(order)
	out := make([]Slot, 0, len(order))
	for _, i := range order {
		out = append(out, *bySlot[i])
	}
	return out
}
