package subnet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

func mustParse(t *testing.T, s string) models.NetworkDescriptor {
	t.Helper()
	desc, err := ParseString(s)
	if err != nil {
		t.Fatalf("ParseString(%q): %v", s, err)
	}
	return desc
}

func TestEnumerate_ClassC(t *testing.T) {
	tasks, err := Enumerate(mustParse(t, "10.0.0.0/24"), Filter{})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(tasks) != 254 {
		t.Fatalf("len = %d, want 254", len(tasks))
	}
	if tasks[0].Address != "10.0.0.1" {
		t.Errorf("first = %s, want 10.0.0.1", tasks[0].Address)
	}
	if tasks[253].Address != "10.0.0.254" {
		t.Errorf("last = %s, want 10.0.0.254", tasks[253].Address)
	}
	for _, task := range tasks {
		if task.Network != "10.0.0.0/24" {
			t.Fatalf("task network = %q, want 10.0.0.0/24", task.Network)
		}
	}
}

func TestEnumerate_Slash30(t *testing.T) {
	tasks, err := Enumerate(mustParse(t, "10.0.0.0/30"), Filter{})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	want := []string{"10.0.0.1", "10.0.0.2"}
	if len(tasks) != len(want) {
		t.Fatalf("len = %d, want %d", len(tasks), len(want))
	}
	for i, addr := range want {
		if tasks[i].Address != addr {
			t.Errorf("tasks[%d] = %s, want %s", i, tasks[i].Address, addr)
		}
	}
}

func TestEnumerate_NoUsableHosts(t *testing.T) {
	for _, network := range []string{"10.0.0.0/31", "10.0.0.1/32"} {
		tasks, err := Enumerate(mustParse(t, network), Filter{})
		if err != nil {
			t.Errorf("Enumerate(%s) should not error, got %v", network, err)
		}
		if len(tasks) != 0 {
			t.Errorf("Enumerate(%s) = %d hosts, want 0", network, len(tasks))
		}
	}
}

// Every prefix p in [20,30] yields exactly 2^(32-p) - 2 usable hosts.
func TestEnumerate_PrefixHostCounts(t *testing.T) {
	for prefix := 20; prefix <= 30; prefix++ {
		network := fmt.Sprintf("10.20.0.0/%d", prefix)
		tasks, err := Enumerate(mustParse(t, network), Filter{})
		if err != nil {
			t.Fatalf("Enumerate(%s): %v", network, err)
		}
		want := (1 << (32 - prefix)) - 2
		if len(tasks) != want {
			t.Errorf("Enumerate(%s) = %d hosts, want %d", network, len(tasks), want)
		}
	}
}

func TestEnumerate_Range(t *testing.T) {
	tasks, err := Enumerate(mustParse(t, "192.168.1.1-192.168.1.5"), Filter{})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	want := []string{"192.168.1.1", "192.168.1.2", "192.168.1.3", "192.168.1.4", "192.168.1.5"}
	if len(tasks) != len(want) {
		t.Fatalf("len = %d, want %d", len(tasks), len(want))
	}
	for i, addr := range want {
		if tasks[i].Address != addr {
			t.Errorf("tasks[%d] = %s, want %s", i, tasks[i].Address, addr)
		}
	}
}

func TestEnumerate_RangeEndpointsInclusive(t *testing.T) {
	tests := []struct {
		network string
		want    int
	}{
		{"10.0.0.1-10.0.0.1", 1},
		{"10.0.0.1-10.0.0.2", 2},
		{"10.0.0.0-10.0.1.255", 512},
	}
	for _, tt := range tests {
		tasks, err := Enumerate(mustParse(t, tt.network), Filter{})
		if err != nil {
			t.Fatalf("Enumerate(%s): %v", tt.network, err)
		}
		if len(tasks) != tt.want {
			t.Errorf("Enumerate(%s) = %d hosts, want %d", tt.network, len(tasks), tt.want)
		}
	}
}

func TestEnumerate_SingleIP(t *testing.T) {
	tasks, err := Enumerate(mustParse(t, "172.16.4.9"), Filter{})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Address != "172.16.4.9" {
		t.Errorf("tasks = %v, want exactly 172.16.4.9", tasks)
	}
}

func TestEnumerate_Exclusions(t *testing.T) {
	excl, err := ParseExclusions([]string{"10.0.0.5", "10.0.0.10-10.0.0.12"})
	if err != nil {
		t.Fatalf("ParseExclusions: %v", err)
	}

	tasks, err := Enumerate(mustParse(t, "10.0.0.0/28"), Filter{Exclude: excl})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	// /28 has 14 usable hosts, minus .5, .10, .11, .12.
	if len(tasks) != 10 {
		t.Fatalf("len = %d, want 10", len(tasks))
	}
	for _, task := range tasks {
		switch task.Address {
		case "10.0.0.5", "10.0.0.10", "10.0.0.11", "10.0.0.12":
			t.Errorf("excluded address %s was enumerated", task.Address)
		}
	}
}

func TestEnumerate_ParityFilters(t *testing.T) {
	desc := mustParse(t, "10.0.0.0/28")

	odd, err := Enumerate(desc, Filter{OddOnly: true})
	if err != nil {
		t.Fatalf("Enumerate odd: %v", err)
	}
	for _, task := range odd {
		if task.Address == "10.0.0.2" || task.Address == "10.0.0.14" {
			t.Errorf("odd-only yielded even address %s", task.Address)
		}
	}
	if len(odd) != 7 { // .1 .3 .5 .7 .9 .11 .13
		t.Errorf("odd-only len = %d, want 7", len(odd))
	}

	even, err := Enumerate(desc, Filter{EvenOnly: true})
	if err != nil {
		t.Fatalf("Enumerate even: %v", err)
	}
	if len(even) != 7 { // .2 .4 .6 .8 .10 .12 .14
		t.Errorf("even-only len = %d, want 7", len(even))
	}

	if _, err := Enumerate(desc, Filter{OddOnly: true, EvenOnly: true}); !errors.Is(err, ErrConflictingParity) {
		t.Errorf("both parities error = %v, want ErrConflictingParity", err)
	}
}

func TestEnumerate_MaxHostsCap(t *testing.T) {
	tasks, err := Enumerate(mustParse(t, "10.0.0.0/24"), Filter{MaxHosts: 10})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(tasks) != 10 {
		t.Fatalf("len = %d, want 10", len(tasks))
	}
	if tasks[9].Address != "10.0.0.10" {
		t.Errorf("last = %s, want 10.0.0.10", tasks[9].Address)
	}
}

// The cap applies after the other filters, so it counts kept hosts.
func TestEnumerate_CapAfterParity(t *testing.T) {
	tasks, err := Enumerate(mustParse(t, "10.0.0.0/24"), Filter{OddOnly: true, MaxHosts: 3})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	want := []string{"10.0.0.1", "10.0.0.3", "10.0.0.5"}
	if len(tasks) != len(want) {
		t.Fatalf("len = %d, want %d", len(tasks), len(want))
	}
	for i, addr := range want {
		if tasks[i].Address != addr {
			t.Errorf("tasks[%d] = %s, want %s", i, tasks[i].Address, addr)
		}
	}
}

func TestEnumerate_FilteredToEmptyIsNotAnError(t *testing.T) {
	excl, err := ParseExclusions([]string{"10.0.0.1-10.0.0.2"})
	if err != nil {
		t.Fatalf("ParseExclusions: %v", err)
	}
	tasks, err := Enumerate(mustParse(t, "10.0.0.0/30"), Filter{Exclude: excl})
	if err != nil {
		t.Errorf("empty result should not error, got %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("len = %d, want 0", len(tasks))
	}
}

func TestParseExclusions_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
	}{
		{"bad ip", []string{"10.0.0.300"}},
		{"reversed range", []string{"10.0.0.9-10.0.0.1"}},
		{"garbage", []string{"nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseExclusions(tt.entries); err == nil {
				t.Errorf("ParseExclusions(%v) should fail", tt.entries)
			}
		})
	}
}

func TestExclusionSet_NilContainsNothing(t *testing.T) {
	var set *ExclusionSet
	if set.Contains(0x0a000001) {
		t.Error("nil set should contain nothing")
	}
}
