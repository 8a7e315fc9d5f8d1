package exits

import (
	"encoding/json"
	"testing"

	"github.com/talgya/evacsim/internal/entropy"
	"github.com/talgya/evacsim/internal/world"
)

type counts struct {
	hazards, followers int
}

func (c counts) HazardCount(world.Cell, int) int   { return c.hazards }
func (c counts) FollowerCount(world.Cell, int) int { return c.followers }

func TestAssessPrecedence(t *testing.T) {
	e := &Exit{Radius: 3, OvercrowdingThreshold: 5, BlockedThreshold: 1}
	cases := []struct {
		name string
		s    counts
		want Status
	}{
		{"clear", counts{0, 0}, StatusAvailable},
		{"crowded", counts{0, 5}, StatusOvercrowded},
		{"below crowd threshold", counts{0, 4}, StatusAvailable},
		{"blocked beats crowded", counts{1, 9}, StatusBlocked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Assess(e, tc.s); got != tc.want {
				t.Errorf("Assess = %s, want %s", StatusName(got), StatusName(tc.want))
			}
		})
	}
}

func TestAssessZeroThresholdDisabled(t *testing.T) {
	e := &Exit{Radius: 3}
	if got := Assess(e, counts{10, 10}); got != StatusAvailable {
		t.Fatalf("disabled thresholds should report available, got %s", StatusName(got))
	}
}

func TestDrainAdmitsAtMostBatch(t *testing.T) {
	src, _ := entropy.New(3)
	for n := 0; n <= 6; n++ {
		waiting := make([]int, n)
		for i := range waiting {
			waiting[i] = i
		}
		adm := Drain(src, waiting, nil)
		want := n
		if want > BatchSize {
			want = BatchSize
		}
		if len(adm.Followers) != want {
			t.Errorf("n=%d: admitted %d, want %d", n, len(adm.Followers), want)
		}
		if len(adm.Followers) == 2 && adm.Followers[0] == adm.Followers[1] {
			t.Errorf("n=%d: admitted the same agent twice", n)
		}
	}
}

func TestDrainServesFollowersFirst(t *testing.T) {
	src, _ := entropy.New(3)
	adm := Drain(src, []string{"f1"}, []string{"l1", "l2"})
	if len(adm.Leaders) != 0 || len(adm.Followers) != 1 {
		t.Fatalf("leaders must wait while followers queue: %+v", adm)
	}
	adm = Drain(src, nil, []string{"l1", "l2", "l3"})
	if len(adm.Leaders) != 2 || adm.Total() != 2 {
		t.Fatalf("expected two leaders drained, got %+v", adm)
	}
}

func TestStatusJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Status{"s": StatusBlocked})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"s":"blocked"}` {
		t.Fatalf("got %s", b)
	}
}
