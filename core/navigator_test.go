package core

import (
	"testing"

	"github.com/Guinness96/drone-sim/model"
)

func testRoute() []model.GeoPoint {
	return []model.GeoPoint{
		london,
		{Latitude: 51.5081, Longitude: -0.1278},
		{Latitude: 51.5074, Longitude: -0.1278},
	}
}

func TestNavigator_EmptyRouteStartsCompleted(t *testing.T) {
	n := NewNavigator(nil, false)
	if !n.Completed() {
		t.Fatal("navigator over empty route should start Completed")
	}
	if _, ok := n.Target(); ok {
		t.Fatal("Completed navigator should have no target")
	}
	if n.Observe(london) {
		t.Fatal("Completed navigator should not report arrival")
	}
}

func TestNavigator_TargetTracksIndex(t *testing.T) {
	route := testRoute()
	n := NewNavigator(route, false)

	target, ok := n.Target()
	if !ok || target != route[0] {
		t.Fatalf("initial target = %+v ok=%v, want %+v", target, ok, route[0])
	}
	if n.Index() != 0 {
		t.Fatalf("initial index = %d, want 0", n.Index())
	}
}

func TestNavigator_ArrivalAdvancesExactlyOne(t *testing.T) {
	route := testRoute()
	n := NewNavigator(route, false)

	// 5 m from the first waypoint: inside the 10 m threshold.
	near := DestinationPoint(route[0], 90, 5)
	if !n.Observe(near) {
		t.Fatal("position 5 m away should count as arrival")
	}
	if n.Index() != 1 {
		t.Fatalf("index = %d after one arrival, want exactly 1", n.Index())
	}
}

func TestNavigator_FarPositionDoesNotAdvance(t *testing.T) {
	route := testRoute()
	n := NewNavigator(route, false)

	far := DestinationPoint(route[0], 90, 50)
	if n.Observe(far) {
		t.Fatal("position 50 m away should not count as arrival")
	}
	if n.Index() != 0 {
		t.Fatalf("index = %d, want 0", n.Index())
	}
}

func TestNavigator_CloseClusterStillSingleSteps(t *testing.T) {
	// Both waypoints within the threshold of the observed position; a
	// single evaluation must advance past only the first.
	route := []model.GeoPoint{
		london,
		DestinationPoint(london, 0, 3),
	}
	n := NewNavigator(route, false)

	if !n.Observe(london) {
		t.Fatal("expected arrival at first waypoint")
	}
	if n.Index() != 1 {
		t.Fatalf("index = %d after single evaluation, want 1", n.Index())
	}
	if n.Completed() {
		t.Fatal("navigator skipped the second waypoint in one evaluation")
	}
}

func TestNavigator_CompletesAfterLastWaypoint(t *testing.T) {
	route := testRoute()
	n := NewNavigator(route, false)

	for i, wp := range route {
		if !n.Observe(wp) {
			t.Fatalf("expected arrival at waypoint %d", i)
		}
	}
	if !n.Completed() {
		t.Fatal("navigator should be Completed after visiting every waypoint")
	}
	if n.Index() != len(route) {
		t.Fatalf("index = %d, want %d", n.Index(), len(route))
	}
}

func TestNavigator_BypassAdvancesUnconditionally(t *testing.T) {
	route := testRoute()
	n := NewNavigator(route, true)

	for i, want := range route {
		got, ok := n.Advance()
		if !ok {
			t.Fatalf("Advance returned not-ok at waypoint %d", i)
		}
		if got != want {
			t.Fatalf("Advance reported %+v at step %d, want the raw waypoint %+v", got, i, want)
		}
	}
	if !n.Completed() {
		t.Fatal("bypass navigator should complete after one advance per waypoint")
	}
	if _, ok := n.Advance(); ok {
		t.Fatal("Advance after completion should return not-ok")
	}
}
