package chainfsm_test

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/librescoot/chainfsm"
)

var quiet = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// Example: Simple traffic light FSM
func Example_trafficLight() {
	const (
		stateRed    chainfsm.StateID = "red"
		stateYellow chainfsm.StateID = "yellow"
		stateGreen  chainfsm.StateID = "green"
	)

	m, _ := chainfsm.NewDefinition().
		State(stateRed,
			chainfsm.WithTransitions(stateGreen),
			chainfsm.WithOnEnter(func(c *chainfsm.Context, _ any) {
				fmt.Println("🔴 RED - Stop")
			}),
		).
		State(stateGreen,
			chainfsm.WithTransitions(stateYellow),
			chainfsm.WithOnEnter(func(c *chainfsm.Context, _ any) {
				fmt.Println("🟢 GREEN - Go")
			}),
		).
		State(stateYellow,
			chainfsm.WithTransitions(stateRed),
			chainfsm.WithOnEnter(func(c *chainfsm.Context, _ any) {
				fmt.Println("🟡 YELLOW - Caution")
			}),
		).
		Initial(stateRed).
		Build(chainfsm.WithLogger(quiet))

	m.MoveTo(stateGreen, nil).
		MoveTo(stateYellow, nil).
		MoveTo(stateGreen, nil). // not allowed from yellow
		MoveTo(stateRed, nil)

	fmt.Printf("State: %s\n", m.Current())

	// Output:
	// 🟢 GREEN - Go
	// 🟡 YELLOW - Caution
	// 🔴 RED - Stop
	// State: red
}

// Example: Vehicle-like state machine driven by events and context
func Example_vehicleFSM() {
	const (
		stateStandby chainfsm.StateID = "standby"
		stateParked  chainfsm.StateID = "parked"
		stateDrive   chainfsm.StateID = "drive"
	)

	const (
		evUnlock    chainfsm.EventID = "unlock"
		evLock      chainfsm.EventID = "lock"
		evGoToDrive chainfsm.EventID = "go_to_drive"
		evGoToPark  chainfsm.EventID = "go_to_park"
	)

	m := chainfsm.New(stateStandby, chainfsm.Config{
		stateStandby: {Transitions: []chainfsm.StateID{stateParked}},
		stateParked:  {Transitions: []chainfsm.StateID{stateDrive, stateStandby}},
		stateDrive:   {Transitions: []chainfsm.StateID{stateParked}},
	}, map[string]any{
		"kickstandUp":    false,
		"dashboardReady": true,
	}, chainfsm.WithLogger(quiet))

	m.SetHandler(stateParked, chainfsm.OnEnter, func(c *chainfsm.Context, _ any) {
		fmt.Println("→ Parked")
	})
	m.SetHandler(stateDrive, chainfsm.OnEnter, func(c *chainfsm.Context, _ any) {
		fmt.Println("→ Ready to Drive!")
	})
	m.WhenIn(stateStandby, func(c *chainfsm.Context) {
		fmt.Println("→ Standby (locked)")
	})

	m.On(evUnlock, chainfsm.NewHandler(func(c *chainfsm.Context, _ any) {
		c.MoveTo(stateParked, nil)
	}))
	m.On(evLock, chainfsm.NewHandler(func(c *chainfsm.Context, _ any) {
		c.MoveTo(stateStandby, nil)
	}))
	m.On(evGoToDrive, chainfsm.NewHandler(func(c *chainfsm.Context, _ any) {
		if c.Value("kickstandUp") == true && c.Value("dashboardReady") == true {
			c.MoveTo(stateDrive, nil)
		}
	}))
	m.On(evGoToPark, chainfsm.NewHandler(func(c *chainfsm.Context, _ any) {
		c.MoveTo(stateParked, nil)
	}))

	m.Fire(evUnlock, nil)
	fmt.Printf("State: %s\n", m.Current())

	// Try to drive (will fail - kickstand down)
	m.Fire(evGoToDrive, nil)
	fmt.Printf("State: %s (kickstand down)\n", m.Current())

	m.Context().Set("kickstandUp", true)
	m.Fire(evGoToDrive, nil)
	fmt.Printf("State: %s\n", m.Current())

	m.Fire(evGoToPark, nil).Fire(evLock, nil)
	fmt.Printf("State: %s\n", m.Current())

	// Output:
	// → Standby (locked)
	// → Parked
	// State: parked
	// State: parked (kickstand down)
	// → Ready to Drive!
	// State: drive
	// → Parked
	// → Standby (locked)
	// State: standby
}

// Example: Observing context changes
func ExampleMachine_OnContextChange() {
	m := chainfsm.New("idle", nil, map[string]any{"count": 0}, chainfsm.WithLogger(quiet))

	m.OnContextChange(func(c *chainfsm.Context, changes []chainfsm.Change) {
		for _, ch := range changes {
			fmt.Printf("%s: %v -> %v\n", ch.Key, ch.PreviousValue, ch.Value)
		}
	})

	m.Context().Set("count", 1)
	m.Context().Set("count", 2)
	m.Flush()

	m.ResetContext().Flush()

	// Output:
	// count: 0 -> 2
	// count: 2 -> 0
}
