package device

import (
	"errors"
	"testing"

	"github.com/quayside/homelink-core/internal/transport"
)

func TestEntityApplyUpdateMerges(t *testing.T) {
	dev := &Device{ID: "d1"}
	e := NewSwitch(dev)

	e.ApplyUpdate(transport.Params{"switch": "off", "voltage": 230})
	e.ApplyUpdate(transport.Params{"switch": "on"})

	state := e.State()
	if state["switch"] != "on" {
		t.Error("updated key must be overwritten")
	}
	if state["voltage"] != 230 {
		t.Error("untouched key must survive the merge")
	}
}

func TestEntityStateIsACopy(t *testing.T) {
	e := NewSwitch(&Device{ID: "d1"})
	e.ApplyUpdate(transport.Params{"switch": "on"})

	state := e.State()
	state["switch"] = "tampered"

	if e.State()["switch"] != "on" {
		t.Error("mutating a returned state must not affect the entity")
	}
}

func TestSwitchBuildCommands(t *testing.T) {
	e := NewSwitch(&Device{ID: "d1"})

	params, lan, err := e.BuildCommands("switch", "on")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["switch"] != "on" {
		t.Errorf("expected switch=on, got %v", params)
	}
	if lan != nil {
		t.Error("switch has no LAN-specific payload")
	}

	if _, _, err := e.BuildCommands("switch", "sideways"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("invalid value must fail, got %v", err)
	}
	if _, _, err := e.BuildCommands("brightness", 50); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("unsupported action must fail, got %v", err)
	}
}

func TestLightBuildCommands(t *testing.T) {
	e := NewLight(&Device{ID: "d1"})

	params, _, err := e.BuildCommands("brightness", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["brightness"] != 40 || params["switch"] != "on" {
		t.Errorf("brightness command must also switch on, got %v", params)
	}

	if _, _, err := e.BuildCommands("brightness", 150); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("out-of-range brightness must fail, got %v", err)
	}
}

func TestFanBuildCommandsDistinctLANPayload(t *testing.T) {
	e := NewFan(&Device{ID: "d1"})

	params, lan, err := e.BuildCommands("switch", "on")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["fan"] != "on" {
		t.Errorf("cloud payload must use the fan field, got %v", params)
	}
	if lan == nil {
		t.Fatal("fan must build a LAN-specific payload")
	}
	if _, ok := lan["switches"]; !ok {
		t.Errorf("LAN payload must use the switches field, got %v", lan)
	}

	if _, _, err := e.BuildCommands("speed", 5); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("out-of-range speed must fail, got %v", err)
	}
}

func TestReadOnlyEntitiesRejectCommands(t *testing.T) {
	dev := &Device{ID: "d1"}
	for _, e := range []Entity{NewSensor(dev), NewPowerSensor(dev)} {
		if _, _, err := e.BuildCommands("switch", "on"); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("%s: read-only entity must reject commands, got %v", e.Kind(), err)
		}
	}
}
