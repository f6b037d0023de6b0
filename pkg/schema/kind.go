// Package schema defines the command and telemetry data model for the UGV.
// Commands form a closed set of kinds, each with a declared parameter table;
// an Action can only be obtained through Validate, so an invalid command
// never exists as a value anywhere else in the program.
package schema

import "fmt"

// Kind identifies a chassis command. Its numeric value is the "T" code
// the firmware expects on the wire.
type Kind int

// The supported command set. Codes follow the chassis JSON protocol.
const (
	KindUnknown       Kind = 0
	KindSpeedCtrl     Kind = 1
	KindMotorPID      Kind = 2
	KindOLEDCtrl      Kind = 3
	KindOLEDDefault   Kind = -3
	KindPWMInput      Kind = 11
	KindROSCtrl       Kind = 13
	KindGetIMUData    Kind = 126
	KindBaseFeedback  Kind = 130
	KindLEDCtrl       Kind = 132
	KindGimbalCtrl    Kind = 133
	KindGimbalStop    Kind = 135
	KindHeartbeatSet  Kind = 136
	KindFlowInterval  Kind = 142
)

var kindNames = map[Kind]string{
	KindSpeedCtrl:    "speed_ctrl",
	KindMotorPID:     "motor_pid",
	KindOLEDCtrl:     "oled_ctrl",
	KindOLEDDefault:  "oled_default",
	KindPWMInput:     "pwm_input",
	KindROSCtrl:      "ros_ctrl",
	KindGetIMUData:   "get_imu_data",
	KindBaseFeedback: "base_feedback",
	KindLEDCtrl:      "led_ctrl",
	KindGimbalCtrl:   "gimbal_ctrl",
	KindGimbalStop:   "gimbal_stop",
	KindHeartbeatSet: "heartbeat_set",
	KindFlowInterval: "flow_interval",
}

// String returns the symbolic name of the kind, or its raw code if unknown.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Known reports whether k is part of the supported command set.
func (k Kind) Known() bool {
	_, ok := commands[k]
	return ok
}

// KindByName resolves a symbolic command name back to its Kind.
// Returns KindUnknown, false for unrecognized names.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// Kinds returns all supported command kinds. The order is unspecified.
func Kinds() []Kind {
	out := make([]Kind, 0, len(commands))
	for k := range commands {
		out = append(out, k)
	}
	return out
}
