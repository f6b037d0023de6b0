package schema

import (
	"encoding/json"
	"fmt"
	"math"
)

// ParamType is the primitive type a command parameter must carry.
type ParamType int

const (
	TypeNumber ParamType = iota
	TypeInteger
	TypeText
)

// ParamSpec declares one required parameter of a command kind.
// Min/Max bound numeric parameters inclusively; they are ignored for text.
type ParamSpec struct {
	Name string
	Type ParamType
	Min  float64
	Max  float64
}

// commands is the per-kind required parameter table. Every kind the schema
// supports appears here; a kind with an empty slice takes no parameters.
var commands = map[Kind][]ParamSpec{
	KindSpeedCtrl: {
		{Name: "L", Type: TypeNumber, Min: -1, Max: 1},
		{Name: "R", Type: TypeNumber, Min: -1, Max: 1},
	},
	KindPWMInput: {
		{Name: "L", Type: TypeInteger, Min: -255, Max: 255},
		{Name: "R", Type: TypeInteger, Min: -255, Max: 255},
	},
	KindROSCtrl: {
		{Name: "X", Type: TypeNumber, Min: -1, Max: 1},
		{Name: "Z", Type: TypeNumber, Min: -5, Max: 5},
	},
	KindMotorPID: {
		{Name: "P", Type: TypeNumber, Min: 0, Max: 1000},
		{Name: "I", Type: TypeNumber, Min: 0, Max: 10000},
		{Name: "D", Type: TypeNumber, Min: 0, Max: 1000},
		{Name: "L", Type: TypeNumber, Min: 0, Max: 255},
	},
	KindOLEDCtrl: {
		{Name: "lineNum", Type: TypeInteger, Min: 0, Max: 3},
		{Name: "Text", Type: TypeText},
	},
	KindOLEDDefault:  {},
	KindGetIMUData:   {},
	KindBaseFeedback: {},
	KindLEDCtrl: {
		{Name: "IO4", Type: TypeInteger, Min: 0, Max: 255},
		{Name: "IO5", Type: TypeInteger, Min: 0, Max: 255},
	},
	KindGimbalCtrl: {
		{Name: "X", Type: TypeNumber, Min: -180, Max: 180},
		{Name: "Y", Type: TypeNumber, Min: -30, Max: 90},
		{Name: "SPD", Type: TypeNumber, Min: 0, Max: 300},
		{Name: "ACC", Type: TypeNumber, Min: 0, Max: 300},
	},
	KindGimbalStop: {},
	KindHeartbeatSet: {
		{Name: "cmd", Type: TypeInteger, Min: 0, Max: 60000},
	},
	KindFlowInterval: {
		{Name: "cmd", Type: TypeInteger, Min: 0, Max: 60000},
	},
}

// Params returns the declared parameter table for k, or nil if unknown.
func Params(k Kind) []ParamSpec {
	specs, ok := commands[k]
	if !ok {
		return nil
	}
	out := make([]ParamSpec, len(specs))
	copy(out, specs)
	return out
}

// Action is a validated, transmittable chassis command. The zero value is
// invalid; the only way to obtain a valid Action is Validate (or one of the
// convenience constructors built on it).
type Action struct {
	kind   Kind
	params map[string]any // canonical types: float64, int, string
}

// Validate checks kind and params against the command table and returns a
// well-formed Action. Validation is all-or-nothing: an unknown kind, a
// missing or unexpected parameter, a type mismatch, or an out-of-range
// value each fail with a *ValidationError.
func Validate(kind Kind, params map[string]any) (Action, error) {
	specs, ok := commands[kind]
	if !ok {
		return Action{}, &ValidationError{Kind: kind, Reason: "unknown command kind"}
	}

	canonical := make(map[string]any, len(specs))
	for _, spec := range specs {
		raw, ok := params[spec.Name]
		if !ok {
			return Action{}, &ValidationError{Kind: kind, Param: spec.Name, Reason: "missing parameter"}
		}

		switch spec.Type {
		case TypeNumber:
			v, ok := toFloat(raw)
			if !ok {
				return Action{}, &ValidationError{Kind: kind, Param: spec.Name, Reason: "expects a number"}
			}
			// NaN compares false against any bound and would survive a
			// plain range check, then fail JSON encoding on the wire.
			if math.IsNaN(v) || v < spec.Min || v > spec.Max {
				return Action{}, &ValidationError{
					Kind: kind, Param: spec.Name,
					Reason: fmt.Sprintf("value %v out of range [%v, %v]", v, spec.Min, spec.Max),
				}
			}
			canonical[spec.Name] = v

		case TypeInteger:
			v, ok := toInt(raw)
			if !ok {
				return Action{}, &ValidationError{Kind: kind, Param: spec.Name, Reason: "expects an integer"}
			}
			if float64(v) < spec.Min || float64(v) > spec.Max {
				return Action{}, &ValidationError{
					Kind: kind, Param: spec.Name,
					Reason: fmt.Sprintf("value %d out of range [%v, %v]", v, spec.Min, spec.Max),
				}
			}
			canonical[spec.Name] = v

		case TypeText:
			v, ok := raw.(string)
			if !ok {
				return Action{}, &ValidationError{Kind: kind, Param: spec.Name, Reason: "expects text"}
			}
			canonical[spec.Name] = v
		}
	}

	// Reject anything the table does not declare.
	for name := range params {
		if _, ok := canonical[name]; !ok {
			return Action{}, &ValidationError{Kind: kind, Param: name, Reason: "unexpected parameter"}
		}
	}

	return Action{kind: kind, params: canonical}, nil
}

// Kind returns the command kind.
func (a Action) Kind() Kind { return a.kind }

// Valid reports whether a was produced by Validate.
func (a Action) Valid() bool {
	return a.params != nil && a.kind.Known()
}

// Param returns the canonical value of one parameter.
func (a Action) Param(name string) (any, bool) {
	v, ok := a.params[name]
	return v, ok
}

// Number returns a numeric parameter as float64, or 0 when absent.
// Integer parameters are widened.
func (a Action) Number(name string) float64 {
	switch v := a.params[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Equal reports whether two Actions carry the same kind and parameters.
func (a Action) Equal(other Action) bool {
	if a.kind != other.kind || len(a.params) != len(other.params) {
		return false
	}
	for name, v := range a.params {
		if other.params[name] != v {
			return false
		}
	}
	return true
}

// MarshalJSON renders the flattened wire form the chassis expects,
// e.g. {"L":0.5,"R":0.5,"T":1}.
func (a Action) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return nil, &ValidationError{Kind: a.kind, Reason: "action not validated"}
	}
	wire := make(map[string]any, len(a.params)+1)
	wire["T"] = int(a.kind)
	for name, v := range a.params {
		wire[name] = v
	}
	return json.Marshal(wire)
}

// String renders the action for logs.
func (a Action) String() string {
	if !a.Valid() {
		return "action(invalid)"
	}
	data, err := a.MarshalJSON()
	if err != nil {
		return "action(invalid)"
	}
	return string(data)
}

// SpeedCtrl builds a validated normalized wheel-speed command.
func SpeedCtrl(left, right float64) (Action, error) {
	return Validate(KindSpeedCtrl, map[string]any{"L": left, "R": right})
}

// Stop is the zero-speed command used to halt the vehicle. It cannot fail
// validation since its parameters are constant.
func Stop() Action {
	a, err := SpeedCtrl(0, 0)
	if err != nil {
		panic(err) // unreachable: constants are in range
	}
	return a
}

// BaseFeedback builds the parameterless chassis feedback query.
func BaseFeedback() Action {
	a, err := Validate(KindBaseFeedback, nil)
	if err != nil {
		panic(err) // unreachable: no parameters to reject
	}
	return a
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
