package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"potbrainz/ipc"
)

// ============================================================================
// potctl - Command-line IPC Client
// ============================================================================
// Sends one event to the potbrainz daemon over its unix socket.
//
// Usage:
//   potctl set 0.75
//   potctl set 0.2 -ms 500 -easing linear
//   potctl turn -3
//   potctl drag 40 changed
//   potctl resize 320 240
//   potctl proportional on
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/potbrainz.sock)
// ============================================================================

type dragData struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Phase string  `json:"phase"`
}

type setValueData struct {
	Value      float64 `json:"value"`
	DurationMS *int    `json:"duration_ms,omitempty"`
	Easing     string  `json:"easing,omitempty"`
}

type rotaryTurnData struct {
	Steps int `json:"steps"`
}

type resizeData struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type lineWidthModeData struct {
	Proportional bool `json:"proportional"`
}

// request is one parsed command, ready for ipc.Send.
type request struct {
	Type string
	Data any
}

var errHelp = errors.New("help requested")

func main() {
	socketPath := ipc.DefaultSocketPath

	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "-socket" || args[0] == "--socket") {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	req, err := parseCommand(args)
	if errors.Is(err, errHelp) {
		printUsage()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printUsage()
		os.Exit(1)
	}

	if err := ipc.Send(socketPath, req.Type, req.Data); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

func parseCommand(args []string) (request, error) {
	if len(args) == 0 {
		return request{}, errors.New("no command given")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "set", "set-value":
		return parseSet(rest)

	case "turn", "rotate":
		if len(rest) != 1 {
			return request{}, errors.New("turn requires a step count")
		}
		steps, err := strconv.Atoi(rest[0])
		if err != nil {
			return request{}, fmt.Errorf("invalid step count: %w", err)
		}
		return request{ipc.TypeRotaryTurn, rotaryTurnData{Steps: steps}}, nil

	case "up":
		return request{ipc.TypeRotaryTurn, rotaryTurnData{Steps: 1}}, nil

	case "down":
		return request{ipc.TypeRotaryTurn, rotaryTurnData{Steps: -1}}, nil

	case "drag":
		if len(rest) < 1 || len(rest) > 2 {
			return request{}, errors.New("drag requires <y> [began|changed|ended]")
		}
		y, err := strconv.ParseFloat(rest[0], 64)
		if err != nil {
			return request{}, fmt.Errorf("invalid y: %w", err)
		}
		phase := "changed"
		if len(rest) == 2 {
			phase = rest[1]
		}
		switch phase {
		case "began", "changed", "ended":
		default:
			return request{}, fmt.Errorf("invalid phase %q", phase)
		}
		return request{ipc.TypeDrag, dragData{Y: y, Phase: phase}}, nil

	case "resize":
		if len(rest) != 2 {
			return request{}, errors.New("resize requires <width> <height>")
		}
		w, errW := strconv.Atoi(rest[0])
		h, errH := strconv.Atoi(rest[1])
		if errW != nil || errH != nil || w <= 0 || h <= 0 {
			return request{}, errors.New("resize: width and height must be positive integers")
		}
		return request{ipc.TypeResize, resizeData{Width: w, Height: h}}, nil

	case "proportional":
		if len(rest) != 1 {
			return request{}, errors.New("proportional requires on|off")
		}
		switch rest[0] {
		case "on", "true", "1":
			return request{ipc.TypeSetLineWidthMode, lineWidthModeData{Proportional: true}}, nil
		case "off", "false", "0":
			return request{ipc.TypeSetLineWidthMode, lineWidthModeData{Proportional: false}}, nil
		}
		return request{}, fmt.Errorf("proportional: expected on|off, got %q", rest[0])

	case "help", "-h", "--help":
		return request{}, errHelp

	default:
		return request{}, fmt.Errorf("unknown command: %s", cmd)
	}
}

// parseSet handles: set <value> [-ms N] [-easing NAME]
func parseSet(args []string) (request, error) {
	if len(args) == 0 {
		return request{}, errors.New("set requires a value in [0, 1]")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return request{}, fmt.Errorf("invalid value: %w", err)
	}
	data := setValueData{Value: v}

	for i := 1; i < len(args); i += 2 {
		if i+1 >= len(args) {
			return request{}, fmt.Errorf("%s requires an argument", args[i])
		}
		switch args[i] {
		case "-ms", "--ms":
			ms, err := strconv.Atoi(args[i+1])
			if err != nil || ms < 0 {
				return request{}, fmt.Errorf("invalid duration %q", args[i+1])
			}
			data.DurationMS = &ms
		case "-easing", "--easing":
			data.Easing = args[i+1]
		default:
			return request{}, fmt.Errorf("unknown set option %s", args[i])
		}
	}
	return request{ipc.TypeSetValue, data}, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `potctl - Control the potbrainz dial daemon via IPC

Usage:
  potctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: %s)

Commands:
  set <value> [-ms N] [-easing E]   Move to value in [0, 1]
  turn <steps>                      Rotary steps (negative = counter-clockwise)
  up, down                          One rotary step
  drag <y> [phase]                  Drag sample at view-local y (phase: began|changed|ended)
  resize <width> <height>           Resize the view
  proportional on|off               Toggle proportional line width
  help, -h, --help                  Show this help message

Examples:
  potctl set 0.5 -ms 400 -easing ease_out
  potctl -socket /run/potbrainz.sock turn 5
`, ipc.DefaultSocketPath)
}
