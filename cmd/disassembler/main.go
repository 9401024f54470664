// Command disassembler prints one "offset | hex bytes | mnemonic" line
// per decoded command in a sequence file until the first bad command,
// covering the full JAudio1 mnemonic set (§4.7, §6, and the original
// engine's disassembler.cpp per SPEC_FULL.md §4).
package main

import (
	"fmt"
	"os"
	"strings"

	"jaudio/internal/seq"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: disassembler <seq-file>")
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "disassembler:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 1 {
		usage()
		return fmt.Errorf("wrong number of arguments")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	var pc uint32
	for int(pc) < len(data) {
		cmd, err := seq.Read(data, pc)
		if err != nil {
			return fmt.Errorf("offset %06x: %w", pc, err)
		}
		size := uint32(cmd.Size())
		fmt.Println(formatLine(pc, data[pc:pc+size], cmd))
		pc += size
	}
	return nil
}

func formatLine(offset uint32, raw []byte, cmd seq.Command) string {
	return fmt.Sprintf("%06x | %s | %s", offset, hexBytes(raw), mnemonic(cmd))
}

func hexBytes(raw []byte) string {
	parts := make([]string, len(raw))
	for i, b := range raw {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

var perfNames = [4]string{"volume", "pitch", "reverb", "pan"}

func perfName(t seq.PerfType) string {
	if int(t) >= 0 && int(t) < len(perfNames) {
		return perfNames[t]
	}
	return fmt.Sprintf("perf%d", t)
}

func paramName(t seq.ParamType) string {
	switch t {
	case seq.ParamBank:
		return "bank"
	case seq.ParamProgram:
		return "program"
	default:
		return fmt.Sprintf("param 0x%02X", uint8(t))
	}
}

// mnemonic renders the complete opcode table (§4.7), not just the
// scenario-tested subset.
func mnemonic(cmd seq.Command) string {
	switch c := cmd.(type) {
	case seq.NoteOn:
		return fmt.Sprintf("note on %d voice=%d vel=%d", c.Note, c.Voice, c.Vel)
	case seq.Wait:
		return fmt.Sprintf("wait %d", c.Delay)
	case seq.VoiceOff:
		return fmt.Sprintf("voice off %d", c.Voice)
	case seq.SetPerf:
		if c.Duration == 0 {
			return fmt.Sprintf("perf %s=%.4f", perfName(c.Type), c.Value)
		}
		return fmt.Sprintf("perf %s->%.4f over %d", perfName(c.Type), c.Value, c.Duration)
	case seq.SetParam:
		return fmt.Sprintf("%s %d", paramName(c.Type), c.Value)
	case seq.OpenTrack:
		return fmt.Sprintf("open track %d @ %06x", c.TrackID, c.Offset)
	case seq.Jump:
		if c.Call {
			return fmt.Sprintf("call %06x", c.Target)
		}
		return fmt.Sprintf("jump %06x", c.Target)
	case seq.JumpF:
		verb := "jump_f"
		if c.Call {
			verb = "call_f"
		}
		return fmt.Sprintf("%s cond=%d %06x", verb, c.Cond, c.Target)
	case seq.Return:
		return "return"
	case seq.ReturnF:
		return "return_f"
	case seq.TrackEnd:
		return "track end"
	case seq.Tempo:
		return fmt.Sprintf("tempo %d", c.Value)
	case seq.Timebase:
		return fmt.Sprintf("timebase %d", c.Value)
	case seq.Ignored:
		return fmt.Sprintf("nop (%s)", c.Name)
	default:
		return "???"
	}
}
