package lineprof

import (
	"errors"
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrBadStats is returned when a stats file cannot be decoded.
var ErrBadStats = errors.New("lineprof: malformed stats")

// statsVersion is bumped whenever the layout of a stats file changes.
const statsVersion = 1

const (
	// maxLine bounds the line numbers accepted from a stats file.
	maxLine = math.MaxInt32

	// maxCount is the largest integer a float64 holds exactly.
	maxCount = 1 << 53
)

// DumpStats writes stats to filename as a protocol buffer
// google.protobuf.Struct. Files conventionally use the .lprof extension.
func DumpStats(filename string, stats *LineStats) error {
	msg, err := statsToStruct(stats)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("lineprof: encoding stats: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}

// LoadStats reads stats written by DumpStats.
func LoadStats(filename string) (*LineStats, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadStats, filename, err)
	}
	stats, err := statsFromStruct(msg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return stats, nil
}

// FormatJSON renders stats in the JSON form of the stats file.
func FormatJSON(stats *LineStats) ([]byte, error) {
	msg, err := statsToStruct(stats)
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
}

func statsToStruct(stats *LineStats) (*structpb.Struct, error) {
	functions := make([]interface{}, 0, len(stats.Timings))
	for _, key := range stats.Keys() {
		timings := stats.Timings[key]
		lines := make([]interface{}, 0, len(timings))
		for _, t := range timings {
			lines = append(lines, []interface{}{t.Line, t.Hits, t.Ticks})
		}
		functions = append(functions, map[string]interface{}{
			"filename":   key.Filename,
			"start_line": key.StartLine,
			"name":       key.Name,
			"lines":      lines,
		})
	}
	msg, err := structpb.NewStruct(map[string]interface{}{
		"version":   statsVersion,
		"unit":      stats.Unit,
		"functions": functions,
	})
	if err != nil {
		return nil, fmt.Errorf("lineprof: encoding stats: %w", err)
	}
	return msg, nil
}

func statsFromStruct(msg *structpb.Struct) (*LineStats, error) {
	fields := msg.GetFields()
	if v := fields["version"].GetNumberValue(); v != statsVersion {
		return nil, fmt.Errorf("%w: unsupported version %v", ErrBadStats, v)
	}
	unit := fields["unit"].GetNumberValue()
	if !(unit > 0) {
		return nil, fmt.Errorf("%w: invalid unit %v", ErrBadStats, unit)
	}

	stats := &LineStats{
		Timings: make(map[FuncKey][]LineTiming),
		Unit:    unit,
	}
	for i, fv := range fields["functions"].GetListValue().GetValues() {
		fn := fv.GetStructValue().GetFields()
		if fn == nil {
			return nil, fmt.Errorf("%w: function %d is not a struct", ErrBadStats, i)
		}
		key := FuncKey{
			Filename: fn["filename"].GetStringValue(),
			Name:     fn["name"].GetStringValue(),
		}
		if key.Name == "" {
			return nil, fmt.Errorf("%w: function %d has no name", ErrBadStats, i)
		}
		start, ok := wholeNumber(fn["start_line"], 1, maxLine)
		if !ok {
			return nil, fmt.Errorf("%w: %s: invalid start line %v", ErrBadStats, key.Name, fn["start_line"].AsInterface())
		}
		key.StartLine = int(start)

		lines := fn["lines"].GetListValue().GetValues()
		timings := make([]LineTiming, 0, len(lines))
		for _, lv := range lines {
			triple := lv.GetListValue().GetValues()
			if len(triple) != 3 {
				return nil, fmt.Errorf("%w: %s: line entry has %d fields, want 3", ErrBadStats, key.Name, len(triple))
			}
			line, ok := wholeNumber(triple[0], 1, maxLine)
			if !ok {
				return nil, fmt.Errorf("%w: %s: invalid line number %v", ErrBadStats, key.Name, triple[0].AsInterface())
			}
			hits, ok := wholeNumber(triple[1], 0, maxCount)
			if !ok {
				return nil, fmt.Errorf("%w: %s: line %d: invalid hit count %v", ErrBadStats, key.Name, line, triple[1].AsInterface())
			}
			ticks, ok := wholeNumber(triple[2], 0, maxCount)
			if !ok {
				return nil, fmt.Errorf("%w: %s: line %d: invalid tick count %v", ErrBadStats, key.Name, line, triple[2].AsInterface())
			}
			timings = append(timings, LineTiming{Line: int(line), Hits: hits, Ticks: ticks})
		}
		sortTimings(timings)
		stats.Timings[key] = timings
	}
	return stats, nil
}

// wholeNumber returns v as an integer if it is a number with no fractional
// part in the range [min, max].
func wholeNumber(v *structpb.Value, min, max float64) (int64, bool) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < min || f > max {
		return 0, false
	}
	return int64(f), true
}
