package uci

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildGoCommand assembles the go-command tokens for a search. At least
// one limit must be set; an unbounded search would never return.
func BuildGoCommand(l Limits) ([]string, error) {
	args := []string{"go"}
	if l.Depth > 0 {
		args = append(args, "depth", strconv.Itoa(l.Depth))
	}
	if l.MoveTimeMillis > 0 {
		args = append(args, "movetime", strconv.Itoa(l.MoveTimeMillis))
	}
	if l.NodeCap > 0 {
		args = append(args, "nodes", strconv.Itoa(l.NodeCap))
	}
	if len(args) == 1 {
		return nil, fmt.Errorf("no search limits specified")
	}
	return args, nil
}

// FormatGoCommand is BuildGoCommand joined into a protocol line.
func FormatGoCommand(l Limits) (string, error) {
	args, err := BuildGoCommand(l)
	if err != nil {
		return "", err
	}
	return strings.Join(args, " "), nil
}
