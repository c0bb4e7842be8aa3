package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/technocoreai/extcmd/internal/app"
	"github.com/technocoreai/extcmd/internal/engine/buffer"
	"github.com/technocoreai/extcmd/internal/extcmd"
)

// parseRange parses START:END or START. An empty END means end of text.
func parseRange(s string, length extcmd.ByteOffset) (extcmd.Range, error) {
	startText, endText, hasEnd := strings.Cut(s, ":")

	start, err := parseOffset(startText, 0)
	if err != nil {
		return extcmd.Range{}, fmt.Errorf("selection %q: %w", s, err)
	}
	end := start
	if hasEnd {
		if end, err = parseOffset(endText, length); err != nil {
			return extcmd.Range{}, fmt.Errorf("selection %q: %w", s, err)
		}
	}

	r := buffer.NewRange(start, end)
	if end < start || end > length {
		return extcmd.Range{}, fmt.Errorf("selection %q: outside 0:%d", s, length)
	}
	return r, nil
}

func parseOffset(s string, empty extcmd.ByteOffset) (extcmd.ByteOffset, error) {
	if s == "" {
		return empty, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return n, nil
}

// selectRanges sets the view's selections from flag values.
func selectRanges(v *app.View, specs []string) error {
	if len(specs) == 0 {
		return nil
	}
	ranges := make([]extcmd.Range, 0, len(specs))
	for _, spec := range specs {
		r, err := parseRange(spec, v.Len())
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}
	return v.Select(ranges...)
}
