// Package parse extracts inspection metadata from capture filenames.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wtsao/yieldwatch/internal/record"
)

// FilenameParser matches filenames against a structured pattern capturing a
// pass/fail token, an 8-digit date, a 6-digit time, and a sequence count.
// The pattern is compiled once at construction.
type FilenameParser struct {
	re  *regexp.Regexp
	loc *time.Location

	passIdx  int
	dateIdx  int
	timeIdx  int
	countIdx int
}

// NewFilenameParser compiles pattern and resolves its named capture groups.
// The groups "pass", "date", and "time" are required; "count" is optional.
// loc is the fixed offset timestamps are interpreted in.
func NewFilenameParser(pattern string, loc *time.Location) (*FilenameParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling filename pattern: %w", err)
	}

	p := &FilenameParser{re: re, loc: loc, passIdx: -1, dateIdx: -1, timeIdx: -1, countIdx: -1}
	for i, name := range re.SubexpNames() {
		switch name {
		case "pass":
			p.passIdx = i
		case "date":
			p.dateIdx = i
		case "time":
			p.timeIdx = i
		case "count":
			p.countIdx = i
		}
	}
	if p.passIdx < 0 || p.dateIdx < 0 || p.timeIdx < 0 {
		return nil, fmt.Errorf("filename pattern must define pass, date, and time groups")
	}
	return p, nil
}

// Parse extracts the pass flag, sequence count, and capture timestamp from
// name. It never fails: a filename that does not match the pattern yields an
// unknown pass, no count, and mtime (in the parser's offset) as the
// timestamp.
func (p *FilenameParser) Parse(name string, mtime time.Time) (record.Pass, *int, time.Time) {
	m := p.re.FindStringSubmatch(name)
	if m == nil {
		return record.PassUnknown, nil, mtime.In(p.loc)
	}

	pass := record.PassUnknown
	switch strings.ToUpper(m[p.passIdx]) {
	case "OK":
		pass = record.PassOK
	case "NG":
		pass = record.PassNG
	}

	var count *int
	if p.countIdx >= 0 {
		if n, err := strconv.Atoi(m[p.countIdx]); err == nil {
			count = &n
		}
	}

	ts, err := time.ParseInLocation("20060102150405", m[p.dateIdx]+m[p.timeIdx], p.loc)
	if err != nil {
		// Digits matched but do not form a calendar instant (e.g. month 13).
		return pass, count, mtime.In(p.loc)
	}

	return pass, count, ts
}
