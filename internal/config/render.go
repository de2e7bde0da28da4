package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// section groups options that share a dotted prefix.
type section struct {
	name string
	opts []ConfigOption
}

// splitSections separates top-level keys from dotted ones, keeping the
// order in which sections first appear.
func splitSections(opts []ConfigOption) ([]ConfigOption, []section) {
	var top []ConfigOption
	var secs []section
	index := map[string]int{}
	for _, o := range opts {
		name, key, ok := strings.Cut(o.Key, ".")
		if !ok {
			top = append(top, o)
			continue
		}
		i, seen := index[name]
		if !seen {
			i = len(secs)
			index[name] = i
			secs = append(secs, section{name: name})
		}
		secs[i].opts = append(secs[i].opts, ConfigOption{Key: key, Default: o.Default, Comment: o.Comment})
	}
	return top, secs
}

// RenderDefaultTOML renders a TOML config with defaults from GetConfigOptions.
func RenderDefaultTOML() string {
	var lines []string
	lines = append(lines, "# docman configuration (TOML)")
	top, secs := splitSections(GetConfigOptions())
	for _, o := range top {
		lines = appendOption(lines, o)
	}
	for _, s := range secs {
		lines = append(lines, "["+s.name+"]")
		for _, o := range s.opts {
			lines = appendOption(lines, o)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// UpdateTOML merges missing defaults into an existing TOML document and
// comments out keys no longer in the schema. Missing keys are inserted into
// the section they belong to. It reports whether anything changed.
func UpdateTOML(existing string) (string, bool) {
	opts := GetConfigOptions()
	known := make(map[string]bool, len(opts))
	for _, o := range opts {
		known[o.Key] = true
	}
	lines := strings.Split(existing, "\n")

	present := map[string]bool{}
	current := ""
	for _, line := range lines {
		if name, ok := parseHeader(line); ok {
			current = name
			continue
		}
		if key, ok := parseTOMLKey(line); ok {
			present[joinKey(current, key)] = true
		}
	}

	var missing []ConfigOption
	for _, o := range opts {
		if !present[o.Key] {
			missing = append(missing, o)
		}
	}
	top, secs := splitSections(missing)
	pending := map[string][]ConfigOption{"": top}
	for _, s := range secs {
		pending[s.name] = s.opts
	}

	changed := false
	var out []string
	flush := func(name string) {
		group := pending[name]
		delete(pending, name)
		if len(group) == 0 {
			return
		}
		changed = true
		out = append(out, "# Added by config update")
		for _, o := range group {
			out = appendOption(out, o)
		}
	}

	current = ""
	for _, line := range lines {
		if name, ok := parseHeader(line); ok {
			flush(current)
			current = name
			out = append(out, line)
			continue
		}
		key, ok := parseTOMLKey(line)
		if ok && !known[joinKey(current, key)] {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out = append(out, indent+"# OUTDATED: option removed from config schema", indent+"# "+strings.TrimLeft(line, " \t"))
			changed = true
			continue
		}
		out = append(out, line)
	}
	flush(current)

	for _, s := range secs {
		group, ok := pending[s.name]
		if !ok {
			continue
		}
		changed = true
		out = append(out, "# Added by config update", "["+s.name+"]")
		for _, o := range group {
			out = appendOption(out, o)
		}
	}
	return strings.Join(out, "\n"), changed
}

func parseHeader(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
		return strings.TrimSpace(t[1 : len(t)-1]), true
	}
	return "", false
}

func joinKey(section, key string) string {
	if section == "" {
		return key
	}
	return section + "." + key
}

func parseTOMLKey(line string) (string, bool) {
	k, _, ok := strings.Cut(line, "=")
	if !ok {
		return "", false
	}
	k = strings.TrimSpace(k)
	if k == "" || strings.ContainsAny(k[:1], `#;["'`) {
		return "", false
	}
	return k, true
}

func appendOption(lines []string, o ConfigOption) []string {
	if o.Comment != "" {
		lines = append(lines, "# "+o.Comment)
	}
	return append(lines, o.Key+" = "+tomlValue(o.Default), "")
}

func tomlValue(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case bool, int, int64, float64:
		return fmt.Sprint(x)
	case []string:
		q := make([]string, len(x))
		for i, s := range x {
			q[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(q, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s = %q", k, fmt.Sprint(x[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return strconv.Quote(fmt.Sprint(x))
	}
}
