package main

import (
	"sort"
	"strings"
)

type TargetDef struct {
	Name   string
	Source string
}

const defaultTargetName = "node_modules"

var defaultTargets = []TargetDef{
	{Name: defaultTargetName, Source: "default"},
}

func buildTargetMapWithList(includes, excludes []string) map[string]TargetDef {
	targets := map[string]TargetDef{}
	for _, def := range defaultTargets {
		targets[def.Name] = def
	}

	for _, name := range includes {
		if name == "" {
			continue
		}
		if _, ok := targets[name]; ok {
			continue
		}
		targets[name] = TargetDef{Name: name, Source: "custom"}
	}

	for _, name := range excludes {
		delete(targets, name)
	}

	return targets
}

func parseTargetList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func sortedTargetNames(targets map[string]TargetDef) []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
