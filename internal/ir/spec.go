package ir

import (
	"fmt"
	"strings"
)

// GraphSpec is the compiled form of a graph declaration.
//
// Entities, plugs and sets keep declaration order; the builder applies them
// in that order so a graph builds identically every time.
type GraphSpec struct {
	Name     string       `json:"name"`
	Entities []EntitySpec `json:"entities"`
	Plugs    []PlugSpec   `json:"plugs,omitempty"`
	Sets     []SetSpec    `json:"sets,omitempty"`
	Watch    []string     `json:"watch,omitempty"`
}

// EntitySpec declares one entity instance.
type EntitySpec struct {
	Name      string         `json:"name"`
	Class     string         `json:"class"`
	Reference string         `json:"reference,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// PlugSpec connects the output signal From to the input signal To.
// Both are signal paths of the form "entity.signal".
type PlugSpec struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SetSpec stores a constant into the signal at Path.
type SetSpec struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// SignalPath splits "entity.signal" into its two parts.
//
// The entity part is everything before the last dot, so entity names may
// themselves contain dots.
func SignalPath(path string) (entity, signal string, err error) {
	i := strings.LastIndexByte(path, '.')
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf("invalid signal path %q: want entity.signal", path)
	}
	return path[:i], path[i+1:], nil
}

// JoinSignalPath builds "entity.signal".
func JoinSignalPath(entity, signal string) string {
	return entity + "." + signal
}
