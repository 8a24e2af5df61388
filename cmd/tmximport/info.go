package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Faultbox/mvkit/pkg/tiled"
)

// mapStats counts what a map holds across all group levels.
type mapStats struct {
	layers  int
	cells   int
	groups  int
	objects map[string]int
	types   map[string]int
}

func printInfo(w io.Writer, name string, m *tiled.Map) {
	fmt.Fprintf(w, "Map:         %s\n", name)
	fmt.Fprintf(w, "Orientation: %s\n", m.Orientation)
	fmt.Fprintf(w, "Size:        %dx%d tiles of %dx%d px\n", m.Width, m.Height, m.TileWidth, m.TileHeight)
	if m.TiledVersion != "" {
		fmt.Fprintf(w, "Tiled:       %s\n", m.TiledVersion)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Tilesets:")
	for _, ts := range m.TileSets {
		fmt.Fprintf(w, "  %-6s %s\n", ts.FirstGID, ts.Source)
	}

	st := mapStats{objects: make(map[string]int), types: make(map[string]int)}
	st.addLayers(m.Layers)
	st.addObjectGroups(m.ObjectGroups)
	for i := range m.Groups {
		st.addGroup(&m.Groups[i])
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Tile layers: %d (%d painted cells)\n", st.layers, st.cells)
	fmt.Fprintf(w, "Groups:      %d\n", st.groups)
	fmt.Fprintln(w, "Objects by shape:")
	printCounts(w, st.objects)
	if len(st.types) > 0 {
		fmt.Fprintln(w, "Objects by type:")
		printCounts(w, st.types)
	}
}

func (st *mapStats) addLayers(layers []tiled.Layer) {
	for i := range layers {
		st.layers++
		gids, err := layers[i].CellGIDs()
		if err != nil {
			continue
		}
		for _, g := range gids {
			if !g.IsEmpty() {
				st.cells++
			}
		}
	}
}

func (st *mapStats) addObjectGroups(groups []tiled.ObjectGroup) {
	for _, og := range groups {
		for i := range og.Objects {
			o := &og.Objects[i]
			st.objects[o.Shape().String()]++
			if o.Type != "" {
				st.types[strings.ToLower(o.Type)]++
			}
		}
	}
}

func (st *mapStats) addGroup(g *tiled.Group) {
	st.groups++
	st.addLayers(g.Layers)
	st.addObjectGroups(g.ObjectGroups)
	for i := range g.Groups {
		st.addGroup(&g.Groups[i])
	}
}

func printCounts(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Fprintf(w, "  %-10s %d\n", k, counts[k])
	}
}
