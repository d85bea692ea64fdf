package pool

import (
	"bufio"
	"fmt"
	"io"
)

// WriteGraph renders the pool as a DOT digraph.
//
// Each entity writes its own node (and any entity-owned edges such as
// feature references); the pool then adds one edge per plugged input:
//
//	"src" -> "dst" [ headlabel = "input" , taillabel = "output" , fontsize = 7, fontcolor = red ]
//
// Entities are visited in name order so the output is deterministic.
func (p *Pool) WriteGraph(w io.Writer, name string) error {
	bw := bufio.NewWriter(w)
	entities := p.Entities()

	fmt.Fprintf(bw, "digraph \"%s\" {\n", name)
	fmt.Fprintf(bw, "\tgraph [ label = \"%s\" , fontsize = 14, rankdir = LR ]\n", name)

	for _, e := range entities {
		if err := e.WriteGraph(bw); err != nil {
			return fmt.Errorf("write graph for %s: %w", e.Name(), err)
		}
	}

	for _, e := range entities {
		for _, s := range e.Signals() {
			src := s.Source()
			if src == nil {
				continue
			}
			fmt.Fprintf(bw,
				"\t\"%s\" -> \"%s\" [ headlabel = \"%s\" , taillabel = \"%s\" , fontsize = 7, fontcolor = red ]\n",
				src.Owner(), s.Owner(), s.Name(), src.Name())
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
