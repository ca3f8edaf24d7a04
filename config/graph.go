package config

import (
	"sort"

	"golang.org/x/exp/maps"
)

type graph struct {
	nodes map[ServiceID][]ServiceID
}

func newGraph() *graph {
	return &graph{nodes: make(map[ServiceID][]ServiceID)}
}

func (g *graph) addNode(id ServiceID, deps ...ServiceID) {
	g.nodes[id] = deps
}

// topologicalSort returns services with dependencies first. Ties are broken
// by service type so the order is stable across runs.
func (g *graph) topologicalSort() []ServiceID {
	visited := make(map[ServiceID]bool)
	stack := []ServiceID{}

	var visit func(ServiceID)

	visit = func(service ServiceID) {
		if _, ok := visited[service]; !ok {
			visited[service] = true

			for _, dep := range g.nodes[service] {
				visit(dep)
			}

			stack = append(stack, service)
		}
	}

	services := maps.Keys(g.nodes)
	sort.Slice(services, func(i, j int) bool {
		return services[i].Type < services[j].Type
	})

	for _, service := range services {
		visit(service)
	}

	return stack
}
