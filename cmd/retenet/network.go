package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"retenet/internal/config"
	"retenet/internal/evalexpr"
	"retenet/internal/rete"
	"retenet/internal/ruleset"
)

// loadFacts reads a working-set fact file: one tab-separated
// (identifier, attribute, value) triple per line, blank lines and
// lines starting with '#' ignored.
func loadFacts(path string) ([]*rete.Fact, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open facts file: %w", err)
	}
	defer f.Close()

	var facts []*rete.Fact
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("facts file line %d: expected 3 tab-separated fields, got %d", lineNo, len(fields))
		}
		facts = append(facts, rete.NewFact(fields[0], fields[1], fields[2]))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read facts file: %w", err)
	}
	return facts, nil
}

// compiledNetwork pairs a built network with the productions that were
// compiled into it, so callers can report per-production match counts by
// name.
type compiledNetwork struct {
	net         *rete.Network
	productions []ruleset.Production
	nodesByName map[string]*rete.ProductionNode
}

func buildNetwork(cfg *config.Config) (*compiledNetwork, error) {
	content, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	productions, err := ruleset.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	net := rete.New(evalexpr.New(cfg.Eval.Timeout))
	net.SetFactLimit(cfg.Network.FactLimit)

	nodesByName := make(map[string]*rete.ProductionNode, len(productions))
	for _, p := range productions {
		node, err := net.AddProduction(p.LHS, p.RHS)
		if err != nil {
			return nil, fmt.Errorf("compile production %q: %w", p.Name, err)
		}
		nodesByName[p.Name] = node
	}

	facts, err := loadFacts(factsPath)
	if err != nil {
		return nil, err
	}
	for _, fact := range facts {
		if err := net.AddFact(fact); err != nil {
			return nil, fmt.Errorf("assert fact %v: %w", fact, err)
		}
	}

	return &compiledNetwork{net: net, productions: productions, nodesByName: nodesByName}, nil
}

func (c *compiledNetwork) matchCounts() map[string]int {
	out := make(map[string]int, len(c.nodesByName))
	for name, node := range c.nodesByName {
		out[name] = len(node.Memory())
	}
	return out
}
