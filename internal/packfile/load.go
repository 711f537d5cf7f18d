// Package packfile loads, validates, and watches YAML policy packs.
//
// Loading computes the pack's SHA-256 content hash over the raw document
// bytes, so the hash survives re-serialization differences and identifies
// exactly what was evaluated. Defaults (budgets, decisionOnUnknown) are
// applied at load time so the engine never sees zero values.
package packfile

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solatis/packgate/internal/types"
)

// wirePack mirrors the YAML pack document. Obligations accept both the
// flattened authoring shape (comparatorId/params or condition/conditions
// inline) and the typed shape; conversion normalizes to the tagged union.
type wirePack struct {
	Metadata types.PackMetadata `yaml:"metadata"`
	Scope    types.Scope        `yaml:"scope"`
	Evaluation struct {
		Budgets types.BudgetConfig `yaml:"budgets"`
	} `yaml:"evaluation"`
	Routing struct {
		Checks types.RoutingConfig `yaml:"checks"`
	} `yaml:"routing"`
	Rules []wireRule `yaml:"rules"`
}

type wireRule struct {
	ID                        string               `yaml:"id"`
	Name                      string               `yaml:"name"`
	Trigger                   *types.Trigger       `yaml:"trigger"`
	SkipIf                    *types.SkipCondition `yaml:"skipIf"`
	ExcludePaths              []string             `yaml:"excludePaths"`
	Obligations               []wireObligation     `yaml:"obligations"`
	DecisionOnViolation       types.Decision       `yaml:"decisionOnViolation"`
	DecisionOnMissingEvidence types.Decision       `yaml:"decisionOnMissingExternalEvidence"`
}

type wireObligation struct {
	ComparatorID string            `yaml:"comparatorId"`
	Params       map[string]any    `yaml:"params"`
	Condition    *types.Condition  `yaml:"condition"`
	Conditions   []types.Condition `yaml:"conditions"`

	DecisionOnFail    types.Decision `yaml:"decisionOnFail"`
	DecisionOnUnknown types.Decision `yaml:"decisionOnUnknown"`
}

// Parse decodes a YAML pack document, applies defaults, and stamps the
// content hash. The returned pack is structurally normalized but not yet
// validated; call Validate before serving it.
func Parse(doc []byte) (*types.Pack, error) {
	var wire wirePack
	if err := yaml.Unmarshal(doc, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse pack document: %w", err)
	}

	pack := &types.Pack{
		Metadata: wire.Metadata,
		Scope:    wire.Scope,
		Budgets:  wire.Evaluation.Budgets,
		Routing:  wire.Routing.Checks,
		Rules:    make([]types.Rule, 0, len(wire.Rules)),
		Hash:     fmt.Sprintf("%x", sha256.Sum256(doc)),
	}

	if pack.Metadata.Mode == "" {
		pack.Metadata.Mode = types.ModeEnforce
	}
	applyBudgetDefaults(&pack.Budgets)

	for _, wr := range wire.Rules {
		rule := types.Rule{
			ID:                        wr.ID,
			Name:                      wr.Name,
			Trigger:                   wr.Trigger,
			SkipIf:                    wr.SkipIf,
			ExcludePaths:              wr.ExcludePaths,
			DecisionOnViolation:       wr.DecisionOnViolation,
			DecisionOnMissingEvidence: wr.DecisionOnMissingEvidence,
		}
		for _, wo := range wr.Obligations {
			rule.Obligations = append(rule.Obligations, convertObligation(wo))
		}
		pack.Rules = append(pack.Rules, rule)
	}

	return pack, nil
}

// Load reads and parses one pack file.
func Load(path string) (*types.Pack, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack file: %w", err)
	}
	pack, err := Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pack, nil
}

// LoadDir loads every .yaml/.yml pack in a directory, sorted by filename
// for deterministic ordering. Subdirectories are not descended.
func LoadDir(dir string) ([]*types.Pack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	packs := make([]*types.Pack, 0, len(names))
	for _, name := range names {
		pack, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

// convertObligation normalizes the authoring shape into the tagged union
// and applies decision defaults (decisionOnUnknown defaults to warn).
func convertObligation(wo wireObligation) types.Obligation {
	ob := types.Obligation{
		DecisionOnFail:    wo.DecisionOnFail,
		DecisionOnUnknown: wo.DecisionOnUnknown,
	}
	if !ob.DecisionOnFail.Valid() {
		ob.DecisionOnFail = types.DecisionWarn
	}
	if !ob.DecisionOnUnknown.Valid() {
		ob.DecisionOnUnknown = types.DecisionWarn
	}

	if strings.TrimSpace(wo.ComparatorID) != "" {
		ob.Comparator = &types.ComparatorObligation{
			ComparatorID: wo.ComparatorID,
			Params:       wo.Params,
		}
	}

	conds := wo.Conditions
	if wo.Condition != nil {
		conds = append([]types.Condition{*wo.Condition}, conds...)
	}
	if len(conds) > 0 {
		ob.Condition = &types.ConditionObligation{Conditions: conds}
	}

	return ob
}

// applyBudgetDefaults fills unset budget fields.
func applyBudgetDefaults(b *types.BudgetConfig) {
	def := types.DefaultBudgetConfig()
	if b.MaxTotalMs == 0 {
		b.MaxTotalMs = def.MaxTotalMs
	}
	if b.PerComparatorTimeoutMs == 0 {
		b.PerComparatorTimeoutMs = def.PerComparatorTimeoutMs
	}
	if b.MaxGitHubAPICalls == 0 {
		b.MaxGitHubAPICalls = def.MaxGitHubAPICalls
	}
}
