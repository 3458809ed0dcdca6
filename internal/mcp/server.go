// Package mcp exposes the evidence operations as MCP tools over stdio so
// research agents can verify packs, sidecars, and report determinism
// without shelling out to the CLI. Evidence operations are stateless
// one-shots, so the server carries no session state.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"attest/internal/canonical"
	"attest/internal/manifest"
	"attest/internal/pack"
	"attest/internal/sidecar"
)

// Server wraps the MCP SDK server with the evidence toolset.
type Server struct {
	MCPServer   *sdkmcp.Server
	ProjectRoot string
}

// NewServer creates an MCP server with the evidence verification tools.
// The current working directory is captured as the project root so
// relative paths in tool calls resolve consistently.
func NewServer(version string) *Server {
	cwd, _ := os.Getwd()
	s := &Server{ProjectRoot: cwd}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "attest", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "validate_pack",
		Description: "Validate an evidence pack against its manifest. Recomputes every entry hash; returns the full validation report.",
	}, s.handleValidatePack)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "check_sidecar",
		Description: "Check a single-line .sha256 sidecar's textual contract against the artifact it accompanies. Fail-closed; does not hash the artifact.",
	}, s.handleCheckSidecar)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "compare_reports",
		Description: "Compare two JSON reports under a determinism contract and return the first divergent path, if any.",
	}, s.handleCompareReports)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "build_manifest",
		Description: "Build a manifest for a directory tree without writing anything: entries sorted by relative path with sizes and sha256 digests.",
	}, s.handleBuildManifest)
}

// --- Tool input/output types ---

type validatePackInput struct {
	ManifestPath string   `json:"manifest_path" jsonschema:"path to the pack's manifest.json"`
	Require      []string `json:"require,omitempty" jsonschema:"relative paths that must be present in the manifest"`
}

type validatePackOutput struct {
	OK             bool     `json:"ok"`
	CheckedEntries int      `json:"checked_entries"`
	Errors         []string `json:"errors"`
}

type checkSidecarInput struct {
	ArtifactPath string `json:"artifact_path" jsonschema:"artifact the sidecar accompanies"`
	SidecarPath  string `json:"sidecar_path,omitempty" jsonschema:"sidecar path (default: artifact path + .sha256)"`
}

type checkSidecarOutput struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

type compareReportsInput struct {
	BaselinePath  string `json:"baseline_path" jsonschema:"path to the baseline JSON report"`
	CandidatePath string `json:"candidate_path" jsonschema:"path to the candidate JSON report"`
	ContractPath  string `json:"contract_path,omitempty" jsonschema:"optional determinism contract (YAML or JSON)"`
}

type compareReportsOutput struct {
	Match     bool   `json:"match"`
	Path      string `json:"path,omitempty"`
	Baseline  any    `json:"baseline,omitempty"`
	Candidate any    `json:"candidate,omitempty"`
}

type buildManifestInput struct {
	Root       string   `json:"root" jsonschema:"directory tree to index"`
	Extensions []string `json:"extensions,omitempty" jsonschema:"optional extension safelist, e.g. [\".json\", \".md\"]"`
}

type buildManifestOutput struct {
	Entries []manifest.Entry `json:"entries"`
}

// --- Handlers ---

func (s *Server) handleValidatePack(_ context.Context, _ *sdkmcp.CallToolRequest, input validatePackInput) (*sdkmcp.CallToolResult, validatePackOutput, error) {
	report, err := pack.Validate(s.resolve(input.ManifestPath), input.Require)
	if err != nil {
		return nil, validatePackOutput{}, err
	}
	return nil, validatePackOutput{
		OK:             report.OK,
		CheckedEntries: report.CheckedEntries,
		Errors:         report.Errors,
	}, nil
}

func (s *Server) handleCheckSidecar(_ context.Context, _ *sdkmcp.CallToolRequest, input checkSidecarInput) (*sdkmcp.CallToolResult, checkSidecarOutput, error) {
	artifact := s.resolve(input.ArtifactPath)
	scPath := input.SidecarPath
	if scPath == "" {
		scPath = sidecar.PathFor(artifact)
	} else {
		scPath = s.resolve(scPath)
	}
	err := sidecar.Verify(artifact, scPath)
	if err == nil {
		return nil, checkSidecarOutput{OK: true}, nil
	}
	var formatErr *sidecar.FormatError
	if errors.As(err, &formatErr) {
		// Format violations are the tool's answer, not a transport error.
		return nil, checkSidecarOutput{OK: false, Reason: formatErr.Reason}, nil
	}
	return nil, checkSidecarOutput{}, err
}

func (s *Server) handleCompareReports(_ context.Context, _ *sdkmcp.CallToolRequest, input compareReportsInput) (*sdkmcp.CallToolResult, compareReportsOutput, error) {
	var contract *canonical.Contract
	if input.ContractPath != "" {
		c, err := canonical.LoadContract(s.resolve(input.ContractPath))
		if err != nil {
			return nil, compareReportsOutput{}, err
		}
		contract = c
	}
	baseline, err := loadJSONDoc(s.resolve(input.BaselinePath))
	if err != nil {
		return nil, compareReportsOutput{}, err
	}
	candidate, err := loadJSONDoc(s.resolve(input.CandidatePath))
	if err != nil {
		return nil, compareReportsOutput{}, err
	}
	res, err := canonical.Compare(baseline, candidate, contract)
	if err != nil {
		return nil, compareReportsOutput{}, err
	}
	return nil, compareReportsOutput{
		Match:     res.Match,
		Path:      res.Path,
		Baseline:  res.Baseline,
		Candidate: res.Candidate,
	}, nil
}

func (s *Server) handleBuildManifest(_ context.Context, _ *sdkmcp.CallToolRequest, input buildManifestInput) (*sdkmcp.CallToolResult, buildManifestOutput, error) {
	m, err := manifest.Build(s.resolve(input.Root), manifest.BuildOptions{
		Extensions: input.Extensions,
	})
	if err != nil {
		return nil, buildManifestOutput{}, err
	}
	return nil, buildManifestOutput{Entries: m.Entries}, nil
}

// resolve anchors a relative tool path at the project root.
func (s *Server) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.ProjectRoot, p)
}

func loadJSONDoc(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcp: read %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mcp: parse %s: %w", path, err)
	}
	return doc, nil
}
