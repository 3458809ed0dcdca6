package wiring

import (
	"attest/internal/index"
	"attest/internal/manifest"
	"attest/internal/pack"
)

// Result collects the outputs of one full evidence flow.
type Result struct {
	Pack   *pack.GenerateResult
	Report *manifest.Report
	Index  *index.Index
}

// Run executes the full evidence flow: Generate → Validate → index Update.
// The generated pack lands under opts.OutRoot, is re-validated from its own
// manifest, and the combined index is rewritten at indexPath. A failed
// validation is not an error: the caller inspects Report.OK.
func Run(opts pack.GenerateOptions, indexPath string, required []string) (*Result, error) {
	res, err := pack.Generate(opts)
	if err != nil {
		return nil, err
	}
	report, err := pack.Validate(res.ManifestPath, required)
	if err != nil {
		return nil, err
	}
	idx, err := index.Update(opts.OutRoot, indexPath)
	if err != nil {
		return nil, err
	}
	return &Result{Pack: res, Report: report, Index: idx}, nil
}
