package service

import "fmt"

// Stage is a step of the analysis pipeline.
type Stage string

const (
	StageResolveIdentity  Stage = "resolve_identity"
	StageCacheCheck       Stage = "cache_check"
	StageAcquireSubtitle  Stage = "acquire_subtitle"
	StageNormalize        Stage = "normalize"
	StageSegment          Stage = "segment"
	StageValidateAndStore Stage = "validate_and_store"
)

// Kind classifies a pipeline failure for callers.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindNoSubtitle   Kind = "no_subtitle"
	KindSegmentation Kind = "segmentation"
	KindStorage      Kind = "storage"
)

// AnalysisError is returned by Analyze when a stage fails. Nothing is
// stored for a failed analysis.
type AnalysisError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
