package domain

import "strings"

// DefaultContext is the section title used before any heading is seen.
const DefaultContext = "Document"

// NoRelevantInformation is returned as the answer text when no retrieved
// chunk clears the relevance threshold.
const NoRelevantInformation = "I could not find any relevant information in the indexed documents to answer this question."

type Chunk struct {
	Text    string
	Context string
}

// Record is the persisted identity of one indexed chunk. Its position in the
// index metadata equals the row of its vector.
type Record struct {
	Source  string `json:"source"`
	ChunkID int    `json:"chunk_id"`
	Text    string `json:"text"`
}

type SearchResult struct {
	Record
	Score float64 `json:"score"`
}

type Answer struct {
	Text    string         `json:"answer"`
	Sources []SearchResult `json:"sources"`
}

// Relevance buckets a similarity score for display.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

func RelevanceOf(score float64) Relevance {
	switch {
	case score > 0.7:
		return RelevanceHigh
	case score > 0.5:
		return RelevanceMedium
	default:
		return RelevanceLow
	}
}

type IngestStatus string

const (
	IngestIndexed IngestStatus = "indexed"
	IngestSkipped IngestStatus = "skipped"
	IngestFailed  IngestStatus = "failed"
)

// Skip reasons reported in IngestResult.Reason.
const (
	ReasonTooSmall  = "too_small"
	ReasonNoChunks  = "no_chunks"
	ReasonUnchanged = "unchanged"
)

// IngestResult is the outcome of ingesting one document.
type IngestResult struct {
	Source string
	Status IngestStatus
	Reason string
	Chunks int
	Err    error
}

// IngestReport aggregates the outcomes of a multi-document ingestion.
type IngestReport struct {
	Results []IngestResult
}

func (r *IngestReport) Add(res IngestResult) {
	r.Results = append(r.Results, res)
}

func (r IngestReport) count(status IngestStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

func (r IngestReport) Indexed() int { return r.count(IngestIndexed) }
func (r IngestReport) Skipped() int { return r.count(IngestSkipped) }
func (r IngestReport) Failed() int  { return r.count(IngestFailed) }

// Chunks returns the number of records added across all documents.
func (r IngestReport) Chunks() int {
	n := 0
	for _, res := range r.Results {
		n += res.Chunks
	}
	return n
}

// Errors renders every failed result as "source: error".
func (r IngestReport) Errors() []string {
	var out []string
	for _, res := range r.Results {
		if res.Status != IngestFailed {
			continue
		}
		msg := res.Reason
		if res.Err != nil {
			msg = res.Err.Error()
		}
		out = append(out, res.Source+": "+strings.TrimSpace(msg))
	}
	return out
}

// Document describes a source file as seen by the ingestion registry.
type Document struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"`
	Chunks  int    `json:"chunks"`
}
