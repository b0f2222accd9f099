package models

import "time"

// Descriptions is the platform copy generated for one episode.
type Descriptions struct {
	YouTubeTitle       string   `yaml:"youtube_title"`
	YouTubeDescription string   `yaml:"youtube_description"`
	SpotifyTitle       string   `yaml:"spotify_title"`
	SpotifyDescription string   `yaml:"spotify_description"`
	Tags               []string `yaml:"tags"`
}

// NewDescriptions returns a bundle with both titles set to the fallback and
// an empty, non-nil tag list.
func NewDescriptions(fallbackTitle string) Descriptions {
	return Descriptions{
		YouTubeTitle: fallbackTitle,
		SpotifyTitle: fallbackTitle,
		Tags:         []string{},
	}
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Stage string

const (
	StageDownload      Stage = "download"
	StageExtraction    Stage = "extraction"
	StageTranscription Stage = "transcription"
	StageSummary       Stage = "summary"
)

// Run is one `process` invocation recorded in the ledger.
type Run struct {
	ID               string
	URL              string
	Title            string
	Status           Status
	Stage            Stage
	VideoPath        string
	AudioPath        string
	TranscriptPath   string
	DescriptionsPath string
	Error            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r *Run) Complete() {
	r.Status = StatusCompleted
	r.Error = ""
}

func (r *Run) Fail(stage Stage, err error) {
	r.Status = StatusFailed
	r.Stage = stage
	if err != nil {
		r.Error = err.Error()
	}
}
