package workflow

import (
	"fmt"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/stage"
)

// Stage names in pipeline order.
const (
	StageIdeas      = "ideas"
	StageScripts    = "scripts"
	StageIllustrate = "illustrate"
	StageAudio      = "audio"
	StageVideo      = "video"
	StageMix        = "mix"
	StageSubtitle   = "subtitle"
)

// Order lists every stage in execution order.
var Order = []string{StageIdeas, StageScripts, StageIllustrate, StageAudio, StageVideo, StageMix, StageSubtitle}

// StageSet bundles the concrete handlers the manager orchestrates. A nil
// handler leaves its stage out of the pipeline.
type StageSet struct {
	Ideas      stage.Handler
	Scripts    stage.Handler
	Illustrate stage.Handler
	Audio      stage.Handler
	Video      stage.Handler
	Mix        stage.Handler
	Subtitle   stage.Handler
}

type pipelineStage struct {
	name    string
	handler stage.Handler
}

func (s StageSet) handler(name string) stage.Handler {
	switch name {
	case StageIdeas:
		return s.Ideas
	case StageScripts:
		return s.Scripts
	case StageIllustrate:
		return s.Illustrate
	case StageAudio:
		return s.Audio
	case StageVideo:
		return s.Video
	case StageMix:
		return s.Mix
	case StageSubtitle:
		return s.Subtitle
	}
	return nil
}

// ParseStage validates a stage name. Matching is case-insensitive.
func ParseStage(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range Order {
		if s == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q (expected one of %s)", name, strings.Join(Order, ", "))
}

// Between returns the stage names from..to inclusive. Empty bounds mean the
// first and last stage.
func Between(from, to string) ([]string, error) {
	start, end := 0, len(Order)-1
	if strings.TrimSpace(from) != "" {
		name, err := ParseStage(from)
		if err != nil {
			return nil, err
		}
		start = indexOf(name)
	}
	if strings.TrimSpace(to) != "" {
		name, err := ParseStage(to)
		if err != nil {
			return nil, err
		}
		end = indexOf(name)
	}
	if start > end {
		return nil, fmt.Errorf("stage %q comes after %q", Order[start], Order[end])
	}
	return append([]string(nil), Order[start:end+1]...), nil
}

func indexOf(name string) int {
	for i, s := range Order {
		if s == name {
			return i
		}
	}
	return -1
}
