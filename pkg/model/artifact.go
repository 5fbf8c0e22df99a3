package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	nn "landcover/pkg/NeuralNetwork"
	"landcover/pkg/dataprep"
	"landcover/pkg/stats"
)

const artifactVersion = 1

// Artifact is everything needed to classify a new raster: the network, the
// standardization statistics fitted on the training features and the label
// set that gives output positions their meaning.
type Artifact struct {
	Version      int                  `json:"version"`
	CreatedAt    time.Time            `json:"created_at"`
	Bands        int                  `json:"bands"`
	Kernel       int                  `json:"kernel"`
	LearningRate float64              `json:"learning_rate"`
	Score        Score                `json:"score"`
	Labels       dataprep.LabelSet    `json:"labels"`
	Scaler       stats.StandardScaler `json:"scaler"`
	Network      nn.Snapshot          `json:"network"`
}

// NewArtifact bundles a trained result with its preprocessing state.
func NewArtifact(res *Result, scaler *stats.StandardScaler, labels *dataprep.LabelSet) (*Artifact, error) {
	if res == nil || res.Network == nil {
		return nil, errors.New("model: result has no network")
	}
	if !scaler.Fitted() {
		return nil, stats.ErrNotFitted
	}
	return &Artifact{
		Version:      artifactVersion,
		CreatedAt:    time.Now().UTC(),
		Bands:        len(scaler.Mean),
		Kernel:       res.Kernel,
		LearningRate: res.LearningRate,
		Score:        res.Score,
		Labels:       *labels,
		Scaler:       *scaler,
		Network:      res.Network.Snapshot(),
	}, nil
}

func (a *Artifact) Save(path string) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("model: decode %s: %w", path, err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("model: unsupported artifact version %d", a.Version)
	}
	if !a.Scaler.Fitted() || len(a.Scaler.Mean) != a.Bands {
		return nil, fmt.Errorf("model: artifact %s has no usable scaler", path)
	}
	return &a, nil
}

// Restore rebuilds the network for inference.
func (a *Artifact) Restore() (*nn.Network, error) {
	return nn.FromSnapshot(a.Network)
}
