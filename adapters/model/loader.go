package model

import (
	_ "embed"
	"encoding/json"
	"os"

	"koafrail/domain/risk"
	"koafrail/internal/errors"
)

// The default artifact ships inside the binary so the app runs with no files
// on disk. MODEL_FILE swaps in an external artifact with the same shape.
//
//go:embed artifact.json
var defaultArtifactJSON []byte

// LoadDefault parses and validates the embedded artifact
func LoadDefault() (risk.Artifact, error) {
	return parseArtifact(defaultArtifactJSON, "embedded artifact")
}

// LoadFile reads an artifact from disk
func LoadFile(path string) (risk.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return risk.Artifact{}, errors.ModelInvalid("reading model artifact "+path, err)
	}
	return parseArtifact(data, path)
}

// Load returns the artifact at path when path is non-empty, the embedded
// default otherwise.
func Load(path string) (risk.Artifact, error) {
	if path == "" {
		return LoadDefault()
	}
	return LoadFile(path)
}

func parseArtifact(data []byte, source string) (risk.Artifact, error) {
	var artifact risk.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return risk.Artifact{}, errors.ModelInvalid("parsing "+source, err)
	}
	if err := artifact.Validate(); err != nil {
		return risk.Artifact{}, errors.ModelInvalid("validating "+source, err)
	}
	return artifact, nil
}
