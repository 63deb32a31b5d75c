package a2a

/*
Artifact is the output of a task. Artifacts are identified by ArtifactID so
that incremental updates can be merged into the task as they stream in.
*/
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Extensions  []string       `json:"extensions,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewTextArtifact(id string, text string) Artifact {
	return Artifact{
		ArtifactID: id,
		Parts:      []Part{NewTextPart(text)},
	}
}

func NewFileArtifact(id string, name string, mimeType string, data string) Artifact {
	return Artifact{
		ArtifactID: id,
		Name:       &name,
		Parts: []Part{
			{
				Kind: PartKindFile,
				File: &FilePart{
					MimeType: &mimeType,
					Bytes:    data,
				},
			},
		},
	}
}
