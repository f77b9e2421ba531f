package tool

import "strings"

type RiskLevel string

const (
	RiskLow  RiskLevel = "low"
	RiskHigh RiskLevel = "high"
)

// ToolMetadata describes how a tool is gated. It is only used for logging.
type ToolMetadata struct {
	Source       string
	Risk         RiskLevel
	Confirmation bool
}

type MetadataProvider interface {
	ToolMetadata() ToolMetadata
}

func metadataOf(t Tool) ToolMetadata {
	meta := ToolMetadata{}
	if provider, ok := t.(MetadataProvider); ok {
		meta = provider.ToolMetadata()
	}
	return normalizeToolMetadata(meta)
}

func normalizeToolMetadata(meta ToolMetadata) ToolMetadata {
	meta.Source = strings.TrimSpace(strings.ToLower(meta.Source))
	if meta.Source == "" {
		meta.Source = "runtime"
	}

	switch RiskLevel(strings.ToLower(string(meta.Risk))) {
	case RiskLow:
		meta.Risk = RiskLow
	default:
		meta.Risk = RiskHigh
	}
	return meta
}
