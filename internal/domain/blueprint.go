package domain

// Blueprint is a remote container-image build template
type Blueprint struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status,omitempty"`
	Dockerfile   string   `json:"dockerfile,omitempty"`
	CreateTimeMs int64    `json:"create_time_ms,omitempty"`
	Parameters   []string `json:"system_setup_commands,omitempty"`
}

// BlueprintList is a page of blueprints
type BlueprintList struct {
	Blueprints []Blueprint `json:"blueprints"`
	HasMore    bool        `json:"has_more"`
}

// BlueprintPreview is the rendered Dockerfile for a blueprint request
type BlueprintPreview struct {
	Dockerfile string `json:"dockerfile"`
}

// BlueprintLogs is the build log listing for a blueprint
type BlueprintLogs struct {
	Logs []DevboxLogEntry `json:"logs"`
}
