package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status: ok, starting or stale"`
	Message string `json:"message" example:"Polling normally" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Status models
type StatusData struct {
	Status      string `json:"status" example:"green" doc:"Last classified status: red, yellow, green or error. Empty before the first poll"`
	Signal      *int   `json:"signal,omitempty" example:"2" doc:"Last signal value"`
	Indicator   string `json:"indicator" example:"green" doc:"Active indicator output: off, red, yellow or green"`
	Description string `json:"description,omitempty" example:"High renewable energy" doc:"Meaning of the active output"`
	LastUpdate  string `json:"last_update,omitempty" example:"2025-01-27T10:30:00Z" doc:"Time of the last poll"`
	LastError   string `json:"last_error,omitempty" example:"signal data not found" doc:"Why the last poll produced an error status"`
}

type StatusResponse struct {
	Body StatusData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.21.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}
