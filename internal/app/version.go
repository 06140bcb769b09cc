package app

// Service metadata
const ServiceName = "student-api"

// Build-time injection variables, set via -ldflags:
//
//	go build -ldflags="-X 'student-api/internal/app.Version=1.0.0'"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
