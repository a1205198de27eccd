package packets

import "github.com/aau-transit/bustrack/internal/schedule"

type ScheduleResponse struct {
	Entries []schedule.Entry `json:"entries"`
}

type ScheduleOptionsResponse struct {
	Time     []string `json:"time"`
	Location []string `json:"location"`
}

type HealthResponse struct {
	Message  string `json:"message"`
	Database bool   `json:"database"`
	Sessions bool   `json:"sessions"`
}
