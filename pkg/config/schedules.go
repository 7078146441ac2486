// Package config provides configuration loading for the job runner.
package config

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/carelane/carelane/pkg/jobs"
)

// ScheduleFile is the structure of the schedules.yaml file. Keys are job
// names, values are standard five-field cron expressions.
type ScheduleFile struct {
	Schedules map[string]string `yaml:"schedules"`
}

// LoadSchedules loads cron schedule overrides from a YAML file. Every entry
// must name a known job and parse as a standard cron expression; jobs absent
// from the file keep their default schedule.
func LoadSchedules(path string) (map[jobs.Name]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file %s: %w", path, err)
	}

	var file ScheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML schedule file: %w", err)
	}

	schedules := make(map[jobs.Name]string, len(file.Schedules))

	for name, expr := range file.Schedules {
		jobName := jobs.Name(name)
		if !jobName.Valid() {
			return nil, fmt.Errorf("unknown job %q in schedule file", name)
		}

		if _, err := cron.ParseStandard(expr); err != nil {
			return nil, fmt.Errorf("invalid cron expression %q for job %s: %w", expr, name, err)
		}

		schedules[jobName] = expr
	}

	return schedules, nil
}
